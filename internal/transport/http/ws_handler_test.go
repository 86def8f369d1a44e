package http

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketPlayFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedQuest(t)

	conn := dial(t, env, "questId=quest-1&playerId=p1")

	typ, payload := readNext(conn, t, "session")
	if typ != "session" {
		t.Fatalf("expected session, got %s", typ)
	}
	if payload["state"] != "in_progress" || payload["mode"] != "scored" || payload["count"] != float64(2) {
		t.Fatalf("unexpected initial snapshot %v", payload)
	}
	question := payload["question"].(map[string]any)
	if question["id"] != "q1" {
		t.Fatalf("expected q1 first, got %v", question)
	}
	if _, leaked := question["correct_answer"]; leaked {
		t.Fatalf("snapshot leaks the answer key: %v", question)
	}

	send(t, conn, "submit", nil)
	if typ, payload := readUntil(conn, t, "error"); typ != "error" || !strings.Contains(payload["message"].(string), "every question") {
		t.Fatalf("expected incomplete answers error, got %s %v", typ, payload)
	}

	send(t, conn, "select", map[string]any{"questionId": "q1", "option": 1})
	send(t, conn, "navigate", map[string]any{"direction": "next"})
	send(t, conn, "text", map[string]any{"questionId": "q2", "text": "  paris "})
	send(t, conn, "submit", nil)

	typ, payload = readUntil(conn, t, "result")
	if typ != "result" {
		t.Fatalf("expected result, got %s", typ)
	}
	result := payload["result"].(map[string]any)
	if result["score"] != float64(2) || result["total"] != float64(2) || result["percentage"] != float64(100) {
		t.Fatalf("unexpected result %v", result)
	}
	if payload["state"] != "submitted" {
		t.Fatalf("expected submitted state, got %v", payload["state"])
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := env.results.CountAttempts(context.Background(), "quest-1", "p1")
		if err != nil {
			t.Fatalf("count attempts: %v", err)
		}
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected one recorded attempt, got %d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	env := newTestEnv(t)
	env.seedQuest(t)

	conn := dial(t, env, "questId=quest-1&playerId=p1&mode=practice")
	if _, payload := readNext(conn, t, "session"); payload["mode"] != "practice" {
		t.Fatalf("expected practice mode, got %v", payload["mode"])
	}

	send(t, conn, "dance", nil)
	if typ, payload := readUntil(conn, t, "error"); payload["message"] != "unsupported message type" {
		t.Fatalf("expected unsupported type error, got %s %v", typ, payload)
	}

	send(t, conn, "select", map[string]any{"questionId": "q1", "option": 7})
	if _, payload := readUntil(conn, t, "error"); payload["message"] != "option not found" {
		t.Fatalf("expected option error, got %v", payload)
	}

	send(t, conn, "text", map[string]any{"questionId": "q1", "text": "four"})
	if _, payload := readUntil(conn, t, "error"); payload["message"] != "answer does not match question type" {
		t.Fatalf("expected type mismatch error, got %v", payload)
	}
}

func TestWebSocketStartFailures(t *testing.T) {
	env := newTestEnv(t)

	for query, want := range map[string]int{
		"playerId=p1":               http.StatusBadRequest,
		"questId=ghost&playerId=p1": http.StatusNotFound,
		"questId=quest-1&playerId=": http.StatusBadRequest,
	} {
		resp, err := http.Get(env.server.URL + "/ws/play?" + query)
		if err != nil {
			t.Fatalf("get %s: %v", query, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("%s: expected %d, got %d", query, want, resp.StatusCode)
		}
	}
}

func dial(t *testing.T, env *testEnv, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/play?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips session and tick updates until a message of the expected type arrives.
func readUntil(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t, expect)
		if typ == expect {
			return typ, payload
		}
	}
	t.Fatalf("no %s message after 20 reads", expect)
	return "", nil
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read %s: %v", expect, err)
	}
	return msg.Type, msg.Payload
}
