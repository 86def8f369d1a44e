package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func doJSON(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestQuestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	base := env.server.URL + "/api/quests"

	status, body := doJSON(t, http.MethodPost, base, `{"title":"Geo","description":"Capitals","active_from":"2026-03-01T00:00","active_to":"2026-03-31T23:59:59Z"}`)
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %v", status, body)
	}
	id, _ := body["id"].(string)
	if id == "" || body["active"] != true || body["active_from"] != "2026-03-01T00:00:00Z" {
		t.Fatalf("unexpected created quest %v", body)
	}

	status, body = doJSON(t, http.MethodGet, base+"?filter=active", "")
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	if quests, _ := body["quests"].([]any); len(quests) != 1 {
		t.Fatalf("expected one active quest, got %v", body)
	}
	_, body = doJSON(t, http.MethodGet, base+"?filter=inactive", "")
	if quests, _ := body["quests"].([]any); len(quests) != 0 {
		t.Fatalf("expected no inactive quests, got %v", body)
	}

	status, body = doJSON(t, http.MethodPatch, base+"/"+id, `{"active_to":"2026-03-05T00:00:00Z"}`)
	if status != http.StatusOK || body["active"] != false {
		t.Fatalf("patch: expected inactive quest, got %d %v", status, body)
	}

	status, body = doJSON(t, http.MethodPatch, base+"/"+id, `{"active_from":"2026-04-01T00:00:00Z"}`)
	if status != http.StatusBadRequest || !strings.Contains(body["error"].(string), "active_from") {
		t.Fatalf("inverted window: expected 400, got %d %v", status, body)
	}

	status, _ = doJSON(t, http.MethodDelete, base+"/"+id, "")
	if status != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", status)
	}
	status, body = doJSON(t, http.MethodGet, base+"/"+id, "")
	if status != http.StatusNotFound || body["error"] == nil {
		t.Fatalf("get deleted: expected 404 with error, got %d %v", status, body)
	}
}

func TestCreateQuestRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	base := env.server.URL + "/api/quests"

	cases := []string{
		`{"description":"no title","active_from":"2026-03-01","active_to":"2026-03-02"}`,
		`{"title":"T","active_from":"yesterday","active_to":"2026-03-02"}`,
		`{"title":"T","active_from":"2026-03-05","active_to":"2026-03-02"}`,
		`not json`,
	}
	for _, body := range cases {
		status, out := doJSON(t, http.MethodPost, base, body)
		if status != http.StatusBadRequest || out["error"] == nil {
			t.Fatalf("%s: expected 400 with error, got %d %v", body, status, out)
		}
	}
}

func TestContentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seedQuest(t)
	base := env.server.URL + "/api/quests/quest-1/content"

	status, body := doJSON(t, http.MethodGet, base, "")
	if status != http.StatusOK {
		t.Fatalf("get content: expected 200, got %d", status)
	}
	questions := body["questions"].([]any)
	first := questions[0].(map[string]any)
	if _, leaked := first["correct_answer"]; leaked {
		t.Fatalf("player content must not include correct_answer: %v", first)
	}
	if _, leaked := first["explanation"]; leaked {
		t.Fatalf("player content must not include explanation: %v", first)
	}

	_, body = doJSON(t, http.MethodGet, base+"?admin=true", "")
	first = body["questions"].([]any)[0].(map[string]any)
	if first["correct_answer"] != "1" {
		t.Fatalf("admin content should include the key, got %v", first)
	}

	status, body = doJSON(t, http.MethodPost, base, `{"questions":[
		{"id":"a","type":"single_choice","text":"ok","options":[{"id":"x","text":"1"},{"id":"y","text":"2"}],"correct_answer":0,"points":1},
		{"id":"b","type":"multiple_choice","text":"","options":[{"id":"x","text":"1"},{"id":"y","text":"2"}],"correct_answer":["0"],"points":1}
	]}`)
	if status != http.StatusBadRequest {
		t.Fatalf("invalid content: expected 400, got %d %v", status, body)
	}
	if body["question_index"] != float64(1) || body["reason"] != "question text is empty" {
		t.Fatalf("expected validation details, got %v", body)
	}

	status, body = doJSON(t, http.MethodPost, base, `{"questions":[
		{"id":"a","type":"text","text":"Say hi","correct_answer":"hi","points":2}
	],"settings":{"shuffle_questions":false,"show_correct_answers":true,"attempts_allowed":3,"time_limit_minutes":10}}`)
	if status != http.StatusOK {
		t.Fatalf("save content: expected 200, got %d %v", status, body)
	}
	_, body = doJSON(t, http.MethodGet, base+"?admin=true", "")
	settings := body["settings"].(map[string]any)
	if settings["attempts_allowed"] != float64(3) || len(body["questions"].([]any)) != 1 {
		t.Fatalf("expected replaced content, got %v", body)
	}
}

func TestContentMissingIs404(t *testing.T) {
	env := newTestEnv(t)
	status, _ := doJSON(t, http.MethodPost, env.server.URL+"/api/quests", `{"title":"Empty","active_from":"2026-03-01","active_to":"2026-03-31"}`)
	if status != http.StatusCreated {
		t.Fatalf("create: %d", status)
	}
	_, list := doJSON(t, http.MethodGet, env.server.URL+"/api/quests", "")
	id := list["quests"].([]any)[0].(map[string]any)["id"].(string)

	status, body := doJSON(t, http.MethodGet, env.server.URL+"/api/quests/"+id+"/content", "")
	if status != http.StatusNotFound || body["error"] == nil {
		t.Fatalf("expected 404 for missing content, got %d %v", status, body)
	}
}
