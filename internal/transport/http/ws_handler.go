package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quest-service/internal/app"
	"quest-service/internal/domain"
)

type WSHandler struct {
	service  *app.PlayService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(service *app.PlayService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.Named("ws"),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID string `json:"questionId"`
	Option     int    `json:"option"`
}

type togglePayload struct {
	QuestionID string `json:"questionId"`
	Option     int    `json:"option"`
	Checked    bool   `json:"checked"`
}

type textPayload struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

type navigatePayload struct {
	Direction string `json:"direction"`
	Index     *int   `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var outboundTypes = map[app.EventType]string{
	app.EventState:     "session",
	app.EventTick:      "tick",
	app.EventSubmitted: "result",
}

// ServeWS starts a play session, upgrades to a websocket and relays session
// events until the player disconnects. The session ends with the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	questID := r.URL.Query().Get("questId")
	playerID := r.URL.Query().Get("playerId")
	if questID == "" || playerID == "" {
		http.Error(w, "missing questId or playerId", http.StatusBadRequest)
		return
	}
	practice := strings.EqualFold(r.URL.Query().Get("mode"), string(domain.ModePractice))

	session, err := h.service.Start(r.Context(), app.StartRequest{QuestID: questID, PlayerID: playerID, Practice: practice})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrQuestNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	defer h.service.Leave(session.ID())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.String("session_id", session.ID()), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: outboundTypes[ev.Type], Payload: ev.Snapshot}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(session, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

var errBadPayload = errors.New("invalid payload")

func (h *WSHandler) dispatch(session *app.Session, in inboundMessage) error {
	switch in.Type {
	case "select":
		var p selectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errBadPayload
		}
		return session.SelectOption(p.QuestionID, p.Option)
	case "toggle":
		var p togglePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errBadPayload
		}
		return session.ToggleOption(p.QuestionID, p.Option, p.Checked)
	case "text":
		var p textPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errBadPayload
		}
		return session.SetText(p.QuestionID, p.Text)
	case "navigate":
		var p navigatePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errBadPayload
		}
		switch {
		case p.Index != nil:
			session.GoTo(*p.Index)
		case p.Direction == "next":
			session.Next()
		case p.Direction == "prev":
			session.Prev()
		default:
			return errBadPayload
		}
		return nil
	case "submit":
		_, err := session.Submit()
		return err
	}
	return errors.New("unsupported message type")
}
