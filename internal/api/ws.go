package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mulakhat/interview/internal/auth"
	"mulakhat/interview/internal/models"
	"mulakhat/interview/internal/session"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// frameTimeout bounds the storage work behind a single inbound frame.
const frameTimeout = 10 * time.Second

// SessionWS is the realtime surface of the coordinator. One connection may
// join any number of interview rooms; every inbound frame names its interview.
func (h *Handlers) SessionWS(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(conn, id.UserID, id.Role)
	joined := make(map[string]*session.Room)
	defer func() {
		for interviewID, room := range joined {
			if left := room.Leave(client); left == 0 {
				h.hub.Retire(interviewID)
			}
		}
	}()

	h.log.Info("session connected", zap.String("user", id.UserID), zap.String("conn", client.ID))

	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		h.handleFrame(client, id, joined, frame)
	}
}

// handleFrame runs one inbound frame. The upgrade request's context expires
// with the HTTP middleware deadlines long before the session does, so every
// frame carries its own context instead.
func (h *Handlers) handleFrame(client *session.Client, id auth.Identity, joined map[string]*session.Room, frame models.WSFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	interviewID := interviewIDOf(frame.Data)
	if interviewID == "" {
		client.Send(errFrame("missing interviewId"))
		return
	}

	switch frame.Type {
	case "join-interview":
		// A refused Join means the room was retired between the lookup and
		// the join; the next lookup builds a fresh instance.
		for {
			room, err := h.hub.GetOrCreate(ctx, interviewID)
			if err != nil {
				client.Send(errFrame("interview not found"))
				return
			}
			if room.Join(client) {
				joined[interviewID] = room
				break
			}
		}

	case "leave-interview":
		room, ok := joined[interviewID]
		if !ok {
			return
		}
		delete(joined, interviewID)
		if left := room.Leave(client); left == 0 {
			h.hub.Retire(interviewID)
		}

	case "send-message":
		room, ok := joined[interviewID]
		if !ok {
			client.Send(errFrame("join the interview first"))
			return
		}
		var ev models.SendMessageEvent
		remarshal(frame.Data, &ev)
		if _, err := room.SendMessage(ctx, id, ev.Message, ev.MessageType); err != nil {
			h.log.Warn("failed to deliver message",
				zap.String("interview", interviewID), zap.Error(err))
			client.Send(errFrame(err.Error()))
		}

	case "code-change":
		h.relay(client, joined, interviewID, "code-update", frame.Data)

	case "cursor-position":
		payload := asMap(frame.Data)
		payload["userId"] = client.ID
		h.relay(client, joined, interviewID, "cursor-update", payload)

	case "offer", "answer", "ice-candidate":
		h.relay(client, joined, interviewID, frame.Type, frame.Data)

	case "end-interview":
		// Realtime end signal only: the authoritative status change goes
		// through the HTTP end operation. Delivered to everyone, sender
		// included, to keep all tabs consistent.
		room, ok := joined[interviewID]
		if !ok {
			return
		}
		var ev models.EndInterviewEvent
		remarshal(frame.Data, &ev)
		if ev.By == "" {
			ev.By = string(models.RoleInterviewer)
		}
		room.Broadcast(models.WSFrame{Type: "interview-ended", Data: models.InterviewEndedEvent{
			InterviewID: interviewID,
			By:          ev.By,
			Message:     "Interview ended from interview side",
		}}, session.ScopeAll, nil)

	default:
		client.Send(errFrame("unknown_type"))
	}
}

func (h *Handlers) relay(client *session.Client, joined map[string]*session.Room, interviewID, outType string, payload any) {
	room, ok := joined[interviewID]
	if !ok {
		return
	}
	room.Relay(outType, payload, client)
}

// interviewIDOf accepts either a bare interview ID string or an object with
// an interviewId field, matching what the original clients send.
func interviewIDOf(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["interviewId"].(string); ok {
			return s
		}
	}
	return ""
}

func asMap(data any) map[string]any {
	if m, ok := data.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func remarshal(in any, out any) {
	b, _ := json.Marshal(in)
	_ = json.Unmarshal(b, out)
}

func errFrame(msg string) models.WSFrame {
	return models.WSFrame{Type: "error", Data: msg}
}
