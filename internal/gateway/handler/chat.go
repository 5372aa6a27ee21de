package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"codesight/internal/modes"
	"codesight/internal/relevance"
	"codesight/internal/session"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type chatWSOutbound struct {
	Type    string   `json:"type"`
	RunID   string   `json:"run_id,omitempty"`
	Text    string   `json:"text,omitempty"`
	Files   []string `json:"files,omitempty"`
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message,omitempty"`
}

// handleChatWS runs a chat conversation over a websocket. Each inbound
// send goes through the same pipeline as /api/analyze in chat mode, so
// answers carry the selected files and land in the artifact archive.
func (h *Handler) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	if _, err := h.Sessions.Get(r.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
		log.Printf("chat ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan chatWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		msgType := strings.ToLower(strings.TrimSpace(in.Type))
		if msgType == "" {
			pushChatWS(writeCh, chatWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "type is required",
			})
			continue
		}

		switch msgType {
		case "ping":
			pushChatWS(writeCh, chatWSOutbound{Type: "pong"})
		case "send":
			text := strings.TrimSpace(in.Text)
			if text == "" {
				pushChatWS(writeCh, chatWSOutbound{
					Type:    "error",
					Code:    "invalid_argument",
					Message: "text is required",
				})
				continue
			}
			// The model round trip can outlast the ping interval, so
			// answer from a goroutine and keep the read loop on pongs.
			go func() {
				res, err := h.runAnalysis(ctx, analyzeRequest{SessionID: sessionID, Description: text}, modes.ModeChat, nil)
				if err != nil {
					code := "internal"
					switch {
					case errors.Is(err, relevance.ErrNoRelevantFiles):
						code = "no_relevant_files"
					case errors.Is(err, errModelQuery):
						code = "model_error"
					case errors.Is(err, session.ErrNotFound):
						code = "not_found"
					}
					pushChatWS(writeCh, chatWSOutbound{Type: "error", Code: code, Message: err.Error()})
					return
				}
				pushChatWS(writeCh, chatWSOutbound{
					Type:  "answer",
					RunID: res.RunID,
					Text:  res.Answer,
					Files: res.Files,
				})
			}()
		default:
			pushChatWS(writeCh, chatWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + msgType,
			})
		}
	}
}

// pushChatWS never blocks the caller; when the buffer is full the oldest
// queued message is dropped in favor of the new one.
func pushChatWS(writeCh chan chatWSOutbound, out chatWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
