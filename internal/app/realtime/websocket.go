package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
)

// TransportConfig controls the websocket endpoint.
type TransportConfig struct {
	// AllowedOrigins lists Origin header values accepted on upgrade. Empty
	// keeps the same-origin check; "*" accepts any origin.
	AllowedOrigins []string
}

// Handler upgrades the request to a websocket and serves one client until
// it disconnects. A signed-in user, when present, is bound to the client
// and must be the sender of every message it sends.
func (h *Hub) Handler(cfg TransportConfig) http.HandlerFunc {
	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			h.log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		userID := ""
		if u, ok := auth.CurrentUser(r); ok {
			userID = u.ID
		}
		c := h.Connect(userID)
		go h.writePump(conn, c)
		h.readPump(r.Context(), conn, c)
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func (h *Hub) readPump(ctx context.Context, conn *websocket.Conn, c *Client) {
	defer func() {
		h.Disconnect(c)
		conn.Close()
	}()
	// The request context ends when the handler returns, so detach.
	ctx = context.WithoutCancel(ctx)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
		h.handleFrame(ctx, c, data)
	}
}

// handleFrame dispatches one inbound frame. A panic is confined to the
// frame that caused it.
func (h *Hub) handleFrame(ctx context.Context, c *Client, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("relay frame panic",
				zap.String("client_id", c.ID),
				zap.String("panic", fmt.Sprint(rec)))
			h.Reject(c, msgSendFailed)
		}
	}()

	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		h.Reject(c, "malformed frame")
		return
	}
	switch f.Event {
	case EventJoinRoom, EventLeaveRoom:
		var room string
		if err := json.Unmarshal(f.Data, &room); err != nil {
			h.Reject(c, "room id must be a string")
			return
		}
		if f.Event == EventLeaveRoom {
			h.LeaveRoom(c, room)
			return
		}
		if err := h.JoinRoom(ctx, c, room); err != nil {
			if apperr.Status(err) >= 500 {
				h.log.Error("relay join failed", zap.String("client_id", c.ID), zap.Error(err))
			}
			h.Reject(c, apperr.Message(err, "Failed to join room"))
		}
	case EventSendMessage:
		var p SendPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			h.Reject(c, "malformed message")
			return
		}
		_, _ = h.SendMessage(ctx, c, p)
	default:
		h.Reject(c, "unknown event "+f.Event)
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case frame := <-c.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
