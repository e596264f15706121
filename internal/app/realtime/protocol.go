package realtime

import (
	"encoding/json"

	"github.com/dalemusser/cmsdesk/internal/domain/models"
)

// Event names on the wire.
const (
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventSendMessage = "send-message"
	EventNewMessage  = "new-message"
	EventError       = "error"
)

// Frame is the envelope of every websocket text frame in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendPayload is the data of a send-message frame.
type SendPayload struct {
	Content     string  `json:"content"`
	SenderID    string  `json:"senderId"`
	GroupChatID *string `json:"groupChatId,omitempty"`
	ReceiverID  *string `json:"receiverId,omitempty"`
}

// ErrorPayload is the data of an error frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

func newMessageFrame(v models.MessageView) ([]byte, error) {
	return encodeFrame(EventNewMessage, v)
}

func errorFrame(msg string) []byte {
	b, _ := encodeFrame(EventError, ErrorPayload{Message: msg})
	return b
}
