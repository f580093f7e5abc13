package chessdto

import "encoding/json"

const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameSend        = "send"
	FrameMessage     = "message"
	FrameError       = "error"
	FrameConnected   = "connected"

	ErrorCodeUnauthorized = "unauthorized"

	UserErrorsDestination = "/user/queue/errors"
)

// Frame is the JSON envelope exchanged over the push websocket.
type Frame struct {
	Type        string          `json:"type"`
	ID          string          `json:"id,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
	Code        string          `json:"code,omitempty"`
	Message     string          `json:"message,omitempty"`
}

func GameTopic(gameID string) string { return "/topic/game/" + gameID + "/updates" }

func GameMoveDestination(gameID string) string { return "/app/game/" + gameID + "/move" }
