package push

import (
	"context"
	"errors"
	"time"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateFailed       State = "failed"
	// StateUnauthorized is terminal for the current token.
	StateUnauthorized State = "unauthorized"
)

var (
	ErrNotConnected = errors.New("push not connected")
	ErrUnauthorized = errors.New("push unauthorized")
	ErrClosed       = errors.New("push client closed")
)

type StateCallback func(state State)

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// MoveSender delivers a UCI move for a game.
type MoveSender interface {
	SendMove(ctx context.Context, gameID, uci string) error
}

// HeaderProvider allows injecting handshake headers.
type HeaderProvider func() map[string]string

func backoffDuration(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return time.Duration(1<<uint(attempt-1)) * base
}
