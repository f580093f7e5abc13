package push

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/pkg/chessdto"
)

// RESTMover is the REST half of move delivery.
type RESTMover interface {
	MakeMove(ctx context.Context, gameID, uci string) (*chessdto.GameResponse, error)
}

type transportMode string

const (
	transportHTTP transportMode = "http"
	transportWS   transportMode = "ws"
	transportAuto transportMode = "auto"
)

// NewMoveSender picks a transport by mode. In auto mode the socket is preferred
// when connected; on a socket failure the move is posted over REST once.
func NewMoveSender(mode string, rest RESTMover, ws *Client, logger *zap.Logger) MoveSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch transportMode(mode) {
	case transportWS:
		return &wsSender{ws: ws}
	case transportAuto:
		return &autoSender{ws: &wsSender{ws: ws}, http: &httpSender{rest: rest}, logger: logger}
	default:
		return &httpSender{rest: rest}
	}
}

type httpSender struct{ rest RESTMover }

func (h *httpSender) SendMove(ctx context.Context, gameID, uci string) error {
	if h == nil || h.rest == nil {
		return errors.New("http move sender not available")
	}
	_, err := h.rest.MakeMove(ctx, gameID, uci)
	return err
}

type wsSender struct{ ws *Client }

func (w *wsSender) SendMove(ctx context.Context, gameID, uci string) error {
	if w == nil || w.ws == nil {
		return errors.New("ws move sender not available")
	}
	return w.ws.SendMove(ctx, gameID, uci)
}

type autoSender struct {
	ws     *wsSender
	http   *httpSender
	logger *zap.Logger
}

func (a *autoSender) SendMove(ctx context.Context, gameID, uci string) error {
	if a.ws != nil && a.ws.ws != nil && a.ws.ws.IsConnected() {
		err := a.ws.SendMove(ctx, gameID, uci)
		if err == nil {
			return nil
		}
		a.logger.Warn("move_sender_fallback", zap.String("game_id", gameID), zap.Error(err))
	}
	return a.http.SendMove(ctx, gameID, uci)
}
