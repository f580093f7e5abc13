package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/pkg/chessdto"
)

type MatchmakingSource interface {
	MatchmakingStatus(ctx context.Context) (*chessdto.MatchmakingStatusResponse, error)
}

type MatchmakingCallbacks struct {
	OnMatched   func(gameID string)
	OnLeftQueue func()
	OnError     func(error)
}

// MatchmakingPoller checks the queue until a match is found or the user is no
// longer queued. Poll errors are reported and polling continues.
type MatchmakingPoller struct {
	poller
	src MatchmakingSource
	cb  MatchmakingCallbacks
}

func NewMatchmakingPoller(src MatchmakingSource, interval time.Duration, cb MatchmakingCallbacks, logger *zap.Logger) *MatchmakingPoller {
	return &MatchmakingPoller{poller: newPoller(interval, false, logger), src: src, cb: cb}
}

// Start returns false when the poller is already running.
func (p *MatchmakingPoller) Start(ctx context.Context) bool {
	return p.start(ctx, p.step)
}

func (p *MatchmakingPoller) Stop() { p.stop() }

func (p *MatchmakingPoller) Running() bool { return p.running() }

func (p *MatchmakingPoller) step(ctx context.Context) bool {
	st, err := p.src.MatchmakingStatus(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.Warn("matchmaking_poll_error", zap.Error(err))
		if p.cb.OnError != nil {
			p.deliver(ctx, func() { p.cb.OnError(err) })
		}
		return false
	}
	switch {
	case st.Matched && st.GameID != "":
		p.logger.Info("matchmaking_matched", zap.String("game_id", st.GameID))
		if p.cb.OnMatched != nil {
			p.deliver(ctx, func() { p.cb.OnMatched(st.GameID) })
		}
		return true
	case !st.Queued:
		p.logger.Debug("matchmaking_left_queue")
		if p.cb.OnLeftQueue != nil {
			p.deliver(ctx, p.cb.OnLeftQueue)
		}
		return true
	}
	return false
}
