package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/pkg/chessdto"
)

type LobbySource interface {
	LobbyGames(ctx context.Context) ([]chessdto.LobbyGameResponse, error)
}

// LobbyPoller delivers the open lobby listing right away and then on every tick.
type LobbyPoller struct {
	poller
	src     LobbySource
	onGames func([]chessdto.LobbyGameResponse)
	onError func(error)
}

func NewLobbyPoller(src LobbySource, interval time.Duration, onGames func([]chessdto.LobbyGameResponse), onError func(error), logger *zap.Logger) *LobbyPoller {
	return &LobbyPoller{poller: newPoller(interval, true, logger), src: src, onGames: onGames, onError: onError}
}

func (p *LobbyPoller) Start(ctx context.Context) bool {
	return p.start(ctx, p.step)
}

func (p *LobbyPoller) Stop() { p.stop() }

func (p *LobbyPoller) Running() bool { return p.running() }

func (p *LobbyPoller) step(ctx context.Context) bool {
	games, err := p.src.LobbyGames(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.Warn("lobby_poll_error", zap.Error(err))
		if p.onError != nil {
			p.deliver(ctx, func() { p.onError(err) })
		}
		return false
	}
	if p.onGames != nil {
		p.deliver(ctx, func() { p.onGames(games) })
	}
	return false
}
