// Package dashboard polls matchmaking and lobby state while the user waits.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultInterval = 3 * time.Second

// poller runs step on a fixed interval until step reports done or stop is called.
type poller struct {
	interval  time.Duration
	immediate bool
	logger    *zap.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	done       chan struct{}
	inCallback atomic.Bool
}

func (p *poller) start(ctx context.Context, step func(ctx context.Context) bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		select {
		case <-p.done:
		default:
			return false
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		if p.immediate && step(ctx) {
			return
		}
		t := time.NewTicker(p.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if step(ctx) {
					return
				}
			}
		}
	}()
	return true
}

// stop cancels the loop and waits for it, unless called from a callback.
func (p *poller) stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if p.inCallback.Load() {
		return
	}
	<-done
}

func (p *poller) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// deliver runs fn unless the loop was cancelled.
func (p *poller) deliver(ctx context.Context, fn func()) {
	if fn == nil || ctx.Err() != nil {
		return
	}
	p.inCallback.Store(true)
	defer p.inCallback.Store(false)
	fn()
}

func newPoller(interval time.Duration, immediate bool, logger *zap.Logger) poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return poller{interval: interval, immediate: immediate, logger: logger}
}
