package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("engine pool closed")

type PoolConfig struct {
	BinaryPath string
	Capacity   int
	Options    Options
	Logger     *zap.Logger
}

// Pool keeps up to Capacity warm engine sessions.
type Pool struct {
	capacity int
	logger   *zap.Logger
	factory  func(ctx context.Context) (*Session, error)

	mu     sync.Mutex
	total  int
	closed bool
	idle   chan *Session
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, errors.New("binary path required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("stockfish binary check: %w", err)
	}
	opt := cfg.Options
	if opt == (Options{}) {
		opt = DefaultOptions()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return newPool(cfg.Capacity, logger, func(ctx context.Context) (*Session, error) {
		return NewSession(ctx, cfg.BinaryPath, opt, logger)
	}), nil
}

func newPool(capacity int, logger *zap.Logger, factory func(ctx context.Context) (*Session, error)) *Pool {
	if capacity <= 0 {
		capacity = defaultCapacity()
	}
	return &Pool{capacity: capacity, logger: logger, factory: factory, idle: make(chan *Session, capacity)}
}

// Acquire returns an idle session, starts a new one below capacity, or waits.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	for {
		select {
		case s := <-p.idle:
			if err := s.EnsureReady(ctx); err != nil {
				p.discard(s)
				continue
			}
			return s, nil
		default:
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}
		if p.total < p.capacity {
			p.total++
			p.mu.Unlock()
			s, err := p.factory(ctx)
			if err != nil {
				p.decrement()
				return nil, err
			}
			return s, nil
		}
		p.mu.Unlock()

		select {
		case s := <-p.idle:
			if err := s.EnsureReady(ctx); err != nil {
				p.discard(s)
				continue
			}
			return s, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Release returns s to the pool; a session that failed is discarded.
func (p *Pool) Release(s *Session, err error) {
	if s == nil {
		return
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if err != nil || closed {
		p.discard(s)
		return
	}
	select {
	case p.idle <- s:
	default:
		p.discard(s)
	}
}

// Evaluate borrows a session for a single position.
func (p *Pool) Evaluate(ctx context.Context, fen string, depth int) (Evaluation, error) {
	s, err := p.Acquire(ctx)
	if err != nil {
		return Evaluation{}, err
	}
	ev, err := s.Evaluate(ctx, fen, depth)
	p.Release(s, err)
	return ev, err
}

func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case s := <-p.idle:
			if err := s.Close(); err != nil {
				errs = append(errs, err)
			}
			p.decrement()
		default:
			return errors.Join(errs...)
		}
	}
}

func (p *Pool) discard(s *Session) {
	if err := s.Close(); err != nil {
		p.logger.Debug("uci_session_close_error", zap.Error(err))
	}
	p.decrement()
}

func (p *Pool) decrement() {
	p.mu.Lock()
	if p.total > 0 {
		p.total--
	}
	p.mu.Unlock()
}

func defaultCapacity() int {
	return min(max(runtime.NumCPU()/2, 1), 2)
}
