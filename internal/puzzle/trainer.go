package puzzle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/localstore"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

type Source interface {
	GetRandomPuzzle(ctx context.Context, minRating, maxRating int) (*chessdto.PuzzleResponse, error)
}

// Trainer picks the next training puzzle, resuming an unsolved stored one
// unless a new puzzle is forced.
type Trainer struct {
	src       Source
	store     localstore.Store
	logger    *zap.Logger
	minRating int
	maxRating int
}

func NewTrainer(src Source, store localstore.Store, logger *zap.Logger) *Trainer {
	if store == nil {
		store = localstore.NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{src: src, store: store, logger: logger}
}

// SetRatingFilter bounds random puzzles; zero means no bound.
func (t *Trainer) SetRatingFilter(minRating, maxRating int) {
	t.minRating, t.maxRating = minRating, maxRating
}

func (t *Trainer) Next(ctx context.Context, forceNew bool) (*chessdto.PuzzleResponse, error) {
	if !forceNew {
		var stored chessdto.PuzzleResponse
		ok, err := localstore.GetJSON(ctx, t.store, localstore.KeyLastPuzzle, &stored)
		if err != nil {
			t.logger.Warn("puzzle_stored_read_error", zap.Error(err))
		}
		if ok && stored.ID != "" && !stored.AlreadySolved {
			t.logger.Debug("puzzle_resume", zap.String("puzzle_id", stored.ID))
			return &stored, nil
		}
	}
	p, err := t.src.GetRandomPuzzle(ctx, t.minRating, t.maxRating)
	if err != nil {
		return nil, fmt.Errorf("load random puzzle: %w", err)
	}
	if err := localstore.SetJSON(ctx, t.store, localstore.KeyLastPuzzle, p, 0); err != nil {
		t.logger.Warn("puzzle_stored_write_error", zap.Error(err))
	}
	return p, nil
}

// Skip abandons the stored puzzle and loads a new one.
func (t *Trainer) Skip(ctx context.Context) (*chessdto.PuzzleResponse, error) {
	if err := t.store.Delete(ctx, localstore.KeyLastPuzzle); err != nil {
		t.logger.Warn("puzzle_stored_clear_error", zap.Error(err))
	}
	return t.Next(ctx, true)
}

// MarkSolved stops the stored puzzle from being resumed.
func (t *Trainer) MarkSolved(ctx context.Context, puzzleID string) error {
	var stored chessdto.PuzzleResponse
	ok, err := localstore.GetJSON(ctx, t.store, localstore.KeyLastPuzzle, &stored)
	if err != nil || !ok || stored.ID != puzzleID {
		return err
	}
	stored.AlreadySolved = true
	return localstore.SetJSON(ctx, t.store, localstore.KeyLastPuzzle, stored, 0)
}
