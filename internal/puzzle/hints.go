package puzzle

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/chessonline-client/internal/localstore"
)

// HintStore remembers which puzzles have had their single hint consumed.
type HintStore interface {
	HintUsed(ctx context.Context, puzzleID string) (bool, error)
	MarkHintUsed(ctx context.Context, puzzleID string) error
}

// StoreHints keeps one marker key per puzzle id, so a revisited puzzle stays
// spent however many other puzzles were hinted in between.
type StoreHints struct {
	store localstore.Store
}

func NewStoreHints(store localstore.Store) *StoreHints {
	if store == nil {
		store = localstore.NewMemoryStore()
	}
	return &StoreHints{store: store}
}

func (h *StoreHints) HintUsed(ctx context.Context, puzzleID string) (bool, error) {
	if strings.TrimSpace(puzzleID) == "" {
		return false, nil
	}
	_, err := h.store.Get(ctx, localstore.HintUsedKey(puzzleID))
	if errors.Is(err, localstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (h *StoreHints) MarkHintUsed(ctx context.Context, puzzleID string) error {
	if strings.TrimSpace(puzzleID) == "" {
		return errors.New("puzzle id required")
	}
	return h.store.Set(ctx, localstore.HintUsedKey(puzzleID), "1", 0)
}
