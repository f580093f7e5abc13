package main

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/puzzle"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

// puzzleReconciler returns the session's puzzle reconciler, creating it on first use.
func (a *app) puzzleReconciler() *puzzle.Reconciler {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.puzzle != nil {
		return a.puzzle
	}
	cfg := a.deps.Config
	a.puzzle = puzzle.NewReconciler(a.api, puzzle.NewStoreHints(a.deps.Store),
		puzzle.WithDelays(cfg.PuzzleFirstMoveDelay, cfg.PuzzleReplyDelay, cfg.PuzzleWrongReset),
		puzzle.WithLogger(a.logger.Named("puzzle")),
		puzzle.WithCallbacks(puzzle.Callbacks{
			OnChange: func(s puzzle.Session) {
				// redraw once the board is waiting for the solver
				if s.Status == puzzle.StatusPlaying && !s.OpponentMoving && !s.Checking {
					a.out.Puzzle(s)
				}
			},
			OnCorrect: func(_ puzzle.Session, next string) {
				a.out.Println(a.fmt.PuzzleCorrect(next))
			},
			OnWrong: func(puzzle.Session) { a.out.Say("puzzle.wrong", nil) },
			OnComplete: func(s puzzle.Session) {
				a.out.Puzzle(s)
				if err := a.trainer.MarkSolved(context.Background(), s.PuzzleID); err != nil {
					a.logger.Warn("puzzle_mark_solved_error", zap.Error(err))
				}
			},
			OnRatingChange: func(rating, delta int) {
				a.out.Println(a.fmt.PuzzleRating(rating, delta))
			},
			OnError: a.out.Error,
		}),
	)
	return a.puzzle
}

func (a *app) cmdPuzzle(ctx context.Context, args []string) error {
	var (
		p   *chessdto.PuzzleResponse
		err error
	)
	sub := ""
	if len(args) >= 2 {
		sub = args[1]
	}
	switch strings.ToLower(sub) {
	case "":
		p, err = a.trainer.Next(ctx, false)
	case "random":
		p, err = a.trainer.Next(ctx, true)
	case "skip":
		p, err = a.trainer.Skip(ctx)
	case "daily":
		p, err = a.api.GetDailyPuzzle(ctx)
	default:
		p, err = a.api.GetPuzzle(ctx, sub)
	}
	if err != nil {
		return err
	}
	r := a.puzzleReconciler()
	if err := r.Initialize(ctx, *p); err != nil {
		return err
	}
	if s, ok := r.Session(); ok {
		a.out.Puzzle(s)
	}
	return nil
}

func (a *app) requirePuzzle() (*puzzle.Reconciler, error) {
	a.mu.Lock()
	r := a.puzzle
	a.mu.Unlock()
	if r == nil {
		return nil, errNoPuzzle
	}
	if _, ok := r.Session(); !ok {
		return nil, errNoPuzzle
	}
	return r, nil
}

func (a *app) cmdPuzzleMove(ctx context.Context, args []string) error {
	if len(args) < 2 || !isUCI(strings.ToLower(args[1])) {
		return usage("p <uci>")
	}
	r, err := a.requirePuzzle()
	if err != nil {
		return err
	}
	out, err := r.SubmitUCI(ctx, args[1])
	if err != nil {
		if errors.Is(err, puzzle.ErrOpponentMoving) || errors.Is(err, puzzle.ErrBusy) {
			a.out.Say("puzzle.opponent_moving", nil)
			return nil
		}
		return err
	}
	if out == puzzle.OutcomeIgnored {
		a.out.Say("puzzle.ignored", nil)
	}
	return nil
}

func (a *app) cmdHint(ctx context.Context, _ []string) error {
	r, err := a.requirePuzzle()
	if err != nil {
		return err
	}
	if _, err := r.Hint(ctx); err != nil {
		return err
	}
	// the hinted move is the latest one until the reply lands
	if s, ok := r.Session(); ok && len(s.Moves) > 0 {
		if last := s.Moves[len(s.Moves)-1]; len(last) >= 2 {
			a.out.Say("puzzle.hint", map[string]any{"From": last[:2]})
		}
	}
	return nil
}
