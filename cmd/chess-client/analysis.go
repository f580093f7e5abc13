package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/chessonline-client/internal/analysis"
	"github.com/park285/chessonline-client/internal/archive"
	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/history"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

func (a *app) cmdAnalyze(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("analyze <gameId>")
	}
	v, err := analysis.Load(ctx, a.api, args[1], a.deps.AnalysisOptions(a.logger.Named("analysis"))...)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.viewer = v
	a.mu.Unlock()

	a.out.Say("analysis.pending", nil)
	res, err := v.Analyze(ctx)
	if err != nil {
		return err
	}
	a.out.Println(a.fmt.Analysis(res, v.Opening()))
	return nil
}

// showViewer prints the analysed position under the viewer's cursor.
func (a *app) showViewer(v *analysis.Viewer) {
	fen, entry := v.Position()
	h, cur := v.History(), v.Cursor()
	orientation := board.White
	if g := v.Game(); g.BlackPlayerID != "" && g.BlackPlayerID == a.currentUser() {
		orientation = board.Black
	}
	last := ""
	if entry != nil {
		last = entry.UCI
	}
	lines := []string{
		a.fmt.Board(fen, orientation, last),
		a.fmt.MoveList(h, cur),
		a.fmt.Text("analysis.position", map[string]any{"Index": cur.Index + 1, "Total": h.Len()}),
	}
	if m, err := v.Current(); err == nil {
		lines = append(lines, a.fmt.AnalysisLine(m))
	}
	a.out.Println(strings.Join(lines, "\n"))
}

// cmdPGN prints the archived PGN, archiving the game from the backend first if needed.
func (a *app) cmdPGN(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("pgn <gameId>")
	}
	owner, id := a.currentUser(), args[1]
	pgn, err := a.deps.Archive.PGN(ctx, owner, id)
	if errors.Is(err, archive.ErrNotFound) {
		g, gerr := a.api.GetGame(ctx, id)
		if gerr != nil {
			return gerr
		}
		if g.Status == chessdto.GameStatusActive {
			return fmt.Errorf("game %s is still in progress", id)
		}
		moves, merr := a.api.GetGameMoves(ctx, id)
		if merr != nil {
			return merr
		}
		h := history.Replay(board.StartFEN, moves)
		if serr := a.deps.Archive.SaveGame(ctx, archive.FromGame(owner, g, h)); serr != nil {
			return serr
		}
		pgn, err = a.deps.Archive.PGN(ctx, owner, id)
	}
	if err != nil {
		return err
	}
	a.out.Println(pgn)
	return nil
}

func (a *app) cmdRecord(ctx context.Context, _ []string) error {
	rec, err := a.deps.Archive.Record(ctx, a.currentUser())
	if err != nil {
		return err
	}
	a.out.Println(a.fmt.Record(rec))
	return nil
}
