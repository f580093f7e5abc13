package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/game"
	"github.com/park285/chessonline-client/internal/render"
)

func (a *app) cmdGames(ctx context.Context, _ []string) error {
	games, err := a.api.MyActiveGames(ctx)
	if err != nil {
		return err
	}
	a.out.Println(a.fmt.GameList("game.active_list", games))
	return nil
}

func (a *app) cmdFinished(ctx context.Context, _ []string) error {
	games, err := a.api.MyFinishedGames(ctx)
	if err != nil {
		return err
	}
	a.out.Println(a.fmt.GameList("game.finished_list", games))
	return nil
}

func (a *app) cmdPlay(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("play <gameId>")
	}
	return a.openGame(ctx, args[1], "")
}

// openGame replaces the current game view with gameID and subscribes to its updates.
func (a *app) openGame(ctx context.Context, gameID, botLevel string) error {
	cfg := a.deps.Config
	r := game.NewReconciler(gameID, a.currentUser(), a.api, a.deps.Push, a.deps.Sender,
		game.WithLogger(a.logger.Named("game")),
		game.WithTickInterval(cfg.ClockTick),
		game.WithArchive(a.deps.Archive),
	)
	r.OnEvent(a.onGameEvent)

	a.mu.Lock()
	prev := a.game
	a.game, a.botLevel = r, botLevel
	a.mu.Unlock()
	if prev != nil {
		_ = prev.Close(ctx)
	}

	if err := r.Load(ctx); err != nil {
		return fmt.Errorf("load game %s: %w", gameID, err)
	}
	if err := r.Subscribe(ctx); err != nil {
		// the view still works from REST; ConnectionChanged subscribes again once push is up
		a.logger.Warn("game_subscribe_failed", zap.String("game_id", gameID), zap.Error(err))
	}
	v := r.View()
	a.out.Game(v)
	if botLevel != "" && v.Snapshot.Active() && !v.MyTurn {
		go a.botReply(context.WithoutCancel(ctx), r, botLevel)
	}
	return nil
}

func (a *app) onGameEvent(ev game.Event) {
	switch ev.Kind {
	case game.EventClock, game.EventPromotionRequired:
		// clocks redraw with the next state; promotion is reported by the move command
		return
	}
	a.out.GameEvent(ev)
}

func (a *app) requireGame() (*game.Reconciler, error) {
	if g := a.currentGame(); g != nil {
		return g, nil
	}
	return nil, errNoGame
}

func (a *app) cmdLeave(ctx context.Context, _ []string) error {
	a.mu.Lock()
	g := a.game
	a.game, a.botLevel = nil, ""
	a.mu.Unlock()
	if g == nil {
		return errNoGame
	}
	if err := g.Close(ctx); err != nil {
		return err
	}
	a.out.Say("game.left", map[string]any{"ID": g.GameID()})
	return nil
}

func (a *app) cmdMove(ctx context.Context, args []string) error {
	if len(args) < 2 || !isUCI(strings.ToLower(args[1])) {
		return usage("move <uci>, e.g. e2e4 or e7e8q")
	}
	g, err := a.requireGame()
	if err != nil {
		return err
	}
	res, err := g.AttemptUCI(ctx, args[1])
	return a.afterMove(ctx, g, args[1], res, err)
}

func (a *app) cmdPromote(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("promote <q|r|b|n>")
	}
	g, err := a.requireGame()
	if err != nil {
		return err
	}
	move := ""
	if p := g.View().PendingPromotion; p != nil {
		move = p.From + p.To + strings.ToLower(args[1])
	}
	res, err := g.Promote(ctx, args[1])
	return a.afterMove(ctx, g, move, res, err)
}

func (a *app) afterMove(ctx context.Context, g *game.Reconciler, move string, res game.MoveResult, err error) error {
	if err != nil {
		var me *game.MoveError
		if errors.As(err, &me) {
			a.out.Say("game.rejected", map[string]any{"Move": move, "Reason": me.Error()})
			return nil
		}
		return err
	}
	switch res {
	case game.MoveNeedsPromotion:
		v := g.View()
		if v.PendingPromotion != nil {
			a.out.Say("game.promotion", map[string]any{"To": v.PendingPromotion.To})
		}
	case game.MoveApplied:
		a.mu.Lock()
		level := a.botLevel
		a.mu.Unlock()
		if level != "" {
			go a.botReply(context.WithoutCancel(ctx), g, level)
		}
	}
	return nil
}

// botReply asks the backend bot to move and reloads when push is down.
func (a *app) botReply(ctx context.Context, g *game.Reconciler, level string) {
	resp, err := a.api.BotMove(ctx, g.GameID(), level)
	if err != nil {
		a.logger.Warn("bot_move_error", zap.String("game_id", g.GameID()), zap.Error(err))
		a.out.Error(err)
		return
	}
	a.logger.Debug("bot_move", zap.String("game_id", g.GameID()), zap.String("move", resp.Move))
	if !a.deps.Push.IsConnected() {
		if err := g.Load(ctx); err != nil && !errors.Is(err, game.ErrClosed) {
			a.out.Error(err)
		}
	}
}

func (a *app) cmdNavigate(_ context.Context, args []string) error {
	var idx int
	if args[0] == "goto" {
		if len(args) < 2 {
			return usage("goto <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return usage("goto <n>")
		}
		// users count moves from 1; 0 is the starting position
		idx = n - 1
	}

	if g := a.currentGame(); g != nil {
		var v game.View
		switch args[0] {
		case "start":
			v = g.GoToStart()
		case "prev":
			v = g.GoToPrevious()
		case "next":
			v = g.GoToNext()
		case "latest":
			v = g.GoToLatest()
		default:
			v = g.GoToMove(idx)
		}
		a.out.Game(v)
		return nil
	}

	a.mu.Lock()
	viewer := a.viewer
	a.mu.Unlock()
	if viewer == nil {
		return errNoGame
	}
	switch args[0] {
	case "start":
		viewer.GoToStart()
	case "prev":
		viewer.GoToPrevious()
	case "next":
		viewer.GoToNext()
	case "latest":
		viewer.GoToLatest()
	default:
		viewer.GoToMove(idx)
	}
	a.showViewer(viewer)
	return nil
}

func (a *app) cmdResign(ctx context.Context, _ []string) error {
	g, err := a.requireGame()
	if err != nil {
		return err
	}
	return g.Resign(ctx)
}

func (a *app) cmdDraw(ctx context.Context, args []string) error {
	const u = "draw offer|accept|decline"
	if len(args) < 2 {
		return usage(u)
	}
	g, err := a.requireGame()
	if err != nil {
		return err
	}
	switch strings.ToLower(args[1]) {
	case "offer":
		return g.OfferDraw(ctx)
	case "accept":
		return g.RespondDraw(ctx, true)
	case "decline":
		return g.RespondDraw(ctx, false)
	}
	return usage(u)
}

func (a *app) cmdPNG(ctx context.Context, _ []string) error {
	var (
		path string
		err  error
	)
	a.mu.Lock()
	g, p := a.game, a.puzzle
	a.mu.Unlock()
	switch {
	case g != nil:
		path, err = a.out.SaveGameBoard(ctx, g.View())
	case p != nil:
		s, ok := p.Session()
		if !ok || s.Board == nil {
			return errNoPuzzle
		}
		opts := render.Options{Orientation: s.PlayerColor, Header: "Puzzle " + s.PuzzleID}
		if n := len(s.Moves); n > 0 && len(s.Moves[n-1]) >= 4 {
			last := s.Moves[n-1]
			opts.LastMove = &render.Highlight{From: last[:2], To: last[2:4]}
		}
		path, err = a.out.SaveBoard(ctx, "puzzle-"+s.PuzzleID, s.Board, opts)
	default:
		return errNoGame
	}
	if err != nil {
		return err
	}
	a.out.Say("common.saved_png", map[string]any{"Path": path})
	return nil
}

func (a *app) cmdBots(ctx context.Context, _ []string) error {
	levels, err := a.api.BotDifficulties(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(levels))
	for _, l := range levels {
		names = append(names, l.Name)
	}
	a.out.Say("dashboard.bot_levels", map[string]any{"Levels": strings.Join(names, ", ")})
	return nil
}

func (a *app) cmdBot(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("bot <difficulty> [white|black|random] [timeControl]")
	}
	level := args[1]
	color, tc := "random", ""
	if len(args) >= 3 {
		color = strings.ToLower(args[2])
	}
	if len(args) >= 4 {
		tc = args[3]
	}
	g, err := a.api.CreateBotGame(ctx, level, color, tc)
	if err != nil {
		return err
	}
	a.out.Say("dashboard.bot_started", map[string]any{"ID": g.ID, "Difficulty": level})
	return a.openGame(ctx, g.ID, level)
}
