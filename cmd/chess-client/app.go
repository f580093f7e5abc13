package main

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/analysis"
	"github.com/park285/chessonline-client/internal/apiclient"
	"github.com/park285/chessonline-client/internal/clientbuilder"
	"github.com/park285/chessonline-client/internal/dashboard"
	"github.com/park285/chessonline-client/internal/game"
	"github.com/park285/chessonline-client/internal/presenter"
	"github.com/park285/chessonline-client/internal/push"
	"github.com/park285/chessonline-client/internal/puzzle"
)

// app holds the REPL session: the signed-in user and whichever game, puzzle
// or analysis is currently open.
type app struct {
	deps   *clientbuilder.Deps
	api    *apiclient.Client
	out    *presenter.Presenter
	fmt    *presenter.Formatter
	logger *zap.Logger

	mu       sync.Mutex
	userID   string
	game     *game.Reconciler
	botLevel string
	puzzle   *puzzle.Reconciler
	trainer  *puzzle.Trainer
	viewer   *analysis.Viewer
	mm       *dashboard.MatchmakingPoller
	lobby    *dashboard.LobbyPoller
}

type handlerFunc func(ctx context.Context, args []string) error

func newApp(deps *clientbuilder.Deps, logger *zap.Logger) *app {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{
		deps:   deps,
		api:    deps.API,
		out:    deps.Presenter,
		fmt:    deps.Presenter.Formatter(),
		logger: logger,
	}
	a.trainer = puzzle.NewTrainer(deps.API, deps.Store, logger.Named("trainer"))
	deps.Push.OnStateChange(a.onPushState)
	deps.API.OnLogout(func() {
		a.mu.Lock()
		a.userID = ""
		a.mu.Unlock()
	})
	return a
}

func (a *app) commands() map[string]handlerFunc {
	return map[string]handlerFunc{
		"help":     a.cmdHelp,
		"login":    a.cmdLogin,
		"register": a.cmdRegister,
		"logout":   a.cmdLogout,
		"me":       a.cmdMe,
		"games":    a.cmdGames,
		"finished": a.cmdFinished,
		"play":     a.cmdPlay,
		"leave":    a.cmdLeave,
		"move":     a.cmdMove,
		"promote":  a.cmdPromote,
		"start":    a.cmdNavigate,
		"prev":     a.cmdNavigate,
		"next":     a.cmdNavigate,
		"latest":   a.cmdNavigate,
		"goto":     a.cmdNavigate,
		"resign":   a.cmdResign,
		"draw":     a.cmdDraw,
		"png":      a.cmdPNG,
		"queue":    a.cmdQueue,
		"unqueue":  a.cmdUnqueue,
		"lobby":    a.cmdLobby,
		"invite":   a.cmdInvite,
		"bots":     a.cmdBots,
		"bot":      a.cmdBot,
		"puzzle":   a.cmdPuzzle,
		"p":        a.cmdPuzzleMove,
		"hint":     a.cmdHint,
		"analyze":  a.cmdAnalyze,
		"pgn":      a.cmdPGN,
		"record":   a.cmdRecord,
		"friends":  a.cmdFriends,
		"profile":  a.cmdProfile,
		"rating":   a.cmdRating,
		"lessons":  a.cmdLessons,
	}
}

// commands usable without a token
var public = map[string]bool{"help": true, "login": true, "register": true}

// handle runs one input line and reports whether the REPL should exit.
func (a *app) handle(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "quit", "exit":
		a.out.Say("common.bye", nil)
		return true
	}
	h, ok := a.commands()[cmd]
	if !ok && isUCI(cmd) {
		h, ok, cmd, args = a.cmdMove, true, "move", parts
	}
	if !ok {
		a.out.Say("common.unknown_command", map[string]any{"Command": cmd})
		return false
	}
	if !public[cmd] && !a.api.IsAuthenticated() {
		a.out.Say("auth.required", nil)
		return false
	}
	if err := h(ctx, withCommand(cmd, args)); err != nil {
		a.report(err)
	}
	return false
}

// withCommand keeps the command name in front of args for handlers shared by several verbs.
func withCommand(cmd string, args []string) []string {
	return append([]string{cmd}, args...)
}

func (a *app) report(err error) {
	switch {
	case errors.Is(err, errUsage):
		var u usageError
		if errors.As(err, &u) {
			a.out.Say("common.usage", map[string]any{"Usage": u.usage})
		}
	case errors.Is(err, apiclient.ErrUnauthorized):
		a.out.Say("auth.expired", nil)
	case errors.Is(err, game.ErrNotYourTurn):
		a.out.Say("game.not_your_turn", nil)
	case errors.Is(err, puzzle.ErrHintUsed):
		a.out.Say("puzzle.hint_used", nil)
	case errors.Is(err, errNoGame):
		a.out.Say("common.no_game", nil)
	case errors.Is(err, errNoPuzzle):
		a.out.Say("common.no_puzzle", nil)
	default:
		a.out.Error(err)
	}
}

var (
	errUsage    = errors.New("usage")
	errNoGame   = errors.New("no game open")
	errNoPuzzle = errors.New("no puzzle open")
)

type usageError struct{ usage string }

func (u usageError) Error() string { return "usage: " + u.usage }
func (u usageError) Is(target error) bool {
	return target == errUsage
}

func usage(u string) error { return usageError{usage: u} }

// bootstrap signs in from configured credentials when no token is stored and
// opens the push connection.
func (a *app) bootstrap(ctx context.Context) {
	cfg := a.deps.Config
	if !a.api.IsAuthenticated() && cfg.Email != "" && cfg.Password != "" {
		if err := a.cmdLogin(ctx, []string{"login", cfg.Email, cfg.Password}); err != nil {
			a.report(err)
		}
		return
	}
	if !a.api.IsAuthenticated() {
		a.out.Say("help.text", nil)
		return
	}
	if err := a.cmdMe(ctx, []string{"me"}); err != nil {
		a.report(err)
		return
	}
	a.connectPush(ctx)
}

func (a *app) connectPush(ctx context.Context) {
	a.deps.Push.SetToken(a.api.Token())
	if err := a.deps.Push.Connect(ctx); err != nil {
		// the push client keeps reconnecting on its own unless unauthorized
		a.logger.Warn("push_connect_failed", zap.Error(err))
	}
}

func (a *app) onPushState(st push.State) {
	a.out.Println(a.fmt.Connection(st))
	if g := a.currentGame(); g != nil {
		g.ConnectionChanged()
	}
}

func (a *app) currentUser() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}

func (a *app) currentGame() *game.Reconciler {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.game
}

func (a *app) shutdown(ctx context.Context) {
	a.mu.Lock()
	g, p, mm, lobby := a.game, a.puzzle, a.mm, a.lobby
	a.game, a.puzzle, a.mm, a.lobby = nil, nil, nil, nil
	a.mu.Unlock()
	if mm != nil {
		mm.Stop()
	}
	if lobby != nil {
		lobby.Stop()
	}
	if p != nil {
		p.Close()
	}
	if g != nil {
		if err := g.Close(ctx); err != nil {
			a.logger.Warn("game_close_error", zap.Error(err))
		}
	}
}

func (a *app) cmdHelp(context.Context, []string) error {
	a.out.Say("help.text", nil)
	return nil
}

func isUCI(s string) bool {
	if len(s) != 4 && len(s) != 5 {
		return false
	}
	if s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' || s[2] < 'a' || s[2] > 'h' || s[3] < '1' || s[3] > '8' {
		return false
	}
	return len(s) == 4 || strings.ContainsRune("qrbn", rune(s[4]))
}
