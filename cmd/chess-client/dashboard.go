package main

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/dashboard"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

const defaultGameMode = "standard"

func (a *app) cmdQueue(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usage("queue <mode> <timeControl> [white|black|random]")
	}
	req := chessdto.MatchmakingJoinRequest{GameMode: args[1], TimeControl: args[2], IsRated: true}
	if len(args) >= 4 {
		req.PreferredColor = strings.ToLower(args[3])
	}
	resp, err := a.api.JoinMatchmaking(ctx, req)
	if err != nil {
		return err
	}
	if resp.Matched && resp.GameID != "" {
		a.out.Say("dashboard.matched", map[string]any{"GameID": resp.GameID})
		return a.openGame(ctx, resp.GameID, "")
	}
	a.out.Say("dashboard.queued", map[string]any{"TimeControl": req.TimeControl})

	bg := context.WithoutCancel(ctx)
	p := dashboard.NewMatchmakingPoller(a.api, a.deps.Config.PollInterval, dashboard.MatchmakingCallbacks{
		OnMatched: func(gameID string) {
			a.out.Say("dashboard.matched", map[string]any{"GameID": gameID})
			if err := a.openGame(bg, gameID, ""); err != nil {
				a.report(err)
			}
		},
		OnLeftQueue: func() { a.out.Say("dashboard.left_queue", nil) },
		OnError:     func(err error) { a.logger.Debug("matchmaking_poll_failed", zap.Error(err)) },
	}, a.logger.Named("matchmaking"))

	a.mu.Lock()
	prev := a.mm
	a.mm = p
	a.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
	p.Start(ctx)
	return nil
}

func (a *app) cmdUnqueue(ctx context.Context, _ []string) error {
	a.mu.Lock()
	p := a.mm
	a.mm = nil
	a.mu.Unlock()
	if p != nil {
		p.Stop()
	}
	if err := a.api.LeaveMatchmaking(ctx); err != nil {
		return err
	}
	a.out.Say("dashboard.left_queue", nil)
	return nil
}

func (a *app) cmdLobby(ctx context.Context, args []string) error {
	const u = "lobby [watch|stop|create <timeControl> [color]|join <id>|cancel <id>]"
	if len(args) == 1 {
		games, err := a.api.LobbyGames(ctx)
		if err != nil {
			return err
		}
		a.out.Println(a.fmt.Lobby(games))
		return nil
	}
	switch strings.ToLower(args[1]) {
	case "watch":
		p := dashboard.NewLobbyPoller(a.api, a.deps.Config.PollInterval,
			func(games []chessdto.LobbyGameResponse) { a.out.Println(a.fmt.Lobby(games)) },
			a.out.Error, a.logger.Named("lobby"))
		a.mu.Lock()
		prev := a.lobby
		a.lobby = p
		a.mu.Unlock()
		if prev != nil {
			prev.Stop()
		}
		p.Start(ctx)
		return nil
	case "stop":
		a.mu.Lock()
		p := a.lobby
		a.lobby = nil
		a.mu.Unlock()
		if p != nil {
			p.Stop()
		}
		return nil
	case "create":
		if len(args) < 3 {
			return usage(u)
		}
		req := chessdto.CreateLobbyGameRequest{GameMode: defaultGameMode, TimeControl: args[2], PreferredColor: "random", Rated: true}
		if len(args) >= 4 {
			req.PreferredColor = strings.ToLower(args[3])
		}
		g, err := a.api.CreateLobbyGame(ctx, req)
		if err != nil {
			return err
		}
		a.out.Say("dashboard.lobby_created", map[string]any{"ID": g.ID})
		return nil
	case "join":
		if len(args) < 3 {
			return usage(u)
		}
		resp, err := a.api.JoinLobbyGame(ctx, args[2])
		if err != nil {
			return err
		}
		return a.openGame(ctx, resp.GameID, "")
	case "cancel":
		if len(args) < 3 {
			return usage(u)
		}
		if err := a.api.CancelLobbyGame(ctx, args[2]); err != nil {
			return err
		}
		a.out.Say("social.done", nil)
		return nil
	}
	return usage(u)
}

func (a *app) cmdInvite(ctx context.Context, args []string) error {
	const u = "invite create <timeControl> [color] | invite show <code> | invite accept <code>"
	if len(args) < 3 {
		return usage(u)
	}
	switch strings.ToLower(args[1]) {
	case "create":
		req := chessdto.CreateInviteRequest{GameMode: defaultGameMode, TimeControl: args[2]}
		if len(args) >= 4 {
			req.PreferredColor = strings.ToLower(args[3])
		}
		inv, err := a.api.CreateInvite(ctx, req)
		if err != nil {
			return err
		}
		a.out.Say("dashboard.invite_created", map[string]any{"Code": inv.InviteCode()})
		return nil
	case "show":
		inv, err := a.api.GetInvite(ctx, args[2])
		if err != nil {
			return err
		}
		a.out.Println(a.fmt.Invite(inv))
		return nil
	case "accept":
		g, err := a.api.AcceptInvite(ctx, args[2])
		if err != nil {
			return err
		}
		return a.openGame(ctx, g.ID, "")
	}
	return usage(u)
}
