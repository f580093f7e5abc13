package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/park285/chessonline-client/pkg/chessdto"
)

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usage("login <email> <password>")
	}
	auth, err := a.api.Login(ctx, args[1], args[2])
	if err != nil {
		return err
	}
	a.signedIn(ctx, auth, "auth.login_ok")
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return usage("register <username> <email> <password>")
	}
	auth, err := a.api.Register(ctx, chessdto.RegisterRequest{Username: args[1], Email: args[2], Password: args[3]})
	if err != nil {
		return err
	}
	a.signedIn(ctx, auth, "auth.register_ok")
	return nil
}

func (a *app) signedIn(ctx context.Context, auth *chessdto.AuthResponse, key string) {
	name := auth.Email
	if auth.User != nil && auth.User.Username != "" {
		name = auth.User.Username
	}
	a.mu.Lock()
	a.userID = auth.ResolvedUserID()
	a.mu.Unlock()
	if a.currentUser() == "" {
		// some deployments return only the token
		if me, err := a.api.Me(ctx); err == nil {
			a.mu.Lock()
			a.userID = me.ID
			a.mu.Unlock()
			name = me.Username
		}
	}
	a.out.Say(key, map[string]any{"Username": name})
	a.connectPush(ctx)
}

func (a *app) cmdLogout(ctx context.Context, _ []string) error {
	a.shutdown(ctx)
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	a.out.Say("auth.logout", nil)
	return nil
}

func (a *app) cmdMe(ctx context.Context, _ []string) error {
	me, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.userID = me.ID
	a.mu.Unlock()
	a.out.Say("auth.me", map[string]any{"Username": me.Username, "Email": me.Email, "Rating": me.Rating})
	return nil
}

func (a *app) cmdProfile(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("profile <username>")
	}
	u, err := a.api.GetUser(ctx, args[1])
	if err != nil {
		return err
	}
	a.out.Println(a.fmt.Profile(u))
	return nil
}

func (a *app) cmdRating(ctx context.Context, _ []string) error {
	r, err := a.api.MyRating(ctx)
	if err != nil {
		return err
	}
	puzzleRating := 0
	if pr, err := a.api.PuzzleRating(ctx); err == nil {
		puzzleRating = pr.Rating
	} else {
		a.logger.Debug("puzzle_rating_unavailable")
	}
	a.out.Say("social.rating", map[string]any{"Rating": r.Rating, "Games": r.GamesPlayed, "Puzzle": puzzleRating})
	return nil
}

func (a *app) cmdLessons(ctx context.Context, _ []string) error {
	progress, err := a.api.LessonProgress(ctx)
	if err != nil {
		return err
	}
	lines := []string{a.fmt.Text("social.lessons_header", nil)}
	for _, p := range progress {
		lines = append(lines, a.fmt.Text("social.lesson_entry", map[string]any{
			"LessonID":   p.LessonID,
			"CategoryID": p.CategoryID,
			"Solved":     p.PuzzlesSolved,
			"Total":      p.PuzzlesTotal,
			"Completed":  p.Completed,
		}))
	}
	a.out.Println(strings.Join(lines, "\n"))
	return nil
}

func (a *app) cmdFriends(ctx context.Context, args []string) error {
	if len(args) == 1 {
		friends, err := a.api.Friends(ctx)
		if err != nil {
			return err
		}
		a.out.Println(a.fmt.Friends(friends))
		return nil
	}
	const u = "friends [requests|add <userId>|accept <id>|decline <id>|cancel <id>|remove <userId>]"
	sub := strings.ToLower(args[1])
	if sub == "requests" {
		reqs, err := a.api.FriendRequests(ctx)
		if err != nil {
			return err
		}
		a.out.Println(a.fmt.FriendRequests(reqs))
		return nil
	}
	if len(args) < 3 {
		return usage(u)
	}
	id := args[2]
	var err error
	switch sub {
	case "add":
		_, err = a.api.SendFriendRequest(ctx, id)
	case "accept":
		_, err = a.api.AcceptFriendRequest(ctx, id)
	case "decline":
		err = a.api.DeclineFriendRequest(ctx, id)
	case "cancel":
		err = a.api.CancelFriendRequest(ctx, id)
	case "remove":
		err = a.api.RemoveFriend(ctx, id)
	default:
		return usage(u)
	}
	if err != nil {
		return fmt.Errorf("friends %s: %w", sub, err)
	}
	a.out.Say("social.done", nil)
	return nil
}
