package apiclient

import (
	"context"

	"github.com/park285/chessonline-client/pkg/chessdto"
)

func (c *Client) JoinMatchmaking(ctx context.Context, req chessdto.MatchmakingJoinRequest) (*chessdto.MatchmakingJoinResponse, error) {
	var out chessdto.MatchmakingJoinResponse
	if err := c.post(ctx, "/matchmaking/join", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LeaveMatchmaking(ctx context.Context) error {
	return c.post(ctx, "/matchmaking/leave", nil, nil, nil)
}

func (c *Client) MatchmakingStatus(ctx context.Context) (*chessdto.MatchmakingStatusResponse, error) {
	var out chessdto.MatchmakingStatusResponse
	if err := c.get(ctx, "/matchmaking/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LobbyGames(ctx context.Context) ([]chessdto.LobbyGameResponse, error) {
	var out []chessdto.LobbyGameResponse
	if err := c.get(ctx, "/lobby/games", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateLobbyGame(ctx context.Context, req chessdto.CreateLobbyGameRequest) (*chessdto.LobbyGameResponse, error) {
	var out chessdto.LobbyGameResponse
	if err := c.post(ctx, "/lobby/create", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JoinLobbyGame(ctx context.Context, id string) (*chessdto.LobbyJoinResponse, error) {
	var out chessdto.LobbyJoinResponse
	if err := c.post(ctx, "/lobby/join/"+seg(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelLobbyGame(ctx context.Context, id string) error {
	return c.delete(ctx, "/lobby/"+seg(id), nil)
}

func (c *Client) CreateInvite(ctx context.Context, req chessdto.CreateInviteRequest) (*chessdto.InviteResponse, error) {
	var out chessdto.InviteResponse
	if err := c.post(ctx, "/invites", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyInvites(ctx context.Context) ([]chessdto.InviteResponse, error) {
	var out []chessdto.InviteResponse
	if err := c.get(ctx, "/invites", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetInvite(ctx context.Context, code string) (*chessdto.InviteResponse, error) {
	var out chessdto.InviteResponse
	if err := c.get(ctx, "/invites/"+seg(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptInvite returns the game created for the invite.
func (c *Client) AcceptInvite(ctx context.Context, code string) (*chessdto.GameResponse, error) {
	var out chessdto.GameResponse
	if err := c.post(ctx, "/invites/"+seg(code)+"/accept", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Friends(ctx context.Context) ([]chessdto.FriendshipResponse, error) {
	return c.friendships(ctx, "/friends")
}

func (c *Client) FriendRequests(ctx context.Context) ([]chessdto.FriendshipResponse, error) {
	return c.friendships(ctx, "/friends/requests")
}

func (c *Client) friendships(ctx context.Context, path string) ([]chessdto.FriendshipResponse, error) {
	var out []chessdto.FriendshipResponse
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FriendStatus(ctx context.Context, userID string) (*chessdto.FriendStatusResponse, error) {
	var out chessdto.FriendStatusResponse
	if err := c.get(ctx, "/friends/status/"+seg(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendFriendRequest(ctx context.Context, userID string) (*chessdto.FriendshipResponse, error) {
	var out chessdto.FriendshipResponse
	if err := c.post(ctx, "/friends/"+seg(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcceptFriendRequest(ctx context.Context, id string) (*chessdto.FriendshipResponse, error) {
	var out chessdto.FriendshipResponse
	if err := c.post(ctx, "/friends/accept/"+seg(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeclineFriendRequest(ctx context.Context, id string) error {
	return c.delete(ctx, "/friends/decline/"+seg(id), nil)
}

func (c *Client) CancelFriendRequest(ctx context.Context, id string) error {
	return c.delete(ctx, "/friends/cancel/"+seg(id), nil)
}

func (c *Client) RemoveFriend(ctx context.Context, userID string) error {
	return c.delete(ctx, "/friends/"+seg(userID), nil)
}
