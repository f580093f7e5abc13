package apiclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/chessonline-client/pkg/chessdto"
)

// Login stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*chessdto.AuthResponse, error) {
	req := chessdto.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	return c.authenticate(ctx, "/auth/login", req)
}

func (c *Client) Register(ctx context.Context, req chessdto.RegisterRequest) (*chessdto.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	return c.authenticate(ctx, "/auth/register", req)
}

func (c *Client) authenticate(ctx context.Context, path string, in any) (*chessdto.AuthResponse, error) {
	var out chessdto.AuthResponse
	if err := c.post(ctx, path, nil, in, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("auth response without token")
	}
	if err := c.SetToken(ctx, out.Token); err != nil {
		return &out, fmt.Errorf("store token: %w", err)
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*chessdto.UserResponse, error) {
	var out chessdto.UserResponse
	if err := c.get(ctx, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, username string) (*chessdto.UserResponse, error) {
	var out chessdto.UserResponse
	if err := c.get(ctx, "/users/"+seg(username), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req chessdto.UpdateProfileRequest) (*chessdto.UserResponse, error) {
	var out chessdto.UserResponse
	if err := c.patch(ctx, "/users/me", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyRating(ctx context.Context) (*chessdto.RatingResponse, error) {
	var out chessdto.RatingResponse
	if err := c.get(ctx, "/ratings/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyRatingHistory(ctx context.Context) ([]chessdto.RatingHistoryResponse, error) {
	var out []chessdto.RatingHistoryResponse
	if err := c.get(ctx, "/ratings/me/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LessonProgress(ctx context.Context) ([]chessdto.LessonProgressResponse, error) {
	var out []chessdto.LessonProgressResponse
	if err := c.get(ctx, "/education/progress", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateLessonProgress(ctx context.Context, req chessdto.LessonProgressRequest) (*chessdto.LessonProgressResponse, error) {
	var out chessdto.LessonProgressResponse
	if err := c.post(ctx, "/education/progress", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
