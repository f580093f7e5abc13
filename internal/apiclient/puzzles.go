package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/park285/chessonline-client/pkg/chessdto"
)

// GetRandomPuzzle ignores zero rating bounds.
func (c *Client) GetRandomPuzzle(ctx context.Context, minRating, maxRating int) (*chessdto.PuzzleResponse, error) {
	q := url.Values{}
	addRating(q, minRating, maxRating)
	var out chessdto.PuzzleResponse
	if err := c.get(ctx, "/puzzles/random", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDailyPuzzle(ctx context.Context) (*chessdto.PuzzleResponse, error) {
	var out chessdto.PuzzleResponse
	if err := c.get(ctx, "/puzzles/daily", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPuzzle(ctx context.Context, id string) (*chessdto.PuzzleResponse, error) {
	var out chessdto.PuzzleResponse
	if err := c.get(ctx, "/puzzles/"+seg(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLessonPuzzle(ctx context.Context, openingTag string, themes []string, minRating, maxRating int) (*chessdto.PuzzleResponse, error) {
	q := url.Values{"openingTag": {openingTag}}
	if len(themes) > 0 {
		q.Set("themes", strings.Join(themes, ","))
	}
	addRating(q, minRating, maxRating)
	var out chessdto.PuzzleResponse
	if err := c.get(ctx, "/puzzles/lesson", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckPuzzleSolution(ctx context.Context, req chessdto.CheckPuzzleSolutionRequest) (*chessdto.CheckPuzzleSolutionResponse, error) {
	var out chessdto.CheckPuzzleSolutionResponse
	if err := c.post(ctx, "/puzzles/check", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPuzzleHint(ctx context.Context, req chessdto.PuzzleHintRequest) (*chessdto.PuzzleHintResponse, error) {
	if req.CurrentMoves == nil {
		req.CurrentMoves = []string{}
	}
	var out chessdto.PuzzleHintResponse
	if err := c.post(ctx, "/puzzles/hint", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PuzzleRating(ctx context.Context) (*chessdto.PuzzleRatingResponse, error) {
	var out chessdto.PuzzleRatingResponse
	if err := c.get(ctx, "/puzzles/me/rating", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PuzzleRatingHistory(ctx context.Context) ([]chessdto.PuzzleRatingHistoryResponse, error) {
	var out []chessdto.PuzzleRatingHistoryResponse
	if err := c.get(ctx, "/puzzles/me/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func addRating(q url.Values, minRating, maxRating int) {
	if minRating > 0 {
		q.Set("minRating", strconv.Itoa(minRating))
	}
	if maxRating > 0 {
		q.Set("maxRating", strconv.Itoa(maxRating))
	}
}
