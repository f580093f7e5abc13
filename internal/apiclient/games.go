package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

func (c *Client) CreateGame(ctx context.Context, opponentID string) (*chessdto.GameResponse, error) {
	var out chessdto.GameResponse
	q := url.Values{"opponentId": {strings.TrimSpace(opponentID)}}
	if err := c.post(ctx, "/games", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetGame(ctx context.Context, gameID string) (*chessdto.GameResponse, error) {
	var out chessdto.GameResponse
	if err := c.get(ctx, "/games/"+seg(gameID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetGameMoves(ctx context.Context, gameID string) ([]chessdto.MoveResponse, error) {
	var out []chessdto.MoveResponse
	if err := c.get(ctx, "/games/"+seg(gameID)+"/moves", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MakeMove submits a UCI move over REST.
func (c *Client) MakeMove(ctx context.Context, gameID, uci string) (*chessdto.GameResponse, error) {
	var out chessdto.GameResponse
	req := chessdto.MakeMoveRequest{Move: strings.TrimSpace(uci)}
	if err := c.post(ctx, "/games/"+seg(gameID)+"/moves", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResignGame(ctx context.Context, gameID string) (*chessdto.GameResponse, error) {
	return c.gameAction(ctx, gameID, "resign", nil)
}

func (c *Client) OfferDraw(ctx context.Context, gameID string) (*chessdto.GameResponse, error) {
	return c.gameAction(ctx, gameID, "offer-draw", nil)
}

func (c *Client) RespondDraw(ctx context.Context, gameID string, accept bool) (*chessdto.GameResponse, error) {
	return c.gameAction(ctx, gameID, "respond-draw", url.Values{"accept": {strconv.FormatBool(accept)}})
}

func (c *Client) gameAction(ctx context.Context, gameID, action string, q url.Values) (*chessdto.GameResponse, error) {
	var out chessdto.GameResponse
	if err := c.post(ctx, "/games/"+seg(gameID)+"/"+action, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyActiveGames(ctx context.Context) ([]chessdto.GameResponse, error) {
	var out []chessdto.GameResponse
	if err := c.get(ctx, "/games/my/active", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyFinishedGames(ctx context.Context) ([]chessdto.GameResponse, error) {
	var out []chessdto.GameResponse
	if err := c.get(ctx, "/games/my/finished", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AnalyzeGame asks the backend engine to evaluate a finished game. Empty
// startFEN means the standard position; depth <= 0 uses 20.
func (c *Client) AnalyzeGame(ctx context.Context, gameID string, moves []string, startFEN string, depth int) (*chessdto.AnalysisResponse, error) {
	if strings.TrimSpace(startFEN) == "" {
		startFEN = board.StartFEN
	}
	if depth <= 0 {
		depth = 20
	}
	req := chessdto.AnalysisRequest{GameID: gameID, Moves: moves, StartFEN: startFEN, Depth: &depth}
	var out chessdto.AnalysisResponse
	if err := c.post(ctx, "/games/"+seg(gameID)+"/analyze", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BotDifficulties(ctx context.Context) ([]chessdto.BotDifficulty, error) {
	var out []chessdto.BotDifficulty
	if err := c.get(ctx, "/bot/difficulties", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBotGame defaults to a random color and 5+3.
func (c *Client) CreateBotGame(ctx context.Context, difficulty, playerColor, timeControl string) (*chessdto.GameResponse, error) {
	if playerColor == "" {
		playerColor = "random"
	}
	if timeControl == "" {
		timeControl = "5+3"
	}
	req := chessdto.CreateBotGameRequest{Difficulty: difficulty, PlayerColor: playerColor, TimeControl: timeControl}
	var out chessdto.GameResponse
	if err := c.post(ctx, "/bot/game", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BotMove(ctx context.Context, gameID, difficulty string) (*chessdto.BotMoveResponse, error) {
	if difficulty == "" {
		difficulty = "INTERMEDIATE"
	}
	var out chessdto.BotMoveResponse
	if err := c.post(ctx, "/bot/move/"+seg(gameID), url.Values{"difficulty": {difficulty}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
