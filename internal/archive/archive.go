package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/analysis"
	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/domain"
	"github.com/park285/chessonline-client/internal/history"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

var ErrNotFound = errors.New("archived game not found")

// Archive fills in derived fields before storing a game and keeps the owner's record current.
type Archive struct {
	repo   Repository
	logger *zap.Logger
}

func New(repo Repository, logger *zap.Logger) *Archive {
	if repo == nil {
		repo = NewMemoryRepository()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{repo: repo, logger: logger}
}

// SaveGame stores g. Saving the same game twice updates it without counting it again.
func (a *Archive) SaveGame(ctx context.Context, g *domain.ArchivedGame) error {
	if g == nil || strings.TrimSpace(g.GameID) == "" {
		return errors.New("archived game requires a game id")
	}
	if g.StartFEN == "" {
		g.StartFEN = board.StartFEN
	}
	if g.Opening == "" {
		if h, err := history.ReplayUCI(g.StartFEN, g.MovesUCI); err == nil {
			g.Opening = analysis.NameOpening(h).String()
		}
	}
	if g.Duration == 0 && !g.StartedAt.IsZero() && g.EndedAt.After(g.StartedAt) {
		g.Duration = g.EndedAt.Sub(g.StartedAt)
	}
	if g.PGN == "" {
		g.PGN = BuildPGN(g)
	}

	inserted, err := a.repo.UpsertGame(ctx, g)
	if err != nil {
		return err
	}
	if !inserted || g.OwnerID == "" {
		return nil
	}

	rec, err := a.repo.GetRecord(ctx, g.OwnerID)
	if err != nil {
		return fmt.Errorf("load player record: %w", err)
	}
	if rec == nil {
		rec = &domain.PlayerRecord{OwnerID: g.OwnerID}
	}
	rec.Apply(g)
	if err := a.repo.UpsertRecord(ctx, rec); err != nil {
		return err
	}
	a.logger.Debug("archive_record_updated",
		zap.String("game_id", g.GameID),
		zap.String("outcome", g.Outcome()),
		zap.Int("games", rec.GamesPlayed))
	return nil
}

func (a *Archive) Recent(ctx context.Context, ownerID string, limit int) ([]*domain.ArchivedGame, error) {
	return a.repo.RecentGames(ctx, ownerID, limit)
}

func (a *Archive) Game(ctx context.Context, ownerID, gameID string) (*domain.ArchivedGame, error) {
	g, err := a.repo.GetGame(ctx, ownerID, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	return g, nil
}

// PGN returns the stored PGN, rebuilding it for rows saved without one.
func (a *Archive) PGN(ctx context.Context, ownerID, gameID string) (string, error) {
	g, err := a.Game(ctx, ownerID, gameID)
	if err != nil {
		return "", err
	}
	if g.PGN == "" {
		return BuildPGN(g), nil
	}
	return g.PGN, nil
}

func (a *Archive) Record(ctx context.Context, ownerID string) (domain.PlayerRecord, error) {
	rec, err := a.repo.GetRecord(ctx, ownerID)
	if err != nil || rec == nil {
		return domain.PlayerRecord{OwnerID: ownerID}, err
	}
	return *rec, nil
}

func (a *Archive) Close() error { return a.repo.Close() }

// FromGame builds an archive entry for a finished backend game and its replayed moves.
func FromGame(ownerID string, g *chessdto.GameResponse, h history.History) *domain.ArchivedGame {
	rec := &domain.ArchivedGame{
		GameID:       g.ID,
		OwnerID:      ownerID,
		WhiteID:      g.WhitePlayerID,
		WhiteName:    g.WhiteUsername,
		BlackID:      g.BlackPlayerID,
		BlackName:    g.BlackUsername,
		Result:       g.Result,
		ResultReason: g.ResultReason,
		TimeControl:  g.TimeControl,
		Rated:        g.Rated,
		StartFEN:     h.StartFEN,
		FinalFEN:     g.FenCurrent,
		MovesUCI:     h.UCIs(),
		MovesSAN:     h.SANs(),
	}
	if g.CreatedAt != nil {
		rec.StartedAt = g.CreatedAt.Time
	}
	if g.LastMoveAt != nil {
		rec.EndedAt = g.LastMoveAt.Time
	}
	return rec
}
