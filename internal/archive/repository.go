// Package archive keeps finished online games locally for review and PGN export.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/chessonline-client/internal/domain"
)

// Repository stores archived games and per-owner records.
type Repository interface {
	// UpsertGame reports whether the game was new for its owner.
	UpsertGame(ctx context.Context, g *domain.ArchivedGame) (bool, error)
	RecentGames(ctx context.Context, ownerID string, limit int) ([]*domain.ArchivedGame, error)
	GetGame(ctx context.Context, ownerID, gameID string) (*domain.ArchivedGame, error)
	GetRecord(ctx context.Context, ownerID string) (*domain.PlayerRecord, error)
	UpsertRecord(ctx context.Context, rec *domain.PlayerRecord) error
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS archived_games (
	id BIGSERIAL PRIMARY KEY,
	game_id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	white_id TEXT NOT NULL DEFAULT '',
	white_name TEXT NOT NULL DEFAULT '',
	black_id TEXT NOT NULL DEFAULT '',
	black_name TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL DEFAULT '',
	result_reason TEXT NOT NULL DEFAULT '',
	time_control TEXT NOT NULL DEFAULT '',
	rated BOOLEAN NOT NULL DEFAULT FALSE,
	start_fen TEXT NOT NULL DEFAULT '',
	final_fen TEXT NOT NULL DEFAULT '',
	moves_uci JSONB NOT NULL DEFAULT '[]',
	moves_san JSONB NOT NULL DEFAULT '[]',
	pgn TEXT NOT NULL DEFAULT '',
	opening TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ,
	ended_at TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	UNIQUE (owner_id, game_id)
);
CREATE TABLE IF NOT EXISTS player_records (
	owner_id TEXT PRIMARY KEY,
	games_played INT NOT NULL DEFAULT 0,
	wins INT NOT NULL DEFAULT 0,
	losses INT NOT NULL DEFAULT 0,
	draws INT NOT NULL DEFAULT 0,
	streak INT NOT NULL DEFAULT 0,
	streak_type TEXT NOT NULL DEFAULT '',
	last_game_id TEXT NOT NULL DEFAULT '',
	last_played_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const gameColumns = `
	id,
	game_id,
	owner_id,
	white_id,
	white_name,
	black_id,
	black_name,
	result,
	result_reason,
	time_control,
	rated,
	start_fen,
	final_fen,
	moves_uci,
	moves_san,
	pgn,
	opening,
	started_at,
	ended_at,
	duration_ms`

type postgres struct {
	db *sql.DB
}

// OpenPostgres connects to databaseURL and creates the archive tables if needed.
func OpenPostgres(ctx context.Context, databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return NewPostgres(db), nil
}

func NewPostgres(db *sql.DB) Repository {
	return &postgres{db: db}
}

func (r *postgres) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *postgres) UpsertGame(ctx context.Context, g *domain.ArchivedGame) (bool, error) {
	if g == nil {
		return false, fmt.Errorf("nil archived game payload")
	}
	movesUCI, err := json.Marshal(nonNil(g.MovesUCI))
	if err != nil {
		return false, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(nonNil(g.MovesSAN))
	if err != nil {
		return false, fmt.Errorf("marshal moves_san: %w", err)
	}

	// xmax is zero only for a freshly inserted row.
	const query = `
		INSERT INTO archived_games (
			game_id, owner_id, white_id, white_name, black_id, black_name,
			result, result_reason, time_control, rated, start_fen, final_fen,
			moves_uci, moves_san, pgn, opening, started_at, ended_at, duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14::jsonb, $15, $16, $17, $18, $19)
		ON CONFLICT (owner_id, game_id) DO UPDATE SET
			white_name = EXCLUDED.white_name,
			black_name = EXCLUDED.black_name,
			result = EXCLUDED.result,
			result_reason = EXCLUDED.result_reason,
			final_fen = EXCLUDED.final_fen,
			moves_uci = EXCLUDED.moves_uci,
			moves_san = EXCLUDED.moves_san,
			pgn = EXCLUDED.pgn,
			opening = EXCLUDED.opening,
			ended_at = EXCLUDED.ended_at,
			duration_ms = EXCLUDED.duration_ms
		RETURNING id, (xmax = 0) AS inserted`

	var (
		id       int64
		inserted bool
	)
	err = r.db.QueryRowContext(ctx, query,
		g.GameID, g.OwnerID,
		g.WhiteID, g.WhiteName,
		g.BlackID, g.BlackName,
		g.Result, g.ResultReason, g.TimeControl, g.Rated,
		g.StartFEN, g.FinalFEN,
		string(movesUCI), string(movesSAN),
		g.PGN, g.Opening,
		nullTime(g.StartedAt), g.EndedAt, g.Duration.Milliseconds(),
	).Scan(&id, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert archived game: %w", err)
	}
	g.ID = id
	return inserted, nil
}

func (r *postgres) RecentGames(ctx context.Context, ownerID string, limit int) ([]*domain.ArchivedGame, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + gameColumns + `
		FROM archived_games
		WHERE owner_id = $1
		ORDER BY ended_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select archived games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.ArchivedGame, 0, limit)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived games: %w", err)
	}
	return games, nil
}

func (r *postgres) GetGame(ctx context.Context, ownerID, gameID string) (*domain.ArchivedGame, error) {
	query := `SELECT` + gameColumns + `
		FROM archived_games
		WHERE owner_id = $1 AND game_id = $2`
	g, err := scanGame(r.db.QueryRowContext(ctx, query, ownerID, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.ArchivedGame, error) {
	var (
		g            domain.ArchivedGame
		movesUCIJSON []byte
		movesSANJSON []byte
		startedAt    sql.NullTime
		durationMS   sql.NullInt64
	)
	err := row.Scan(
		&g.ID,
		&g.GameID,
		&g.OwnerID,
		&g.WhiteID,
		&g.WhiteName,
		&g.BlackID,
		&g.BlackName,
		&g.Result,
		&g.ResultReason,
		&g.TimeControl,
		&g.Rated,
		&g.StartFEN,
		&g.FinalFEN,
		&movesUCIJSON,
		&movesSANJSON,
		&g.PGN,
		&g.Opening,
		&startedAt,
		&g.EndedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan archived game: %w", err)
	}
	if startedAt.Valid {
		g.StartedAt = startedAt.Time
	}
	if durationMS.Valid {
		g.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesUCIJSON, &g.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(movesSANJSON, &g.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	return &g, nil
}

func (r *postgres) GetRecord(ctx context.Context, ownerID string) (*domain.PlayerRecord, error) {
	const query = `
		SELECT
			owner_id,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_game_id,
			last_played_at,
			updated_at,
			created_at
		FROM player_records
		WHERE owner_id = $1`

	var (
		rec      domain.PlayerRecord
		lastPlay sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&rec.OwnerID,
		&rec.GamesPlayed,
		&rec.Wins,
		&rec.Losses,
		&rec.Draws,
		&rec.Streak,
		&rec.StreakType,
		&rec.LastGameID,
		&lastPlay,
		&rec.UpdatedAt,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select player record: %w", err)
	}
	if lastPlay.Valid {
		rec.LastPlayedAt = lastPlay.Time
	}
	return &rec, nil
}

func (r *postgres) UpsertRecord(ctx context.Context, rec *domain.PlayerRecord) error {
	if rec == nil {
		return fmt.Errorf("nil player record payload")
	}
	const query = `
		INSERT INTO player_records (
			owner_id,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_game_id,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (owner_id)
		DO UPDATE SET
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			streak = EXCLUDED.streak,
			streak_type = EXCLUDED.streak_type,
			last_game_id = EXCLUDED.last_game_id,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		rec.OwnerID,
		rec.GamesPlayed,
		rec.Wins,
		rec.Losses,
		rec.Draws,
		rec.Streak,
		rec.StreakType,
		rec.LastGameID,
		nullTime(rec.LastPlayedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert player record: %w", err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
