package archive

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/domain"
	"github.com/park285/chessonline-client/internal/history"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

func finished(id, result string, ended time.Time) *domain.ArchivedGame {
	return &domain.ArchivedGame{
		GameID:      id,
		OwnerID:     "u1",
		WhiteID:     "u1",
		WhiteName:   "alice",
		BlackID:     "u2",
		BlackName:   "bob \"the rook\"",
		Result:      result,
		TimeControl: "5+3",
		MovesUCI:    []string{"e2e4", "e7e5", "g1f3"},
		MovesSAN:    []string{"e4", "e5", "Nf3"},
		EndedAt:     ended,
	}
}

func TestBuildPGN(t *testing.T) {
	g := finished("g1", "white_win", time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC))
	g.ResultReason = "RESIGNATION"
	pgn := BuildPGN(g)
	for _, want := range []string{
		`[Date "2026.03.07"]`,
		`[Black "bob 'the rook'"]`,
		`[Result "1-0"]`,
		`[Termination "resignation"]`,
		"1. e4 e5 2. Nf3 1-0",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("pgn missing %q:\n%s", want, pgn)
		}
	}
	if strings.Contains(pgn, "[FEN") {
		t.Fatalf("standard start must not carry a FEN tag")
	}
}

func TestSaveGameCountsOnce(t *testing.T) {
	ctx := context.Background()
	a := New(NewMemoryRepository(), nil)
	t.Cleanup(func() { _ = a.Close() })

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := finished("g1", "1-0", base)
	if err := a.SaveGame(ctx, first); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if first.PGN == "" || !strings.HasPrefix(first.Opening, "C") {
		t.Fatalf("derived fields not filled: pgn=%q opening=%q", first.PGN, first.Opening)
	}
	if err := a.SaveGame(ctx, finished("g1", "1-0", base)); err != nil {
		t.Fatalf("SaveGame again: %v", err)
	}
	if err := a.SaveGame(ctx, finished("g2", "0-1", base.Add(time.Hour))); err != nil {
		t.Fatalf("SaveGame g2: %v", err)
	}

	rec, err := a.Record(ctx, "u1")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.GamesPlayed != 2 || rec.Wins != 1 || rec.Losses != 1 || rec.StreakType != "loss" || rec.LastGameID != "g2" {
		t.Fatalf("unexpected record %+v", rec)
	}

	recent, err := a.Recent(ctx, "u1", 1)
	if err != nil || len(recent) != 1 || recent[0].GameID != "g2" {
		t.Fatalf("expected newest game first, got %v %v", recent, err)
	}
	pgn, err := a.PGN(ctx, "u1", "g1")
	if err != nil || !strings.Contains(pgn, "1. e4 e5") {
		t.Fatalf("PGN: %q %v", pgn, err)
	}
	if _, err := a.Game(ctx, "u1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFromGameArchivesBackendGame(t *testing.T) {
	ctx := context.Background()
	a := New(nil, nil)
	h, err := history.ReplayUCI(board.StartFEN, []string{"f2f3", "e7e5", "g2g4", "d8h4"})
	if err != nil {
		t.Fatalf("ReplayUCI: %v", err)
	}
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	g := &chessdto.GameResponse{
		ID: "g42", WhitePlayerID: "u1", WhiteUsername: "alice", BlackPlayerID: "u2", BlackUsername: "bob",
		Status: chessdto.GameStatusFinished, Result: "black_win", ResultReason: "CHECKMATE",
		CreatedAt:  &chessdto.Timestamp{Time: started},
		LastMoveAt: &chessdto.Timestamp{Time: started.Add(90 * time.Second)},
	}
	if err := a.SaveGame(ctx, FromGame("u1", g, h)); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	pgn, err := a.PGN(ctx, "u1", "g42")
	if err != nil {
		t.Fatalf("PGN: %v", err)
	}
	if !strings.Contains(pgn, "1. f3 e5 2. g4 Qh4#") || !strings.Contains(pgn, "0-1") {
		t.Fatalf("unexpected pgn:\n%s", pgn)
	}
	stored, err := a.Game(ctx, "u1", "g42")
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if stored.Duration != 90*time.Second {
		t.Fatalf("duration not derived: %v", stored.Duration)
	}
	rec, _ := a.Record(ctx, "u1")
	if rec.Losses != 1 {
		t.Fatalf("loss not recorded: %+v", rec)
	}
}

func TestSaveGameRequiresID(t *testing.T) {
	a := New(nil, nil)
	if err := a.SaveGame(context.Background(), &domain.ArchivedGame{}); err == nil {
		t.Fatalf("a game without id must be rejected")
	}
}

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("ARCHIVE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ARCHIVE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	repo, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	owner := "test-" + time.Now().Format("150405.000000")
	g := finished("pg1", "draw", time.Now().UTC().Truncate(time.Second))
	g.OwnerID = owner
	inserted, err := repo.UpsertGame(ctx, g)
	if err != nil || !inserted {
		t.Fatalf("first upsert: %v %v", inserted, err)
	}
	inserted, err = repo.UpsertGame(ctx, g)
	if err != nil || inserted {
		t.Fatalf("second upsert must update: %v %v", inserted, err)
	}
	got, err := repo.GetGame(ctx, owner, "pg1")
	if err != nil || got == nil || strings.Join(got.MovesSAN, " ") != "e4 e5 Nf3" {
		t.Fatalf("GetGame: %+v %v", got, err)
	}
}
