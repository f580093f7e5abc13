package domain

import (
	"strings"
	"time"
)

// ArchivedGame is a finished online game kept locally for review and PGN export.
type ArchivedGame struct {
	ID           int64
	GameID       string
	OwnerID      string
	WhiteID      string
	WhiteName    string
	BlackID      string
	BlackName    string
	Result       string
	ResultReason string
	TimeControl  string
	Rated        bool
	StartFEN     string
	FinalFEN     string
	MovesUCI     []string
	MovesSAN     []string
	PGN          string
	Opening      string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

// PlayerRecord aggregates archived results for one local user.
type PlayerRecord struct {
	OwnerID      string
	GamesPlayed  int
	Wins         int
	Losses       int
	Draws        int
	Streak       int
	StreakType   string
	LastGameID   string
	LastPlayedAt time.Time
	UpdatedAt    time.Time
	CreatedAt    time.Time
}

// Outcome returns "win", "loss" or "draw" for the owner, or "" when the result is unknown.
func (g *ArchivedGame) Outcome() string {
	if g == nil {
		return ""
	}
	switch NormalizeResult(g.Result) {
	case "1/2-1/2":
		return "draw"
	case "1-0":
		return g.sideOutcome(true)
	case "0-1":
		return g.sideOutcome(false)
	}
	return ""
}

func (g *ArchivedGame) sideOutcome(whiteWon bool) string {
	switch g.OwnerID {
	case g.WhiteID:
		if whiteWon {
			return "win"
		}
		return "loss"
	case g.BlackID:
		if whiteWon {
			return "loss"
		}
		return "win"
	}
	return ""
}

// Apply folds one archived game into the record.
func (p *PlayerRecord) Apply(g *ArchivedGame) {
	if p == nil || g == nil {
		return
	}
	p.GamesPlayed++
	outcome := g.Outcome()
	switch outcome {
	case "win":
		p.Wins++
	case "loss":
		p.Losses++
	case "draw":
		p.Draws++
	}
	if outcome != "" && outcome == p.StreakType {
		p.Streak++
	} else {
		p.Streak = 1
		p.StreakType = outcome
	}
	p.LastGameID = g.GameID
	p.LastPlayedAt = g.EndedAt
}

// NormalizeResult maps the backend's result tokens onto PGN results; unknown input yields "*".
func NormalizeResult(r string) string {
	switch strings.ToLower(strings.TrimSpace(r)) {
	case "1-0", "white", "white_win", "white_won":
		return "1-0"
	case "0-1", "black", "black_win", "black_won":
		return "0-1"
	case "1/2-1/2", "draw", "stalemate":
		return "1/2-1/2"
	default:
		return "*"
	}
}
