package puzzle

import (
	"time"

	"github.com/park285/chessonline-client/internal/board"
)

type Status string

const (
	StatusPlaying  Status = "playing"
	StatusCorrect  Status = "correct"
	StatusWrong    Status = "wrong"
	StatusComplete Status = "complete"
)

// Outcome is the result of one submitted move.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeCorrect
	OutcomeWrong
	OutcomeComplete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	case OutcomeComplete:
		return "complete"
	default:
		return "ignored"
	}
}

// Session is the client-side progress on one puzzle.
type Session struct {
	PuzzleID       string
	StartFEN       string
	FirstMove      string
	Solution       []string
	Rating         int
	Themes         []string
	Moves          []string
	Status         Status
	HintUsed       bool
	PlayerColor    board.Color
	Board          *board.Board
	OpponentMoving bool
	Checking       bool
	StartedAt      time.Time
}

func (s *Session) clone() Session {
	c := *s
	c.Moves = append([]string(nil), s.Moves...)
	c.Solution = append([]string(nil), s.Solution...)
	c.Themes = append([]string(nil), s.Themes...)
	return c
}

// openingMove is the scripted opponent move that starts the puzzle.
func openingMove(firstMove string, solution []string) string {
	if firstMove != "" {
		return firstMove
	}
	if len(solution) > 0 {
		return solution[0]
	}
	return ""
}

// playerColorFor is the side to move after the opponent's first move, or the
// FEN's side to move when that move is unknown or cannot be played.
func playerColorFor(b *board.Board, first string) board.Color {
	if first != "" {
		if next, _, err := b.Apply(first); err == nil {
			return next.Turn()
		}
	}
	return b.Turn()
}
