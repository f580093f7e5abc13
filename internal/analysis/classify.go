// Package analysis replays a finished game for review and scores every move.
package analysis

import "github.com/park285/chessonline-client/pkg/chessdto"

// Loss thresholds in centipawns, measured from the mover's side.
const (
	InaccuracyThreshold = 20
	MistakeThreshold    = 50
	BlunderThreshold    = 200

	blunderPenalty = 5
	mistakePenalty = 2
)

type Severity int

const (
	SeverityNone Severity = iota
	SeverityInaccuracy
	SeverityMistake
	SeverityBlunder
)

func (s Severity) String() string {
	switch s {
	case SeverityInaccuracy:
		return "inaccuracy"
	case SeverityMistake:
		return "mistake"
	case SeverityBlunder:
		return "blunder"
	default:
		return ""
	}
}

// Classify maps a centipawn loss to the worst severity it crosses.
func Classify(lossCP int) Severity {
	switch {
	case lossCP > BlunderThreshold:
		return SeverityBlunder
	case lossCP > MistakeThreshold:
		return SeverityMistake
	case lossCP > InaccuracyThreshold:
		return SeverityInaccuracy
	default:
		return SeverityNone
	}
}

// SeverityOf reads the flags of an analysed move; a blunder wins over a mistake.
func SeverityOf(m chessdto.MoveAnalysis) Severity {
	switch {
	case m.IsBlunder:
		return SeverityBlunder
	case m.IsMistake:
		return SeverityMistake
	case m.IsInaccuracy:
		return SeverityInaccuracy
	default:
		return SeverityNone
	}
}

// Summarize totals the per-side counters and accuracies of moves.
func Summarize(gameID string, moves []chessdto.MoveAnalysis) *chessdto.AnalysisResponse {
	res := &chessdto.AnalysisResponse{GameID: gameID, TotalMoves: len(moves), Moves: moves}
	for _, m := range moves {
		switch SeverityOf(m) {
		case SeverityBlunder:
			if m.IsWhiteMove {
				res.WhiteBlunders++
			} else {
				res.BlackBlunders++
			}
		case SeverityMistake:
			if m.IsWhiteMove {
				res.WhiteMistakes++
			} else {
				res.BlackMistakes++
			}
		}
	}
	res.WhiteAccuracy = accuracy(res.WhiteBlunders, res.WhiteMistakes)
	res.BlackAccuracy = accuracy(res.BlackBlunders, res.BlackMistakes)
	return res
}

func accuracy(blunders, mistakes int) float64 {
	return float64(max(0, 100-blunderPenalty*blunders-mistakePenalty*mistakes))
}
