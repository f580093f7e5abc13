package board

import nchess "github.com/corentings/chess/v2"

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   1,
	nchess.Knight: 3,
	nchess.Bishop: 3,
	nchess.Rook:   5,
	nchess.Queen:  9,
}

var initialPieceCounts = map[nchess.PieceType]int{
	nchess.Pawn:   8,
	nchess.Knight: 2,
	nchess.Bishop: 2,
	nchess.Rook:   2,
	nchess.Queen:  1,
}

// Material is the remaining material per side in pawn units.
type Material struct {
	White int
	Black int
}

func (m Material) Diff() int { return m.White - m.Black }

// Captured counts the pieces each side has taken, keyed by lowercase letter (p, n, b, r, q).
type Captured struct {
	ByWhite map[string]int
	ByBlack map[string]int
}

// Material totals the pieces on the board and infers captures against the
// standard starting set. Promotions make inferred counts approximate.
func (b *Board) Material() (Material, Captured) {
	captured := Captured{ByWhite: map[string]int{}, ByBlack: map[string]int{}}
	totals := map[nchess.Color]int{}
	counts := map[nchess.Color]map[nchess.PieceType]int{
		nchess.White: {},
		nchess.Black: {},
	}
	for _, piece := range b.game.Position().Board().SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		value := pieceValues[piece.Type()]
		if value == 0 {
			continue
		}
		totals[piece.Color()] += value
		counts[piece.Color()][piece.Type()]++
	}
	for pt, initial := range initialPieceCounts {
		letter := promotionLetter(pt)
		if pt == nchess.Pawn {
			letter = "p"
		}
		if lost := initial - counts[nchess.White][pt]; lost > 0 {
			captured.ByBlack[letter] = lost
		}
		if lost := initial - counts[nchess.Black][pt]; lost > 0 {
			captured.ByWhite[letter] = lost
		}
	}
	return Material{White: totals[nchess.White], Black: totals[nchess.Black]}, captured
}
