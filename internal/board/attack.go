package board

import nchess "github.com/corentings/chess/v2"

func findKing(squares map[nchess.Square]nchess.Piece, c nchess.Color) (nchess.Square, bool) {
	for sq, p := range squares {
		if p != nchess.NoPiece && p.Type() == nchess.King && p.Color() == c {
			return sq, true
		}
	}
	return nchess.NoSquare, false
}

func pieceOn(squares map[nchess.Square]nchess.Piece, file, rank int) (nchess.Piece, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return nchess.NoPiece, false
	}
	p, ok := squares[nchess.NewSquare(nchess.File(file), nchess.Rank(rank))]
	if !ok {
		return nchess.NoPiece, true
	}
	return p, true
}

// isAttacked reports whether target is attacked by any piece of color by.
func isAttacked(squares map[nchess.Square]nchess.Piece, target nchess.Square, by nchess.Color) bool {
	tf, tr := int(target.File()), int(target.Rank())

	pawnRank := tr - 1
	if by == nchess.Black {
		pawnRank = tr + 1
	}
	for _, df := range []int{-1, 1} {
		if p, ok := pieceOn(squares, tf+df, pawnRank); ok && p.Type() == nchess.Pawn && p.Color() == by {
			return true
		}
	}

	for _, d := range [][2]int{{1, 2}, {2, 1}, {-1, 2}, {-2, 1}, {1, -2}, {2, -1}, {-1, -2}, {-2, -1}} {
		if p, ok := pieceOn(squares, tf+d[0], tr+d[1]); ok && p.Type() == nchess.Knight && p.Color() == by {
			return true
		}
	}

	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			if p, ok := pieceOn(squares, tf+df, tr+dr); ok && p.Type() == nchess.King && p.Color() == by {
				return true
			}
		}
	}

	straight := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonal := [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	if slides(squares, tf, tr, straight, by, nchess.Rook) || slides(squares, tf, tr, diagonal, by, nchess.Bishop) {
		return true
	}
	return false
}

func slides(squares map[nchess.Square]nchess.Piece, tf, tr int, dirs [][2]int, by nchess.Color, slider nchess.PieceType) bool {
	for _, d := range dirs {
		f, r := tf+d[0], tr+d[1]
		for {
			p, ok := pieceOn(squares, f, r)
			if !ok {
				break
			}
			if p != nchess.NoPiece {
				if p.Color() == by && (p.Type() == slider || p.Type() == nchess.Queen) {
					return true
				}
				break
			}
			f += d[0]
			r += d[1]
		}
	}
	return false
}
