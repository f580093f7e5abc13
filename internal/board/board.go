package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN    = errors.New("invalid fen")
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidSquare = errors.New("invalid square")
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// Move describes one applied half-move.
type Move struct {
	UCI       string
	SAN       string
	From      string
	To        string
	Promotion string
	Capture   bool
	Check     bool
}

// Board is an immutable chess position. Every transition returns a new *Board;
// the receiver is never modified, so pointer identity changes with the position.
type Board struct {
	fen  string
	game *nchess.Game
}

// Start returns the standard initial position.
func Start() *Board {
	b, _ := FromFEN(StartFEN)
	return b
}

// FromFEN parses a position. "startpos" and "" mean the initial position.
func FromFEN(fen string) (*Board, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		fen = StartFEN
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	game := nchess.NewGame(opt)
	return &Board{fen: game.FEN(), game: game}, nil
}

func (b *Board) FEN() string { return b.fen }

func (b *Board) Turn() Color {
	if b.game.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

// Apply plays a UCI move (e2e4, e7e8q) and returns the resulting board.
func (b *Board) Apply(uci string) (*Board, Move, error) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	if !validUCI(uci) {
		return nil, Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, uci)
	}
	return b.push(uci, nchess.UCINotation{})
}

// ApplySAN plays a move given in standard algebraic notation.
func (b *Board) ApplySAN(san string) (*Board, Move, error) {
	san = strings.TrimSpace(san)
	if san == "" {
		return nil, Move{}, fmt.Errorf("%w: empty", ErrIllegalMove)
	}
	return b.push(san, nchess.AlgebraicNotation{})
}

func (b *Board) push(text string, notation nchess.Notation) (*Board, Move, error) {
	prev := b.game.Position()
	next := b.game.Clone()
	if err := next.PushNotationMove(text, notation, nil); err != nil {
		return nil, Move{}, fmt.Errorf("%w: %q: %v", ErrIllegalMove, text, err)
	}
	moves := next.Moves()
	if len(moves) == 0 {
		return nil, Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, text)
	}
	last := moves[len(moves)-1]
	mv := Move{
		UCI:     last.String(),
		SAN:     nchess.AlgebraicNotation{}.Encode(prev, last),
		From:    last.S1().String(),
		To:      last.S2().String(),
		Capture: last.HasTag(nchess.Capture) || last.HasTag(nchess.EnPassant),
		Check:   last.HasTag(nchess.Check),
	}
	if p := promotionLetter(last.Promo()); p != "" {
		mv.Promotion = p
	}
	return &Board{fen: next.FEN(), game: next}, mv, nil
}

// LegalMoves lists every legal move in UCI form.
func (b *Board) LegalMoves() []string {
	valid := b.game.Position().ValidMoves()
	out := make([]string, 0, len(valid))
	for _, m := range valid {
		out = append(out, m.S1().String()+m.S2().String()+promotionLetter(m.Promo()))
	}
	return out
}

// LegalTargets lists destination squares reachable from a square, without duplicates.
func (b *Board) LegalTargets(from string) []string {
	from = strings.ToLower(strings.TrimSpace(from))
	seen := map[string]bool{}
	var out []string
	for _, m := range b.game.Position().ValidMoves() {
		if m.S1().String() != from {
			continue
		}
		to := m.S2().String()
		if seen[to] {
			continue
		}
		seen[to] = true
		out = append(out, to)
	}
	return out
}

// IsLegal reports whether from→to is legal, ignoring the promotion piece.
func (b *Board) IsLegal(from, to string) bool {
	for _, t := range b.LegalTargets(from) {
		if t == strings.ToLower(strings.TrimSpace(to)) {
			return true
		}
	}
	return false
}

// NeedsPromotion reports whether from→to is a legal pawn move onto the last rank.
func (b *Board) NeedsPromotion(from, to string) bool {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	for _, m := range b.game.Position().ValidMoves() {
		if m.S1().String() == from && m.S2().String() == to && m.Promo() != nchess.NoPieceType {
			return true
		}
	}
	return false
}

func (b *Board) InCheck() bool {
	turn := b.game.Position().Turn()
	squares := b.game.Position().Board().SquareMap()
	king, ok := findKing(squares, turn)
	if !ok {
		return false
	}
	return isAttacked(squares, king, turn.Other())
}

func (b *Board) IsCheckmate() bool {
	return len(b.game.Position().ValidMoves()) == 0 && b.InCheck()
}

func (b *Board) IsStalemate() bool {
	return len(b.game.Position().ValidMoves()) == 0 && !b.InCheck()
}

// Plies derives the number of half-moves played since the standard start from
// the FEN move counters.
func (b *Board) Plies() int {
	return PliesFromFEN(b.fen)
}

// PliesFromFEN returns 0 for malformed input.
func PliesFromFEN(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 0
	}
	full, err := strconv.Atoi(fields[5])
	if err != nil || full < 1 {
		return 0
	}
	plies := (full - 1) * 2
	if fields[1] == "b" {
		plies++
	}
	return plies
}

// SideToMove reads the active color from a FEN without a full parse.
func SideToMove(fen string) Color {
	fields := strings.Fields(fen)
	if len(fields) >= 2 && fields[1] == "b" {
		return Black
	}
	return White
}

// Grid returns piece letters indexed [row][col], row 0 = rank 8, col 0 = file a.
// Empty squares hold "".
func (b *Board) Grid() [8][8]string {
	var grid [8][8]string
	squares := b.game.Position().Board().SquareMap()
	for sq, piece := range squares {
		if piece == nchess.NoPiece {
			continue
		}
		row := 7 - int(sq.Rank())
		col := int(sq.File())
		if row < 0 || row > 7 || col < 0 || col > 7 {
			continue
		}
		grid[row][col] = pieceLetter(piece)
	}
	return grid
}

// Native exposes the underlying position board for renderers. Callers must not mutate it.
func (b *Board) Native() *nchess.Board {
	return b.game.Position().Board()
}

// ParseSquare converts "e4" into a library square.
func ParseSquare(s string) (nchess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !validSquare(s) {
		return nchess.NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	file := nchess.File(s[0] - 'a')
	rank := nchess.Rank(s[1] - '1')
	return nchess.NewSquare(file, rank), nil
}

func validSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

func validUCI(s string) bool {
	if len(s) != 4 && len(s) != 5 {
		return false
	}
	if !validSquare(s[0:2]) || !validSquare(s[2:4]) {
		return false
	}
	if len(s) == 5 {
		return strings.ContainsRune("qrbn", rune(s[4]))
	}
	return true
}

func promotionLetter(pt nchess.PieceType) string {
	switch pt {
	case nchess.Queen:
		return "q"
	case nchess.Rook:
		return "r"
	case nchess.Bishop:
		return "b"
	case nchess.Knight:
		return "n"
	default:
		return ""
	}
}

func pieceLetter(p nchess.Piece) string {
	var letter string
	switch p.Type() {
	case nchess.King:
		letter = "k"
	case nchess.Queen:
		letter = "q"
	case nchess.Rook:
		letter = "r"
	case nchess.Bishop:
		letter = "b"
	case nchess.Knight:
		letter = "n"
	case nchess.Pawn:
		letter = "p"
	default:
		return ""
	}
	if p.Color() == nchess.White {
		return strings.ToUpper(letter)
	}
	return letter
}
