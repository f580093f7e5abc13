package board

import (
	"errors"
	"testing"
)

func TestApply_ReturnsNewBoardAndSAN(t *testing.T) {
	b := Start()
	next, mv, err := b.Apply("e2e4")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if next == b {
		t.Fatalf("Apply must return a new board value")
	}
	if b.FEN() != StartFEN {
		t.Fatalf("receiver mutated: %s", b.FEN())
	}
	if mv.SAN != "e4" || mv.UCI != "e2e4" {
		t.Fatalf("unexpected move: %+v", mv)
	}
	if next.Turn() != Black {
		t.Fatalf("expected black to move")
	}
	if next.Plies() != 1 {
		t.Fatalf("plies: %d", next.Plies())
	}
}

func TestApply_Illegal(t *testing.T) {
	b := Start()
	if _, _, err := b.Apply("e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if _, _, err := b.Apply("zz"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove for garbage, got %v", err)
	}
}

func TestApplySAN(t *testing.T) {
	b := Start()
	next, mv, err := b.ApplySAN("Nf3")
	if err != nil {
		t.Fatalf("ApplySAN: %v", err)
	}
	if mv.UCI != "g1f3" {
		t.Fatalf("uci: %q", mv.UCI)
	}
	if next.Turn() != Black {
		t.Fatalf("turn")
	}
}

func TestLegalTargets(t *testing.T) {
	b := Start()
	targets := b.LegalTargets("e2")
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets for e2, got %v", targets)
	}
	if !b.IsLegal("g1", "f3") || b.IsLegal("g1", "g3") {
		t.Fatalf("IsLegal mismatch")
	}
}

func TestNeedsPromotion(t *testing.T) {
	b, err := FromFEN("8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if !b.NeedsPromotion("e7", "e8") {
		t.Fatalf("expected promotion to be required")
	}
	if b.NeedsPromotion("e1", "d1") {
		t.Fatalf("king move is not a promotion")
	}
	next, mv, err := b.Apply("e7e8q")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if mv.Promotion != "q" || next.Grid()[0][4] != "Q" {
		t.Fatalf("promotion not applied: %+v grid=%q", mv, next.Grid()[0][4])
	}
}

func TestCheckAndMate(t *testing.T) {
	// Fool's mate.
	b := Start()
	var err error
	for _, m := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		b, _, err = b.Apply(m)
		if err != nil {
			t.Fatalf("apply %s: %v", m, err)
		}
	}
	if !b.InCheck() || !b.IsCheckmate() || b.IsStalemate() {
		t.Fatalf("expected checkmate: check=%v mate=%v", b.InCheck(), b.IsCheckmate())
	}
}

func TestStalemate(t *testing.T) {
	b, err := FromFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if b.InCheck() || !b.IsStalemate() {
		t.Fatalf("expected stalemate")
	}
}

func TestInCheck_FromFEN(t *testing.T) {
	b, err := FromFEN("4k3/8/8/8/8/8/8/4R1K1 b - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if !b.InCheck() {
		t.Fatalf("rook on e-file should give check")
	}
	if b.IsCheckmate() {
		t.Fatalf("king can step aside")
	}
}

func TestMaterial(t *testing.T) {
	b, err := FromFEN("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	m, captured := b.Material()
	if m.Diff() != 9 {
		t.Fatalf("diff: %d", m.Diff())
	}
	if captured.ByWhite["q"] != 1 {
		t.Fatalf("captured: %+v", captured)
	}
}

func TestPliesFromFEN(t *testing.T) {
	if PliesFromFEN(StartFEN) != 0 {
		t.Fatalf("start")
	}
	if PliesFromFEN("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2") != 2 {
		t.Fatalf("after 1.e4 e5")
	}
	if PliesFromFEN("garbage") != 0 {
		t.Fatalf("garbage")
	}
}
