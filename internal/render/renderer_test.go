package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/chessonline-client/internal/board"
)

func TestRenderPNGDecodes(t *testing.T) {
	b, _, err := board.Start().Apply("e2e4")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	r := NewSVGRenderer()
	data, err := r.RenderPNG(context.Background(), b, Options{
		LastMove:     &Highlight{From: "e2", To: "e4"},
		Header:       "alice vs bob",
		Turn:         "Black to move",
		WhiteClock:   "04:59",
		BlackClock:   "05:00",
		ShowMaterial: true,
	})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin)
	if img.Bounds() != want {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestLayoutFlipsForBlack(t *testing.T) {
	white := layout{origin: image.Pt(sideMargin, topMargin)}
	black := layout{origin: image.Pt(sideMargin, topMargin), flipped: true}

	a1 := white.rect(nchess.A1)
	if a1.Min.X != sideMargin || a1.Max.Y != topMargin+boardSize {
		t.Fatalf("a1 must be bottom-left for white, got %v", a1)
	}
	if got := black.rect(nchess.H8); got != a1 {
		t.Fatalf("h8 must be bottom-left for black, got %v", got)
	}
}

func TestEveryPieceAssetParses(t *testing.T) {
	for _, p := range []nchess.Piece{
		nchess.WhiteKing, nchess.WhiteQueen, nchess.WhiteRook, nchess.WhiteBishop, nchess.WhiteKnight, nchess.WhitePawn,
		nchess.BlackKing, nchess.BlackQueen, nchess.BlackRook, nchess.BlackBishop, nchess.BlackKnight, nchess.BlackPawn,
	} {
		img, err := pieceImage(p, 32)
		if err != nil {
			t.Fatalf("piece %v: %v", p, err)
		}
		if img.Bounds().Dx() != 32 {
			t.Fatalf("piece %v has size %v", p, img.Bounds())
		}
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSVGRenderer().RenderPNG(ctx, board.Start(), Options{}); err == nil {
		t.Fatalf("cancelled context must abort rendering")
	}
}
