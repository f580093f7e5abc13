// Package render draws board positions as PNG images.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/park285/chessonline-client/internal/board"
)

// Highlight marks the last move with from/to squares in algebraic form ("e2", "e4").
type Highlight struct {
	From string
	To   string
}

// Options controls what surrounds the board.
type Options struct {
	// Orientation is the side drawn at the bottom; empty means white.
	Orientation board.Color
	LastMove    *Highlight
	Header      string
	Turn        string
	WhiteClock  string
	BlackClock  string
	// ShowMaterial adds the material balance panel.
	ShowMaterial bool
}

type Renderer interface {
	RenderPNG(ctx context.Context, b *board.Board, opts Options) ([]byte, error)
}

const (
	squareSize   = 64
	boardSize    = squareSize * 8
	sideMargin   = 28
	topMargin    = 96
	bottomMargin = 52
	panelRadius  = 8
	panelHeight  = 28
	panelPadding = 14
	panelGap     = 10
	shadowOffset = 4
)

var (
	lightSquare      = color.RGBA{233, 207, 163, 255}
	darkSquare       = color.RGBA{187, 136, 96, 255}
	background       = color.RGBA{22, 24, 34, 255}
	whiteMoveFill    = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow   = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	neutralMoveArrow = color.NRGBA{R: 182, G: 184, B: 190, A: 140}
	hudPanelColor    = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudActiveColor   = color.NRGBA{R: 56, G: 92, B: 64, A: 250}
	hudShadowColor   = color.NRGBA{0, 0, 0, 60}
	hudTextPrimary   = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateColor  = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

type svgRenderer struct {
	face font.Face
}

func NewSVGRenderer() Renderer {
	return &svgRenderer{face: basicfont.Face7x13}
}

// layout maps squares to pixels for one orientation.
type layout struct {
	origin  image.Point
	flipped bool
}

func (l layout) rect(sq nchess.Square) image.Rectangle {
	col, row := int(sq.File()), 7-int(sq.Rank())
	if l.flipped {
		col, row = 7-col, 7-row
	}
	x := l.origin.X + col*squareSize
	y := l.origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func (l layout) center(sq nchess.Square) image.Point {
	r := l.rect(sq)
	return image.Pt(r.Min.X+squareSize/2, r.Min.Y+squareSize/2)
}

func (r *svgRenderer) RenderPNG(ctx context.Context, b *board.Board, opts Options) ([]byte, error) {
	if b == nil {
		return nil, errors.New("board is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, imagedraw.Src)

	lay := layout{origin: image.Pt(sideMargin, topMargin), flipped: opts.Orientation == board.Black}
	native := b.Native()

	drawSquares(img, lay)
	drawHighlight(img, native, lay, opts.LastMove)
	if err := drawPieces(img, native, lay); err != nil {
		return nil, err
	}
	r.drawCoordinates(img, lay)
	r.drawHUD(img, b, lay, opts)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func allSquares() []nchess.Square {
	out := make([]nchess.Square, 0, 64)
	for sq := nchess.A1; sq <= nchess.H8; sq++ {
		out = append(out, sq)
	}
	return out
}

func drawSquares(img *image.RGBA, lay layout) {
	for _, sq := range allSquares() {
		clr := lightSquare
		if (int(sq.File())+int(sq.Rank()))%2 == 0 {
			clr = darkSquare
		}
		imagedraw.Draw(img, lay.rect(sq), image.NewUniform(clr), image.Point{}, imagedraw.Src)
	}
}

func drawPieces(img *image.RGBA, native *nchess.Board, lay layout) error {
	for sq, piece := range native.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		pimg, err := pieceImage(piece, squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(img, lay.rect(sq), pimg, image.Point{}, imagedraw.Over)
	}
	return nil
}

// drawHighlight fills white's last move and draws an arrow for black's.
func drawHighlight(img *image.RGBA, native *nchess.Board, lay layout, h *Highlight) {
	if h == nil {
		return
	}
	from, err1 := board.ParseSquare(h.From)
	to, err2 := board.ParseSquare(h.To)
	if err1 != nil || err2 != nil {
		return
	}
	mover := nchess.NoColor
	if p := native.Piece(to); p != nchess.NoPiece {
		mover = p.Color()
	} else if p := native.Piece(from); p != nchess.NoPiece {
		mover = p.Color()
	}
	switch mover {
	case nchess.White:
		imagedraw.Draw(img, lay.rect(from), image.NewUniform(whiteMoveFill), image.Point{}, imagedraw.Over)
		imagedraw.Draw(img, lay.rect(to), image.NewUniform(whiteMoveFill), image.Point{}, imagedraw.Over)
	case nchess.Black:
		drawArrow(img, lay.center(from), lay.center(to), squareSize, blackMoveArrow)
	default:
		drawArrow(img, lay.center(from), lay.center(to), squareSize, neutralMoveArrow)
	}
}

func (r *svgRenderer) drawCoordinates(img *image.RGBA, lay layout) {
	d := &font.Drawer{Dst: img, Face: r.face, Src: image.NewUniform(coordinateColor)}
	for i := 0; i < 8; i++ {
		file := nchess.File(i)
		rank := nchess.Rank(i)
		fileRect := lay.rect(nchess.NewSquare(file, nchess.Rank1))
		rankRect := lay.rect(nchess.NewSquare(nchess.FileA, rank))
		drawCenteredString(d, image.Rect(fileRect.Min.X, lay.origin.Y+boardSize, fileRect.Max.X, lay.origin.Y+boardSize+18), file.String(), coordinateColor)
		drawCenteredString(d, image.Rect(0, rankRect.Min.Y, sideMargin, rankRect.Max.Y), rank.String(), coordinateColor)
	}
}

// drawHUD puts the header above the board, the top player's clock under it and
// the bottom player's clock below the board. The side to move gets the active panel.
func (r *svgRenderer) drawHUD(img *image.RGBA, b *board.Board, lay layout, opts Options) {
	d := &font.Drawer{Dst: img, Face: r.face}
	boardRect := image.Rect(lay.origin.X, lay.origin.Y, lay.origin.X+boardSize, lay.origin.Y+boardSize)

	header := strings.TrimSpace(opts.Header)
	if header == "" {
		header = "Chess Online"
	}
	headerRect := image.Rect(boardRect.Min.X, 12, boardRect.Max.X, 12+panelHeight)
	r.panel(img, d, headerRect, header, hudPanelColor)

	bottom := board.White
	if lay.flipped {
		bottom = board.Black
	}
	clockFor := func(c board.Color) string {
		if c == board.White {
			return opts.WhiteClock
		}
		return opts.BlackClock
	}
	panelColor := func(c board.Color) color.Color {
		if b.Turn() == c {
			return hudActiveColor
		}
		return hudPanelColor
	}

	row := image.Rect(boardRect.Min.X, headerRect.Max.Y+panelGap, boardRect.Min.X, headerRect.Max.Y+panelGap+panelHeight)
	if clk := clockFor(bottom.Opposite()); clk != "" {
		r.panel(img, d, r.fit(row, clk), clk, panelColor(bottom.Opposite()))
	}
	turn := strings.TrimSpace(opts.Turn)
	if turn != "" {
		w := d.MeasureString(turn).Round() + panelPadding*2
		left := boardRect.Min.X + (boardRect.Dx()-w)/2
		r.panel(img, d, image.Rect(left, row.Min.Y, left+w, row.Max.Y), turn, hudPanelColor)
	}
	if opts.ShowMaterial {
		mat, _ := b.Material()
		text := "0"
		if diff := mat.Diff(); diff != 0 {
			text = fmt.Sprintf("%+d", diff)
		}
		w := d.MeasureString(text).Round() + panelPadding*2
		r.panel(img, d, image.Rect(boardRect.Max.X-w, row.Min.Y, boardRect.Max.X, row.Max.Y), text, hudPanelColor)
	}

	below := image.Rect(boardRect.Min.X, boardRect.Max.Y+20, boardRect.Min.X, boardRect.Max.Y+20+panelHeight)
	if clk := clockFor(bottom); clk != "" {
		r.panel(img, d, r.fit(below, clk), clk, panelColor(bottom))
	}
}

func (r *svgRenderer) fit(row image.Rectangle, text string) image.Rectangle {
	w := font.MeasureString(r.face, text).Round() + panelPadding*2
	return image.Rect(row.Min.X, row.Min.Y, row.Min.X+w, row.Max.Y)
}

func (r *svgRenderer) panel(img *image.RGBA, d *font.Drawer, rect image.Rectangle, text string, fill color.Color) {
	drawRoundedPanel(img, rect.Add(image.Pt(0, shadowOffset)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, rect, panelRadius, fill)
	text = truncateWithEllipsis(r.face, text, rect.Dx()-panelPadding*2)
	drawCenteredString(d, rect, text, hudTextPrimary)
}
