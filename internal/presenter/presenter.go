package presenter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/game"
	"github.com/park285/chessonline-client/internal/puzzle"
	"github.com/park285/chessonline-client/internal/render"
	"github.com/park285/chessonline-client/internal/util"
)

// Presenter delivers formatted messages and board images to the terminal
// without coupling to the command layer. Writes are serialised so push
// callbacks and the prompt never interleave mid-line.
type Presenter struct {
	out      io.Writer
	renderer render.Renderer
	dir      string
	fmt      *Formatter
	logger   *zap.Logger
	now      func() time.Time

	mu sync.Mutex
}

func New(out io.Writer, f *Formatter, renderer render.Renderer, dir string, logger *zap.Logger) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{out: out, fmt: f, renderer: renderer, dir: dir, logger: logger, now: time.Now}
}

func (p *Presenter) Formatter() *Formatter { return p.fmt }

// Println writes text followed by a newline; blank text is dropped.
func (p *Presenter) Println(text string) {
	if p == nil || strings.TrimSpace(text) == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.out, text); err != nil {
		p.logger.Debug("presenter_write_error", zap.Error(err))
	}
}

// Say renders a catalog entry and prints it.
func (p *Presenter) Say(key string, data map[string]any) {
	p.Println(p.fmt.Text(key, data))
}

func (p *Presenter) Error(err error) {
	if err == nil {
		return
	}
	p.Say("common.error", vars{"Error": err.Error()})
}

func (p *Presenter) Game(v game.View) {
	p.Println(p.fmt.Game(v))
}

// GameEvent prints the notice for ev and, on state changes, the whole view.
func (p *Presenter) GameEvent(ev game.Event) {
	switch ev.Kind {
	case game.EventClock:
		return
	case game.EventState:
		p.Game(ev.View)
		return
	}
	p.Println(p.fmt.Event(ev))
}

func (p *Presenter) Puzzle(s puzzle.Session) {
	p.Println(p.fmt.Puzzle(s, p.now()))
}

// SaveBoard renders b to a PNG under the render directory and returns its path.
func (p *Presenter) SaveBoard(ctx context.Context, name string, b *board.Board, opts render.Options) (string, error) {
	if p.renderer == nil {
		return "", fmt.Errorf("no renderer configured")
	}
	png, err := p.renderer.RenderPNG(ctx, b, opts)
	if err != nil {
		return "", fmt.Errorf("render board: %w", err)
	}
	dir := p.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create render dir: %w", err)
	}
	path := filepath.Join(dir, sanitizeFileName(name)+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write png: %w", err)
	}
	p.logger.Debug("board_png_saved", zap.String("path", path), zap.Int("bytes", len(png)))
	return path, nil
}

// SaveGameBoard renders the displayed position of v from the player's side.
func (p *Presenter) SaveGameBoard(ctx context.Context, v game.View) (string, error) {
	b, err := board.FromFEN(v.DisplayFEN)
	if err != nil {
		return "", err
	}
	orientation := v.MyColor
	if orientation == "" {
		orientation = board.White
	}
	opts := render.Options{
		Orientation:  orientation,
		Header:       v.Snapshot.NameOf(board.White) + " vs " + v.Snapshot.NameOf(board.Black),
		WhiteClock:   util.FormatClock(v.WhiteMs),
		BlackClock:   util.FormatClock(v.BlackMs),
		ShowMaterial: true,
	}
	last := v.LastMove
	if v.Cursor.Viewing {
		last = ""
		if i := v.Cursor.Index; i >= 0 && i < v.History.Len() {
			last = v.History.Entries[i].UCI
		}
	}
	if len(last) >= 4 {
		opts.LastMove = &render.Highlight{From: last[:2], To: last[2:4]}
	}
	name := v.Snapshot.ID
	if name == "" {
		name = "board"
	}
	return p.SaveBoard(ctx, name, b, opts)
}

func sanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" {
		return "board"
	}
	return name
}
