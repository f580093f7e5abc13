package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/board"
)

// fakeEngine answers the UCI subset a session uses with a fixed score.
func fakeEngine(t *testing.T, scoreCP int) *Session {
	t.Helper()
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	go func() {
		defer stdoutW.Close()
		sc := bufio.NewScanner(stdinR)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			var reply string
			switch {
			case line == "uci":
				reply = "id name Fake\nuciok\n"
			case line == "isready":
				reply = "readyok\n"
			case strings.HasPrefix(line, "go "):
				reply = fmt.Sprintf("info depth 3 seldepth 4 multipv 1 score cp %d nodes 100 pv e2e4 e7e5\nbestmove e2e4 ponder e7e5\n", scoreCP)
			}
			if reply != "" {
				if _, err := io.WriteString(stdoutW, reply); err != nil {
					return
				}
			}
		}
	}()
	s := newSession(stdinW, stdoutR, zap.NewNop())
	t.Cleanup(func() {
		_ = s.Close()
		_ = stdoutR.Close()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.initialize(ctx, DefaultOptions()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s
}

func TestParseInfo(t *testing.T) {
	mv, cand, ok := parseInfo("info depth 20 multipv 2 score cp -41 nodes 1 pv g1f3 d7d5 d2d4")
	if !ok || mv != 2 || cand.EvalCP != -41 || cand.Move != "g1f3" || len(cand.Principal) != 3 {
		t.Fatalf("unexpected parse: %d %+v %v", mv, cand, ok)
	}
	_, cand, ok = parseInfo("info depth 9 score mate -3 pv h7h8q")
	if !ok || cand.EvalCP != -MateScore || cand.Mate != -3 {
		t.Fatalf("mate score not mapped: %+v", cand)
	}
	if _, _, ok := parseInfo("info depth 1 currmove e2e4"); ok {
		t.Fatalf("line without pv must be skipped")
	}
}

func TestCommandBuilding(t *testing.T) {
	if got := buildPositionCommand("", []string{"e2e4", "e7e5"}); got != "position startpos moves e2e4 e7e5\n" {
		t.Fatalf("unexpected position command %q", got)
	}
	if got := buildPositionCommand("8/8/8/8/8/8/8/K1k5 w - - 0 1", nil); got != "position fen 8/8/8/8/8/8/8/K1k5 w - - 0 1\n" {
		t.Fatalf("unexpected position command %q", got)
	}
	tokens, err := buildGoTokens(Limits{Depth: 12})
	if err != nil || strings.Join(tokens, " ") != "go depth 12" {
		t.Fatalf("unexpected go tokens %v %v", tokens, err)
	}
	if _, err := buildGoTokens(Limits{}); err == nil {
		t.Fatalf("empty limits must be rejected")
	}
	if d := computeSearchTimeout(Limits{Depth: 100}); d != 30*time.Second {
		t.Fatalf("timeout must be capped, got %v", d)
	}
}

func TestEvaluateReportsWhitePerspective(t *testing.T) {
	s := fakeEngine(t, 35)
	ctx := context.Background()

	ev, err := s.Evaluate(ctx, board.StartFEN, 3)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.ScoreCP != 35 || ev.BestMove != "e2e4" || len(ev.PV) != 2 {
		t.Fatalf("unexpected evaluation %+v", ev)
	}

	after, _, err := board.Start().Apply("e2e4")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	ev, err = s.Evaluate(ctx, after.FEN(), 3)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.ScoreCP != -35 {
		t.Fatalf("black-to-move score must be negated, got %d", ev.ScoreCP)
	}
}

func TestPoolReusesSessions(t *testing.T) {
	var created atomic.Int32
	p := newPool(1, zap.NewNop(), func(context.Context) (*Session, error) {
		created.Add(1)
		return fakeEngine(t, 10), nil
	})
	t.Cleanup(func() { _ = p.Close() })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ev, err := p.Evaluate(ctx, board.StartFEN, 2)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if ev.ScoreCP != 10 {
			t.Fatalf("unexpected score %d", ev.ScoreCP)
		}
	}
	if created.Load() != 1 {
		t.Fatalf("expected a single warm session, got %d", created.Load())
	}

	held, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(waitCtx); err == nil {
		t.Fatalf("Acquire beyond capacity must wait")
	}
	p.Release(held, nil)
}
