package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/engine"
	"github.com/park285/chessonline-client/internal/history"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

type tableEvaluator struct {
	scores map[string]int
	calls  int
}

func (e *tableEvaluator) Evaluate(_ context.Context, fen string, _ int) (engine.Evaluation, error) {
	e.calls++
	score, ok := e.scores[fen]
	if !ok {
		return engine.Evaluation{}, errors.New("unknown position " + fen)
	}
	return engine.Evaluation{ScoreCP: score, BestMove: "g1f3"}, nil
}

type fakeRemote struct {
	gotMoves []string
	gotFEN   string
}

func (r *fakeRemote) AnalyzeGame(_ context.Context, gameID string, moves []string, startFEN string, _ int) (*chessdto.AnalysisResponse, error) {
	r.gotMoves, r.gotFEN = moves, startFEN
	return Summarize(gameID, []chessdto.MoveAnalysis{{MoveNumber: 1, IsWhiteMove: true, Move: "e4"}}), nil
}

type fakeSource struct {
	game  chessdto.GameResponse
	moves []chessdto.MoveResponse
}

func (s fakeSource) GetGame(context.Context, string) (*chessdto.GameResponse, error) {
	g := s.game
	return &g, nil
}

func (s fakeSource) GetGameMoves(context.Context, string) ([]chessdto.MoveResponse, error) {
	return s.moves, nil
}

func mustReplay(t *testing.T, ucis ...string) history.History {
	t.Helper()
	h, err := history.ReplayUCI(board.StartFEN, ucis)
	if err != nil {
		t.Fatalf("ReplayUCI: %v", err)
	}
	return h
}

func TestClassifyThresholds(t *testing.T) {
	cases := map[int]Severity{
		-40: SeverityNone,
		20:  SeverityNone,
		21:  SeverityInaccuracy,
		50:  SeverityInaccuracy,
		51:  SeverityMistake,
		200: SeverityMistake,
		201: SeverityBlunder,
	}
	for loss, want := range cases {
		if got := Classify(loss); got != want {
			t.Fatalf("Classify(%d) = %v, want %v", loss, got, want)
		}
	}
}

func TestSummarizeAccuracyFloorsAtZero(t *testing.T) {
	moves := make([]chessdto.MoveAnalysis, 0, 24)
	for i := 0; i < 22; i++ {
		moves = append(moves, chessdto.MoveAnalysis{IsWhiteMove: true, IsBlunder: true, IsMistake: true})
	}
	moves = append(moves, chessdto.MoveAnalysis{IsWhiteMove: false, IsMistake: true})
	res := Summarize("g", moves)
	if res.WhiteBlunders != 22 || res.WhiteMistakes != 0 {
		t.Fatalf("blunder must take precedence: %+v", res)
	}
	if res.WhiteAccuracy != 0 || res.BlackAccuracy != 98 {
		t.Fatalf("unexpected accuracy %v / %v", res.WhiteAccuracy, res.BlackAccuracy)
	}
}

func TestAnalyzeLocalScoresFromMoverSide(t *testing.T) {
	h := mustReplay(t, "e2e4", "e7e5", "g1f3")
	ev := &tableEvaluator{scores: map[string]int{
		h.StartFEN:       20,
		h.Entries[0].FEN: 30,
		h.Entries[1].FEN: 300,
		h.Entries[2].FEN: 240,
	}}
	v := NewViewer(chessdto.GameResponse{ID: "g1"}, h, WithEvaluator(ev))

	res, err := v.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if ev.calls != 4 {
		t.Fatalf("expected one evaluation per position, got %d", ev.calls)
	}
	if len(res.Moves) != 3 || res.TotalMoves != 3 {
		t.Fatalf("unexpected moves %+v", res.Moves)
	}
	if m := res.Moves[0]; m.IsInaccuracy || m.IsMistake || m.IsBlunder || !m.IsWhiteMove || m.Move != "e4" {
		t.Fatalf("an improving move is not an error: %+v", m)
	}
	if m := res.Moves[1]; !m.IsBlunder || m.IsWhiteMove || m.MoveNumber != 1 {
		t.Fatalf("black losing 270cp is a blunder: %+v", m)
	}
	if m := res.Moves[2]; !m.IsMistake || m.MoveNumber != 2 || m.BestMove != "" {
		t.Fatalf("white losing 60cp is a mistake that matched the engine move: %+v", m)
	}
	if res.WhiteAccuracy != 98 || res.BlackAccuracy != 95 {
		t.Fatalf("unexpected accuracy %v / %v", res.WhiteAccuracy, res.BlackAccuracy)
	}
	if v.Result() != res {
		t.Fatalf("result must be retained by the viewer")
	}
}

func TestAnalyzeFallsBackToRemote(t *testing.T) {
	h := mustReplay(t, "e2e4")
	remote := &fakeRemote{}
	v := NewViewer(chessdto.GameResponse{ID: "g2"}, h, WithRemote(remote))
	if _, err := v.Current(); !errors.Is(err, ErrNotAnalyzed) {
		t.Fatalf("expected ErrNotAnalyzed, got %v", err)
	}
	res, err := v.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.GameID != "g2" || strings.Join(remote.gotMoves, " ") != "e2e4" || remote.gotFEN != board.StartFEN {
		t.Fatalf("unexpected remote request %v %q", remote.gotMoves, remote.gotFEN)
	}
	cur, err := v.Current()
	if err != nil || cur.Move != "e4" {
		t.Fatalf("cursor analysis mismatch: %+v %v", cur, err)
	}
}

func TestAnalyzeRawHistoryUsesRemote(t *testing.T) {
	h := history.Replay(board.StartFEN, []chessdto.MoveResponse{{SAN: "e4"}, {SAN: "Ke8??", FEN: "x"}})
	ev := &tableEvaluator{}
	remote := &fakeRemote{}
	v := NewViewer(chessdto.GameResponse{ID: "g3"}, h, WithEvaluator(ev), WithRemote(remote))
	if _, err := v.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if ev.calls != 0 || remote.gotMoves == nil {
		t.Fatalf("broken history must be analysed remotely")
	}

	bare := NewViewer(chessdto.GameResponse{ID: "g4"}, h)
	if _, err := bare.Analyze(context.Background()); !errors.Is(err, ErrNoAnalyzer) {
		t.Fatalf("expected ErrNoAnalyzer, got %v", err)
	}
}

func TestLoadNavigatesAndNamesOpening(t *testing.T) {
	src := fakeSource{
		game: chessdto.GameResponse{ID: "g5", Status: "FINISHED"},
		moves: []chessdto.MoveResponse{
			{MoveNumber: 1, SAN: "e4"}, {MoveNumber: 1, SAN: "e5"}, {MoveNumber: 2, SAN: "Nf3"},
		},
	}
	v, err := Load(context.Background(), src, "g5")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if o := v.Opening(); !strings.HasPrefix(o.Code, "C") || o.Title == "" {
		t.Fatalf("expected an open game ECO code, got %+v", o)
	}

	fen, e := v.Position()
	if e == nil || e.SAN != "Nf3" || fen != v.History().Entries[2].FEN {
		t.Fatalf("viewer must open on the final move: %v %q", e, fen)
	}
	v.GoToStart()
	if fen, e := v.Position(); e != nil || fen != board.StartFEN {
		t.Fatalf("start must show the initial position: %v %q", e, fen)
	}
	v.GoToPrevious()
	if v.Cursor().Index != -1 {
		t.Fatalf("previous at start must stay put, got %d", v.Cursor().Index)
	}
	v.GoToNext()
	v.GoToNext()
	if _, e := v.Position(); e == nil || e.SAN != "e5" {
		t.Fatalf("expected e5 after two steps, got %+v", e)
	}
	v.GoToMove(99)
	if c := v.Cursor(); c.Index != 2 || !c.Viewing {
		t.Fatalf("goto must clamp to the last move: %+v", c)
	}
	v.GoToLatest()
	if v.Cursor().Viewing {
		t.Fatalf("latest must stop viewing")
	}
}
