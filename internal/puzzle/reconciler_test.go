package puzzle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/localstore"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

// blackToMoveStart is the initial position with black to move, so the
// scripted first move is black's.
const blackToMoveStart = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1"

type fakeTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (f *fakeTimers) after(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{fn: fn}
	f.timers = append(f.timers, t)
	f.delays = append(f.delays, d)
	return t
}

// fire runs every pending timer once.
func (f *fakeTimers) fire() int {
	f.mu.Lock()
	var due []*fakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	f.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

func (f *fakeTimers) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeAPI struct {
	mu       sync.Mutex
	checks   [][]string
	respond  func(moves []string) (*chessdto.CheckPuzzleSolutionResponse, error)
	hint     string
	hintReqs int
}

func (a *fakeAPI) CheckPuzzleSolution(_ context.Context, req chessdto.CheckPuzzleSolutionRequest) (*chessdto.CheckPuzzleSolutionResponse, error) {
	a.mu.Lock()
	a.checks = append(a.checks, append([]string(nil), req.Moves...))
	respond := a.respond
	a.mu.Unlock()
	return respond(req.Moves)
}

func (a *fakeAPI) GetPuzzleHint(_ context.Context, _ chessdto.PuzzleHintRequest) (*chessdto.PuzzleHintResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hintReqs++
	return &chessdto.PuzzleHintResponse{Move: a.hint}, nil
}

// solutionChecker answers like the backend for a fixed solution.
func solutionChecker(solution []string) func([]string) (*chessdto.CheckPuzzleSolutionResponse, error) {
	return func(moves []string) (*chessdto.CheckPuzzleSolutionResponse, error) {
		if len(moves) > len(solution) {
			return &chessdto.CheckPuzzleSolutionResponse{}, nil
		}
		for i, m := range moves {
			if solution[i] != m {
				return &chessdto.CheckPuzzleSolutionResponse{}, nil
			}
		}
		if len(moves) == len(solution) {
			return &chessdto.CheckPuzzleSolutionResponse{Correct: true, Complete: true}, nil
		}
		resp := &chessdto.CheckPuzzleSolutionResponse{Correct: true}
		if len(moves) < len(solution) {
			resp.NextMove = solution[len(moves)]
		}
		return resp, nil
	}
}

func newTestReconciler(t *testing.T, api *fakeAPI, hints HintStore, cb Callbacks) (*Reconciler, *fakeTimers) {
	t.Helper()
	timers := &fakeTimers{}
	r := NewReconciler(api, hints, WithAfterFunc(timers.after), WithCallbacks(cb))
	t.Cleanup(r.Close)
	return r, timers
}

func mustSession(t *testing.T, r *Reconciler) Session {
	t.Helper()
	s, ok := r.Session()
	if !ok {
		t.Fatalf("expected an active session")
	}
	return s
}

func TestFirstMoveAutoPlaysOnceAndSetsPlayerColor(t *testing.T) {
	api := &fakeAPI{respond: solutionChecker([]string{"e7e5", "e2e4"})}
	r, timers := newTestReconciler(t, api, nil, Callbacks{})
	p := chessdto.PuzzleResponse{ID: "p1", FEN: blackToMoveStart, Solution: []string{"e7e5", "e2e4"}}
	if err := r.Initialize(context.Background(), p); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	s := mustSession(t, r)
	if s.PlayerColor != board.White {
		t.Fatalf("player should be the side after the first move, got %s", s.PlayerColor)
	}
	if !s.OpponentMoving || len(s.Moves) != 0 {
		t.Fatalf("first move must wait for the delay")
	}
	if timers.delays[0] != 400*time.Millisecond {
		t.Fatalf("unexpected first move delay %v", timers.delays[0])
	}
	if _, err := r.SubmitUCI(context.Background(), "e2e4"); !errors.Is(err, ErrOpponentMoving) {
		t.Fatalf("moves must wait for the opponent, got %v", err)
	}

	r.PlayFirstMove()
	if timers.pending() != 1 {
		t.Fatalf("first move must be scheduled once, got %d timers", timers.pending())
	}
	timers.fire()
	s = mustSession(t, r)
	if len(s.Moves) != 1 || s.Moves[0] != "e7e5" || s.OpponentMoving {
		t.Fatalf("unexpected session after first move: %+v", s.Moves)
	}
	if s.Board.Turn() != board.White {
		t.Fatalf("white should be on move")
	}
}

func TestPlayerColorFallsBackToFENSideToMove(t *testing.T) {
	b, err := board.FromFEN(blackToMoveStart)
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if got := playerColorFor(b, ""); got != board.Black {
		t.Fatalf("expected black without a first move, got %s", got)
	}
	if got := playerColorFor(b, "a1a8"); got != board.Black {
		t.Fatalf("expected black for an unplayable first move, got %s", got)
	}
}

func TestCorrectMoveAutoAppliesReply(t *testing.T) {
	api := &fakeAPI{respond: func([]string) (*chessdto.CheckPuzzleSolutionResponse, error) {
		return &chessdto.CheckPuzzleSolutionResponse{Correct: true, NextMove: "g1f3"}, nil
	}}
	var corrected string
	r, timers := newTestReconciler(t, api, nil, Callbacks{OnCorrect: func(_ Session, next string) { corrected = next }})
	p := chessdto.PuzzleResponse{ID: "p1", FEN: blackToMoveStart, Solution: []string{"e7e5", "e2e4", "g1f3"}}
	if err := r.Initialize(context.Background(), p); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	timers.fire()

	out, err := r.SubmitUCI(context.Background(), "e2e4")
	if err != nil || out != OutcomeCorrect {
		t.Fatalf("SubmitUCI: %v %v", out, err)
	}
	if got := api.checks[0]; len(got) != 2 || got[0] != "e7e5" || got[1] != "e2e4" {
		t.Fatalf("check must send the full move list, got %v", got)
	}
	s := mustSession(t, r)
	if s.Status != StatusCorrect || !s.OpponentMoving {
		t.Fatalf("expected correct while the reply is pending, got %s", s.Status)
	}
	if corrected != "g1f3" {
		t.Fatalf("OnCorrect not called with next move, got %q", corrected)
	}
	if timers.delays[len(timers.delays)-1] != 600*time.Millisecond {
		t.Fatalf("unexpected reply delay %v", timers.delays[len(timers.delays)-1])
	}

	timers.fire()
	s = mustSession(t, r)
	want := []string{"e7e5", "e2e4", "g1f3"}
	if len(s.Moves) != len(want) {
		t.Fatalf("expected %v, got %v", want, s.Moves)
	}
	for i := range want {
		if s.Moves[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, s.Moves)
		}
	}
	if s.Status != StatusPlaying {
		t.Fatalf("status must return to playing, got %s", s.Status)
	}
}

func TestWrongMoveRollsBackExactly(t *testing.T) {
	api := &fakeAPI{respond: solutionChecker([]string{"e7e5", "g1f3", "b8c6"})}
	wrong := 0
	r, timers := newTestReconciler(t, api, nil, Callbacks{OnWrong: func(Session) { wrong++ }})
	p := chessdto.PuzzleResponse{ID: "p1", FEN: blackToMoveStart, Solution: []string{"e7e5", "g1f3", "b8c6"}}
	if err := r.Initialize(context.Background(), p); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	timers.fire()
	before := mustSession(t, r)

	out, err := r.SubmitUCI(context.Background(), "d2d4")
	if err != nil || out != OutcomeWrong {
		t.Fatalf("SubmitUCI: %v %v", out, err)
	}
	s := mustSession(t, r)
	if s.Board.FEN() != before.Board.FEN() {
		t.Fatalf("board must roll back to %s, got %s", before.Board.FEN(), s.Board.FEN())
	}
	if len(s.Moves) != len(before.Moves) {
		t.Fatalf("move list length must be unchanged, got %v", s.Moves)
	}
	if s.Status != StatusWrong || wrong != 1 {
		t.Fatalf("expected wrong status and callback, got %s %d", s.Status, wrong)
	}
	timers.fire()
	if s := mustSession(t, r); s.Status != StatusPlaying {
		t.Fatalf("wrong must reset to playing, got %s", s.Status)
	}
}

func TestIllegalMoveIsIgnored(t *testing.T) {
	api := &fakeAPI{respond: solutionChecker([]string{"e7e5", "g1f3"})}
	r, timers := newTestReconciler(t, api, nil, Callbacks{})
	if err := r.Initialize(context.Background(), chessdto.PuzzleResponse{ID: "p1", FEN: blackToMoveStart, Solution: []string{"e7e5", "g1f3"}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	timers.fire()
	before := mustSession(t, r)
	out, err := r.Submit(context.Background(), "e2", "e6")
	if err != nil || out != OutcomeIgnored {
		t.Fatalf("illegal move must be ignored silently, got %v %v", out, err)
	}
	after := mustSession(t, r)
	if after.Board != before.Board || len(after.Moves) != len(before.Moves) || len(api.checks) != 0 {
		t.Fatalf("illegal move must not change state or reach the server")
	}
}

func TestCheckTransportFailureIsSurfaced(t *testing.T) {
	api := &fakeAPI{respond: func([]string) (*chessdto.CheckPuzzleSolutionResponse, error) {
		return nil, errors.New("timeout")
	}}
	var reported error
	r, timers := newTestReconciler(t, api, nil, Callbacks{OnError: func(err error) { reported = err }})
	if err := r.Initialize(context.Background(), chessdto.PuzzleResponse{ID: "p1", FEN: blackToMoveStart, Solution: []string{"e7e5", "g1f3"}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	timers.fire()
	before := mustSession(t, r)
	if _, err := r.SubmitUCI(context.Background(), "g1f3"); err == nil {
		t.Fatalf("expected transport error")
	}
	if reported == nil {
		t.Fatalf("OnError must be called")
	}
	s := mustSession(t, r)
	if s.Board.FEN() != before.Board.FEN() || len(s.Moves) != 1 || s.Status != StatusPlaying || s.Checking {
		t.Fatalf("state must be exactly as before the attempt: %+v", s)
	}
}

func TestCompleteStopsFurtherMoves(t *testing.T) {
	api := &fakeAPI{respond: solutionChecker([]string{"e7e5", "g1f3"})}
	completed := 0
	ratings := 0
	api.respond = func(moves []string) (*chessdto.CheckPuzzleSolutionResponse, error) {
		rating, delta := 1510, 10
		resp, _ := solutionChecker([]string{"e7e5", "g1f3"})(moves)
		resp.PuzzleRating, resp.PuzzleRatingChange = &rating, &delta
		return resp, nil
	}
	r, timers := newTestReconciler(t, api, nil, Callbacks{
		OnComplete:     func(Session) { completed++ },
		OnRatingChange: func(rating, delta int) { ratings += delta },
	})
	if err := r.Initialize(context.Background(), chessdto.PuzzleResponse{ID: "p1", FEN: blackToMoveStart, Solution: []string{"e7e5", "g1f3"}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	timers.fire()
	out, err := r.SubmitUCI(context.Background(), "g1f3")
	if err != nil || out != OutcomeComplete {
		t.Fatalf("SubmitUCI: %v %v", out, err)
	}
	s := mustSession(t, r)
	if s.Status != StatusComplete || completed != 1 || ratings != 10 {
		t.Fatalf("expected completion, got %s completed=%d ratings=%d", s.Status, completed, ratings)
	}
	if s.Board.Turn() != board.Black {
		t.Fatalf("board must reflect the final move")
	}
	if _, err := r.SubmitUCI(context.Background(), "e7e6"); !errors.Is(err, ErrComplete) {
		t.Fatalf("expected ErrComplete, got %v", err)
	}
}

func TestInitializeSupersedesPendingTimers(t *testing.T) {
	api := &fakeAPI{respond: solutionChecker([]string{"e7e5"})}
	r, timers := newTestReconciler(t, api, nil, Callbacks{})
	ctx := context.Background()
	if err := r.Initialize(ctx, chessdto.PuzzleResponse{ID: "p1", FEN: blackToMoveStart, Solution: []string{"e7e5"}}); err != nil {
		t.Fatalf("Initialize p1: %v", err)
	}
	if err := r.Initialize(ctx, chessdto.PuzzleResponse{ID: "p2", FEN: blackToMoveStart, FirstMove: "d7d5"}); err != nil {
		t.Fatalf("Initialize p2: %v", err)
	}
	if n := timers.fire(); n != 1 {
		t.Fatalf("only the new puzzle's timer may fire, got %d", n)
	}
	s := mustSession(t, r)
	if s.PuzzleID != "p2" || len(s.Moves) != 1 || s.Moves[0] != "d7d5" {
		t.Fatalf("unexpected session %+v", s.Moves)
	}
}

func newRedisHints(t *testing.T) *StoreHints {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	store, err := localstore.NewRedisStore(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewStoreHints(store)
}

func TestHintConsumedOncePerPuzzleAcrossReloads(t *testing.T) {
	solution := []string{"e7e5", "g1f3", "b8c6", "f1c4"}
	hints := newRedisHints(t)
	ctx := context.Background()
	p := chessdto.PuzzleResponse{ID: "p1", FEN: blackToMoveStart, Solution: solution}

	api := &fakeAPI{respond: solutionChecker(solution)}
	first, timers := newTestReconciler(t, api, hints, Callbacks{})
	if err := first.Initialize(ctx, p); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	timers.fire()
	out, err := first.Hint(ctx)
	if err != nil || out != OutcomeCorrect {
		t.Fatalf("Hint: %v %v", out, err)
	}
	if got := api.checks[0]; got[len(got)-1] != "g1f3" {
		t.Fatalf("hint must play the expected solution move, got %v", got)
	}
	if api.hintReqs != 0 {
		t.Fatalf("local solution must be used before asking the backend")
	}
	timers.fire()
	if _, err := first.Hint(ctx); !errors.Is(err, ErrHintUsed) {
		t.Fatalf("second hint must be refused, got %v", err)
	}

	reloaded, timers2 := newTestReconciler(t, api, hints, Callbacks{})
	if err := reloaded.Initialize(ctx, p); err != nil {
		t.Fatalf("Initialize after reload: %v", err)
	}
	timers2.fire()
	if s := mustSession(t, reloaded); !s.HintUsed {
		t.Fatalf("hint marker must survive a reload")
	}
	if _, err := reloaded.Hint(ctx); !errors.Is(err, ErrHintUsed) {
		t.Fatalf("hint after reload must be refused, got %v", err)
	}

	if err := reloaded.Initialize(ctx, chessdto.PuzzleResponse{ID: "p2", FEN: blackToMoveStart, Solution: solution}); err != nil {
		t.Fatalf("Initialize p2: %v", err)
	}
	timers2.fire()
	if s := mustSession(t, reloaded); s.HintUsed {
		t.Fatalf("a different puzzle must get its own hint")
	}
	if out, err := reloaded.Hint(ctx); err != nil || out != OutcomeCorrect {
		t.Fatalf("Hint p2: %v %v", out, err)
	}

	// coming back to p1 after hinting p2 must not hand out a second hint
	third, timers3 := newTestReconciler(t, api, hints, Callbacks{})
	if err := third.Initialize(ctx, p); err != nil {
		t.Fatalf("Initialize p1 again: %v", err)
	}
	timers3.fire()
	if s := mustSession(t, third); !s.HintUsed {
		t.Fatalf("p1 hint marker must survive hinting another puzzle")
	}
	if _, err := third.Hint(ctx); !errors.Is(err, ErrHintUsed) {
		t.Fatalf("p1 hint consumed twice, got %v", err)
	}
}

func TestHintFallsBackToBackend(t *testing.T) {
	api := &fakeAPI{hint: "g1f3", respond: func([]string) (*chessdto.CheckPuzzleSolutionResponse, error) {
		return &chessdto.CheckPuzzleSolutionResponse{Correct: true}, nil
	}}
	r, timers := newTestReconciler(t, api, nil, Callbacks{})
	if err := r.Initialize(context.Background(), chessdto.PuzzleResponse{ID: "p1", FEN: blackToMoveStart, FirstMove: "e7e5"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	timers.fire()
	if _, err := r.Hint(context.Background()); err != nil {
		t.Fatalf("Hint: %v", err)
	}
	if api.hintReqs != 1 {
		t.Fatalf("expected one backend hint request, got %d", api.hintReqs)
	}
	s := mustSession(t, r)
	if len(s.Moves) != 2 || s.Moves[1] != "g1f3" || !s.HintUsed {
		t.Fatalf("unexpected session after hint: %+v", s.Moves)
	}
}

type fakeSource struct {
	calls int
}

func (f *fakeSource) GetRandomPuzzle(_ context.Context, _, _ int) (*chessdto.PuzzleResponse, error) {
	f.calls++
	return &chessdto.PuzzleResponse{ID: fmt.Sprintf("r%d", f.calls), FEN: blackToMoveStart, FirstMove: "e7e5"}, nil
}

func TestTrainerResumesStoredPuzzle(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	hints := NewStoreHints(store)
	src := &fakeSource{}
	tr := NewTrainer(src, store, nil)

	p1, err := tr.Next(ctx, false)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := hints.MarkHintUsed(ctx, p1.ID); err != nil {
		t.Fatalf("MarkHintUsed: %v", err)
	}
	again, err := tr.Next(ctx, false)
	if err != nil || again.ID != p1.ID || src.calls != 1 {
		t.Fatalf("expected stored puzzle %s, got %+v calls=%d err=%v", p1.ID, again, src.calls, err)
	}
	if used, _ := hints.HintUsed(ctx, p1.ID); !used {
		t.Fatalf("resuming must keep the hint marker")
	}

	if err := tr.MarkSolved(ctx, p1.ID); err != nil {
		t.Fatalf("MarkSolved: %v", err)
	}
	p2, err := tr.Next(ctx, false)
	if err != nil || p2.ID == p1.ID {
		t.Fatalf("solved puzzle must not be resumed: %+v %v", p2, err)
	}
	if used, _ := hints.HintUsed(ctx, p1.ID); !used {
		t.Fatalf("moving to a new puzzle must keep the marker of the old one")
	}
	if used, _ := hints.HintUsed(ctx, p2.ID); used {
		t.Fatalf("a new puzzle must start with its hint available")
	}
	p3, err := tr.Skip(ctx)
	if err != nil || p3.ID == p2.ID {
		t.Fatalf("Skip must load a new puzzle: %+v %v", p3, err)
	}
}
