package history

import (
	"testing"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

func TestReplayBuildsPositions(t *testing.T) {
	moves := []chessdto.MoveResponse{
		{SAN: "e4", UCI: "e2e4"},
		{SAN: "e5", UCI: "e7e5"},
		{SAN: "Nf3", UCI: "g1f3"},
	}
	h := Replay(board.StartFEN, moves)
	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}
	for i, e := range h.Entries {
		if e.Raw {
			t.Fatalf("entry %d unexpectedly raw", i)
		}
	}
	if got := board.PliesFromFEN(h.FENAt(2)); got != 3 {
		t.Fatalf("expected 3 plies after Nf3, got %d", got)
	}
	if h.FENAt(-1) != board.Start().FEN() {
		t.Fatalf("start fen mismatch: %s", h.FENAt(-1))
	}
}

func TestReplayFallsBackToStoredNotation(t *testing.T) {
	moves := []chessdto.MoveResponse{
		{SAN: "e4", UCI: "e2e4"},
		{SAN: "Qh9", UCI: "", FEN: "stored-fen-1"},
		{SAN: "Nf6", UCI: "g8f6", FEN: "stored-fen-2"},
	}
	h := Replay("", moves)
	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}
	if h.Entries[0].Raw {
		t.Fatalf("first entry should replay")
	}
	if !h.Entries[1].Raw || h.Entries[1].SAN != "Qh9" || h.Entries[1].FEN != "stored-fen-1" {
		t.Fatalf("unexpected fallback entry: %+v", h.Entries[1])
	}
	if !h.Entries[2].Raw || h.Entries[2].FEN != "stored-fen-2" {
		t.Fatalf("entries after a failure must stay raw: %+v", h.Entries[2])
	}
}

func TestReplayUCIStopsAtIllegal(t *testing.T) {
	h, err := ReplayUCI(board.StartFEN, []string{"e2e4", "e2e4"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if h.Len() != 1 {
		t.Fatalf("expected one replayed entry, got %d", h.Len())
	}
}

func TestAppendAndTruncateCopy(t *testing.T) {
	h, err := ReplayUCI(board.StartFEN, []string{"e2e4"})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	grown := h.Append(Entry{SAN: "e5", UCI: "e7e5"})
	if h.Len() != 1 || grown.Len() != 2 {
		t.Fatalf("append must not mutate: %d %d", h.Len(), grown.Len())
	}
	if got := grown.Truncate(1); got.Len() != 1 || got.Entries[0].UCI != "e2e4" {
		t.Fatalf("truncate mismatch: %+v", got.Entries)
	}
	if got := grown.UCIs(); len(got) != 2 || got[1] != "e7e5" {
		t.Fatalf("ucis mismatch: %v", got)
	}
}

func TestCursorNavigation(t *testing.T) {
	const n = 4
	c := Live(n)
	if c.Index != 3 || c.Viewing {
		t.Fatalf("live cursor mismatch: %+v", c)
	}
	c = c.GoToPrevious(n)
	if c.Index != 2 || !c.Viewing {
		t.Fatalf("previous mismatch: %+v", c)
	}
	c = c.GoToStart(n)
	if c.Index != -1 {
		t.Fatalf("start mismatch: %+v", c)
	}
	c = c.GoToPrevious(n)
	if c.Index != -1 {
		t.Fatalf("previous at start must clamp: %+v", c)
	}
	c = c.GoToMove(99, n)
	if c.Index != 3 || !c.Viewing {
		t.Fatalf("goto clamp mismatch: %+v", c)
	}
	c = c.GoToLatest(n)
	if c.Viewing {
		t.Fatalf("latest must resume live")
	}
}

func TestCursorFollow(t *testing.T) {
	c := Live(2).Follow(5)
	if c.Index != 4 {
		t.Fatalf("live cursor must follow growth: %+v", c)
	}
	v := Live(5).GoToMove(1, 5).Follow(8)
	if v.Index != 1 || !v.Viewing {
		t.Fatalf("viewing cursor must stay put: %+v", v)
	}
	shrunk := Live(5).GoToMove(4, 5).Follow(3)
	if shrunk.Index != 2 {
		t.Fatalf("viewing cursor must clamp on shrink: %+v", shrunk)
	}
}
