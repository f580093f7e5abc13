// Package history rebuilds a game's move list into navigable positions.
package history

import (
	"strings"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

// Entry is one half-move together with the position it produced.
type Entry struct {
	SAN string
	UCI string
	FEN string
	// Raw is true when the entry could not be replayed and carries the stored notation as-is.
	Raw bool
}

// History is an ordered, immutable list of entries plus the position they start from.
type History struct {
	StartFEN string
	Entries  []Entry
}

func (h History) Len() int { return len(h.Entries) }

// FENAt returns the position after entry i; -1 means the starting position.
func (h History) FENAt(i int) string {
	if i < 0 || len(h.Entries) == 0 {
		return h.StartFEN
	}
	if i >= len(h.Entries) {
		i = len(h.Entries) - 1
	}
	return h.Entries[i].FEN
}

// SANs lists the notation of every entry.
func (h History) SANs() []string {
	out := make([]string, 0, len(h.Entries))
	for _, e := range h.Entries {
		out = append(out, e.SAN)
	}
	return out
}

// UCIs lists the UCI form of every replayed entry; raw entries contribute nothing.
func (h History) UCIs() []string {
	out := make([]string, 0, len(h.Entries))
	for _, e := range h.Entries {
		if e.UCI != "" {
			out = append(out, e.UCI)
		}
	}
	return out
}

// Append returns a copy with e added at the end.
func (h History) Append(e Entry) History {
	entries := make([]Entry, len(h.Entries), len(h.Entries)+1)
	copy(entries, h.Entries)
	return History{StartFEN: h.StartFEN, Entries: append(entries, e)}
}

// Truncate returns a copy holding the first n entries.
func (h History) Truncate(n int) History {
	if n < 0 {
		n = 0
	}
	if n > len(h.Entries) {
		n = len(h.Entries)
	}
	entries := make([]Entry, n)
	copy(entries, h.Entries[:n])
	return History{StartFEN: h.StartFEN, Entries: entries}
}

// Replay rebuilds a history from the backend move list starting at startFEN.
// Each move is replayed from its stored SAN (or UCI); once a move fails to
// replay, that entry and every later one fall back to the stored notation and FEN.
func Replay(startFEN string, moves []chessdto.MoveResponse) History {
	cur, err := board.FromFEN(startFEN)
	h := History{StartFEN: board.StartFEN, Entries: make([]Entry, 0, len(moves))}
	if err == nil {
		h.StartFEN = cur.FEN()
	}
	broken := err != nil
	for _, m := range moves {
		if !broken {
			next, mv, rerr := replayOne(cur, m)
			if rerr == nil {
				h.Entries = append(h.Entries, Entry{SAN: mv.SAN, UCI: mv.UCI, FEN: next.FEN()})
				cur = next
				continue
			}
			broken = true
		}
		h.Entries = append(h.Entries, rawEntry(m))
	}
	return h
}

// ReplayUCI rebuilds a history from bare UCI moves. It stops at the first illegal move.
func ReplayUCI(startFEN string, ucis []string) (History, error) {
	cur, err := board.FromFEN(startFEN)
	if err != nil {
		return History{}, err
	}
	h := History{StartFEN: cur.FEN(), Entries: make([]Entry, 0, len(ucis))}
	for _, u := range ucis {
		next, mv, err := cur.Apply(u)
		if err != nil {
			return h, err
		}
		h.Entries = append(h.Entries, Entry{SAN: mv.SAN, UCI: mv.UCI, FEN: next.FEN()})
		cur = next
	}
	return h, nil
}

func replayOne(cur *board.Board, m chessdto.MoveResponse) (*board.Board, board.Move, error) {
	if san := strings.TrimSpace(m.SAN); san != "" {
		next, mv, err := cur.ApplySAN(san)
		if err == nil {
			return next, mv, nil
		}
		if strings.TrimSpace(m.UCI) == "" {
			return nil, board.Move{}, err
		}
	}
	return cur.Apply(m.UCI)
}

func rawEntry(m chessdto.MoveResponse) Entry {
	san := strings.TrimSpace(m.SAN)
	if san == "" {
		san = strings.TrimSpace(m.UCI)
	}
	return Entry{SAN: san, UCI: strings.TrimSpace(m.UCI), FEN: strings.TrimSpace(m.FEN), Raw: true}
}
