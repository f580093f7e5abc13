package game

import (
	"strings"
	"time"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

// Snapshot is the client-side copy of the authoritative game state.
type Snapshot struct {
	ID              string
	WhiteID         string
	WhiteName       string
	BlackID         string
	BlackName       string
	Status          string
	FEN             string
	WhiteMs         int64
	BlackMs         int64
	HasClock        bool
	LastMoveAt      time.Time
	Result          string
	ResultReason    string
	DrawOfferedByID string
	TimeControl     string
	Rated           bool
	RatingChange    *int
}

func (s Snapshot) Active() bool { return s.Status == chessdto.GameStatusActive }

// ColorOf reports which side userID plays; ok is false for spectators.
func (s Snapshot) ColorOf(userID string) (board.Color, bool) {
	userID = strings.TrimSpace(userID)
	switch {
	case userID == "":
		return board.White, false
	case userID == s.WhiteID:
		return board.White, true
	case userID == s.BlackID:
		return board.Black, true
	default:
		return board.White, false
	}
}

// NameOf falls back to the player id when the username is unknown.
func (s Snapshot) NameOf(c board.Color) string {
	if c == board.White {
		if s.WhiteName != "" {
			return s.WhiteName
		}
		return s.WhiteID
	}
	if s.BlackName != "" {
		return s.BlackName
	}
	return s.BlackID
}

// SnapshotFromResponse replaces the whole snapshot, as done on load.
func SnapshotFromResponse(g *chessdto.GameResponse) Snapshot {
	if g == nil {
		return Snapshot{}
	}
	s := Snapshot{
		ID:           g.ID,
		WhiteID:      g.WhitePlayerID,
		WhiteName:    g.WhiteUsername,
		BlackID:      g.BlackPlayerID,
		BlackName:    g.BlackUsername,
		Status:       g.Status,
		FEN:          g.FenCurrent,
		Result:       g.Result,
		ResultReason: g.ResultReason,
		TimeControl:  g.TimeControl,
		Rated:        g.Rated,
		LastMoveAt:   chessdto.TimeOf(g.LastMoveAt),
		RatingChange: g.RatingChange,
	}
	if g.WhiteTimeLeftMs != nil {
		s.WhiteMs = *g.WhiteTimeLeftMs
		s.HasClock = true
	}
	if g.BlackTimeLeftMs != nil {
		s.BlackMs = *g.BlackTimeLeftMs
		s.HasClock = true
	}
	if g.DrawOfferedByID != nil {
		s.DrawOfferedByID = *g.DrawOfferedByID
	}
	return s
}

// MergeUpdate applies a pushed partial update to prev. Fields present in u
// overwrite, absent fields keep their prior value. The draw-offer field is the
// exception: it is always taken from u, so a null clears a pending offer.
func MergeUpdate(prev Snapshot, u chessdto.GameUpdate) Snapshot {
	next := prev
	if u.Status != nil {
		next.Status = *u.Status
	}
	if u.FenCurrent != nil {
		next.FEN = *u.FenCurrent
	}
	if u.Result != nil {
		next.Result = *u.Result
	}
	if u.ResultReason != nil {
		next.ResultReason = *u.ResultReason
	}
	if u.WhiteTimeLeftMs != nil {
		next.WhiteMs = *u.WhiteTimeLeftMs
		next.HasClock = true
	}
	if u.BlackTimeLeftMs != nil {
		next.BlackMs = *u.BlackTimeLeftMs
		next.HasClock = true
	}
	if u.LastMoveAt != nil {
		next.LastMoveAt = u.LastMoveAt.Time
	}
	if u.RatingChange != nil {
		next.RatingChange = u.RatingChange
	}
	next.DrawOfferedByID = ""
	if u.DrawOfferedByID != nil {
		next.DrawOfferedByID = *u.DrawOfferedByID
	}
	return next
}

func hasTimeField(u chessdto.GameUpdate) bool {
	return u.WhiteTimeLeftMs != nil || u.BlackTimeLeftMs != nil
}
