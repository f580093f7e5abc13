package game

import (
	"time"

	"github.com/park285/chessonline-client/internal/board"
)

// Clock holds the last authoritative remaining times and when they were captured.
type Clock struct {
	WhiteMs    int64
	BlackMs    int64
	CapturedAt time.Time
}

func (c Clock) Base(side board.Color) int64 {
	if side == board.White {
		return c.WhiteMs
	}
	return c.BlackMs
}

// Remaining extrapolates base - elapsed for the side on move only, floored at zero.
// The side not on move always reports its base.
func (c Clock) Remaining(side, onMove board.Color, now time.Time) int64 {
	base := c.Base(side)
	if side != onMove {
		return base
	}
	elapsed := now.Sub(c.CapturedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	if rem := base - elapsed; rem > 0 {
		return rem
	}
	return 0
}

func captureClock(s Snapshot, at time.Time) Clock {
	return Clock{WhiteMs: s.WhiteMs, BlackMs: s.BlackMs, CapturedAt: at}
}
