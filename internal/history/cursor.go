package history

// Cursor is a position in a History plus whether the viewer is looking at the past.
// Index -1 addresses the starting position. The zero value follows the live position.
type Cursor struct {
	Index   int
	Viewing bool
}

// Live returns a cursor following the last entry of a history of length n.
func Live(n int) Cursor {
	return Cursor{Index: n - 1}
}

func (c Cursor) GoToStart(n int) Cursor {
	return c.GoToMove(-1, n)
}

func (c Cursor) GoToPrevious(n int) Cursor {
	if c.Index <= -1 {
		return c.GoToMove(-1, n)
	}
	return c.GoToMove(c.Index-1, n)
}

func (c Cursor) GoToNext(n int) Cursor {
	return c.GoToMove(c.Index+1, n)
}

// GoToLatest snaps to the last entry and resumes live-following.
func (c Cursor) GoToLatest(n int) Cursor {
	return Cursor{Index: n - 1, Viewing: false}
}

// GoToMove moves to entry i, clamped to [-1, n-1]. Landing on the last entry
// still counts as viewing; only GoToLatest resumes live-following.
func (c Cursor) GoToMove(i, n int) Cursor {
	if i < -1 {
		i = -1
	}
	if i > n-1 {
		i = n - 1
	}
	return Cursor{Index: i, Viewing: true}
}

// Follow keeps a live cursor pinned to the end when the history grows or shrinks.
func (c Cursor) Follow(n int) Cursor {
	if c.Viewing {
		if c.Index > n-1 {
			c.Index = n - 1
		}
		return c
	}
	return Live(n)
}
