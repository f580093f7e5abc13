package game

import "strings"

type DrawTransition int

const (
	DrawNone DrawTransition = iota
	DrawOffered
	DrawDeclined
)

// DrawSignal compares the draw-offer originator before and after a merge.
// An offer is reported to everyone except the offerer; a decline only to the offerer.
func DrawSignal(prev, next, localUser string) DrawTransition {
	prev, next, localUser = strings.TrimSpace(prev), strings.TrimSpace(next), strings.TrimSpace(localUser)
	if next != "" && next != prev && next != localUser {
		return DrawOffered
	}
	if next == "" && prev != "" && prev == localUser {
		return DrawDeclined
	}
	return DrawNone
}
