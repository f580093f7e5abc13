package util

import (
	"fmt"
	"strings"
	"time"
)

// FormatClock renders remaining milliseconds as m:ss, with tenths below ten seconds.
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	if ms < 10_000 {
		return fmt.Sprintf("0:%02d.%d", ms/1000, (ms%1000)/100)
	}
	total := ms / 1000
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatEval renders centipawns as pawns with one decimal; mate scores become "#".
func FormatEval(cp int) string {
	switch {
	case cp >= 30000:
		return "#+"
	case cp <= -30000:
		return "#-"
	}
	return fmt.Sprintf("%+.1f", float64(cp)/100)
}

// FormatDateTime renders t in local time as 2006-01-02 15:04; the zero time renders empty.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Truncate shortens s to max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// FormatDelta renders a rating change as "+12", "-8" or "±0".
func FormatDelta(d int) string {
	if d == 0 {
		return "±0"
	}
	return fmt.Sprintf("%+d", d)
}
