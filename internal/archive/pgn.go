package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/domain"
)

// BuildPGN renders g as a PGN document with numbered SAN moves.
func BuildPGN(g *domain.ArchivedGame) string {
	if g == nil {
		return ""
	}
	result := domain.NormalizeResult(g.Result)
	date := g.EndedAt
	if date.IsZero() {
		date = time.Now()
	}

	var b strings.Builder
	tag := func(name, value string) {
		fmt.Fprintf(&b, "[%s \"%s\"]\n", name, sanitizePGN(value))
	}
	tag("Event", "Online game")
	tag("Site", "Chess Online")
	tag("Date", fmt.Sprintf("%04d.%02d.%02d", date.Year(), int(date.Month()), date.Day()))
	tag("White", orUnknown(g.WhiteName))
	tag("Black", orUnknown(g.BlackName))
	tag("Result", result)
	if strings.TrimSpace(g.TimeControl) != "" {
		tag("TimeControl", g.TimeControl)
	}
	if strings.TrimSpace(g.Opening) != "" {
		tag("Opening", g.Opening)
	}
	if strings.TrimSpace(g.ResultReason) != "" {
		tag("Termination", strings.ToLower(g.ResultReason))
	}
	if g.StartFEN != "" && g.StartFEN != board.StartFEN {
		tag("SetUp", "1")
		tag("FEN", g.StartFEN)
	}
	b.WriteString("\n")

	for i := 0; i < len(g.MovesSAN); i += 2 {
		fmt.Fprintf(&b, "%d. %s ", i/2+1, strings.TrimSpace(g.MovesSAN[i]))
		if i+1 < len(g.MovesSAN) {
			b.WriteString(strings.TrimSpace(g.MovesSAN[i+1]))
			b.WriteString(" ")
		}
	}
	b.WriteString(result)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "?"
	}
	return s
}
