// Package presenter turns client state into terminal text and board images.
package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/chessonline-client/internal/analysis"
	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/domain"
	"github.com/park285/chessonline-client/internal/game"
	"github.com/park285/chessonline-client/internal/history"
	"github.com/park285/chessonline-client/internal/msgcat"
	"github.com/park285/chessonline-client/internal/push"
	"github.com/park285/chessonline-client/internal/puzzle"
	"github.com/park285/chessonline-client/internal/util"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

const nameWidth = 18

// Formatter renders views through the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

type vars = map[string]any

// Text renders key, falling back to the key itself so a broken catalog entry
// never hides the rest of a view.
func (f *Formatter) Text(key string, data vars) string {
	if f == nil || f.cat == nil {
		return key
	}
	s, err := f.cat.Render(key, data)
	if err != nil {
		return key
	}
	return s
}

// Board draws fen as an 8x8 grid with uppercase white pieces, oriented for side.
func (f *Formatter) Board(fen string, side board.Color, lastMove string) string {
	b, err := board.FromFEN(fen)
	if err != nil {
		return fen
	}
	grid := b.Grid()
	from, to := "", ""
	if len(lastMove) >= 4 {
		from, to = lastMove[:2], lastMove[2:4]
	}

	var sb strings.Builder
	for i := 0; i < 8; i++ {
		rank := 7 - i
		if side == board.Black {
			rank = i
		}
		fmt.Fprintf(&sb, "%d ", rank+1)
		for j := 0; j < 8; j++ {
			file := j
			if side == board.Black {
				file = 7 - j
			}
			sq := string(rune('a'+file)) + string(rune('1'+rank))
			cell := grid[7-rank][file]
			if cell == "" {
				cell = "."
			}
			if sq == from || sq == to {
				sb.WriteString("[" + cell + "]")
			} else {
				sb.WriteString(" " + cell + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  ")
	for j := 0; j < 8; j++ {
		file := j
		if side == board.Black {
			file = 7 - j
		}
		fmt.Fprintf(&sb, " %c ", 'a'+file)
	}
	return sb.String()
}

// MoveList numbers SAN moves and brackets the entry under the cursor when viewing history.
func (f *Formatter) MoveList(h history.History, cur history.Cursor) string {
	if h.Len() == 0 {
		return f.Text("game.no_moves", nil)
	}
	offset := 0
	if board.SideToMove(h.StartFEN) == board.Black {
		offset = 1
	}
	var sb strings.Builder
	for i, e := range h.Entries {
		ply := i + offset
		if ply%2 == 0 {
			fmt.Fprintf(&sb, "%d. ", ply/2+1)
		} else if i == 0 {
			fmt.Fprintf(&sb, "%d... ", ply/2+1)
		}
		san := e.SAN
		if cur.Viewing && cur.Index == i {
			san = "[" + san + "]"
		}
		sb.WriteString(san)
		if i < h.Len()-1 {
			sb.WriteString(" ")
		}
	}
	return f.Text("game.moves", vars{"Moves": sb.String()})
}

// Game renders the board, clocks, move list and status lines of v.
func (f *Formatter) Game(v game.View) string {
	s := v.Snapshot
	var lines []string
	lines = append(lines, f.Text("game.header", vars{
		"White":       util.Truncate(s.NameOf(board.White), nameWidth),
		"Black":       util.Truncate(s.NameOf(board.Black), nameWidth),
		"TimeControl": s.TimeControl,
	}))
	lines = append(lines, f.Text("game.clocks", vars{
		"WhiteClock": util.FormatClock(v.WhiteMs),
		"BlackClock": util.FormatClock(v.BlackMs),
	}))

	orientation := v.MyColor
	if orientation == "" {
		orientation = board.White
	}
	lastMove := v.LastMove
	if v.Cursor.Viewing {
		lastMove = ""
		if v.Cursor.Index >= 0 && v.Cursor.Index < v.History.Len() {
			lastMove = v.History.Entries[v.Cursor.Index].UCI
		}
	}
	lines = append(lines, f.Board(v.DisplayFEN, orientation, lastMove))
	lines = append(lines, f.MoveList(v.History, v.Cursor))

	if v.Cursor.Viewing {
		lines = append(lines, f.Text("game.viewing", vars{"Index": v.Cursor.Index + 1, "Total": v.History.Len()}))
	}
	lines = append(lines, f.status(v)...)
	if v.Err != nil {
		lines = append(lines, f.Text("common.error", vars{"Error": v.Err.Error()}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) status(v game.View) []string {
	s := v.Snapshot
	var out []string
	if !s.Active() {
		out = append(out, f.Finished(s))
		return out
	}
	if v.Board != nil && v.Board.InCheck() {
		out = append(out, f.Text("game.check", nil))
	}
	turn := board.White
	if v.Board != nil {
		turn = v.Board.Turn()
	}
	switch {
	case v.Spectator:
		out = append(out, f.Text("game.turn_spectator", vars{"Color": string(turn)}))
	case v.MyTurn:
		out = append(out, f.Text("game.turn_mine", vars{"Color": string(v.MyColor)}))
	default:
		out = append(out, f.Text("game.turn_theirs", vars{"Name": s.NameOf(turn)}))
	}
	if v.Optimistic {
		out = append(out, f.Text("game.optimistic", vars{"Move": v.LastMove}))
	}
	if v.PendingPromotion != nil {
		out = append(out, f.Text("game.promotion", vars{"To": v.PendingPromotion.To}))
	}
	if s.DrawOfferedByID != "" {
		if c, ok := s.ColorOf(s.DrawOfferedByID); ok && c == v.MyColor && !v.Spectator {
			out = append(out, f.Text("game.draw_pending", nil))
		} else {
			out = append(out, f.DrawOffered(s))
		}
	}
	return out
}

func (f *Formatter) Finished(s game.Snapshot) string {
	text := f.Text("game.finished", vars{"Result": resultText(s.Result), "Reason": strings.ToLower(s.ResultReason)})
	if s.RatingChange != nil {
		text += "\n" + f.Text("game.rating_change", vars{"Delta": util.FormatDelta(*s.RatingChange)})
	}
	return text
}

func (f *Formatter) DrawOffered(s game.Snapshot) string {
	name := s.DrawOfferedByID
	if c, ok := s.ColorOf(s.DrawOfferedByID); ok {
		name = s.NameOf(c)
	}
	return f.Text("game.draw_offered", vars{"Name": name})
}

// Event renders the one-line notice for a reconciler event; state and clock events render empty.
func (f *Formatter) Event(ev game.Event) string {
	switch ev.Kind {
	case game.EventDrawOffered:
		return f.DrawOffered(ev.View.Snapshot)
	case game.EventDrawDeclined:
		return f.Text("game.draw_declined", nil)
	case game.EventPromotionRequired:
		if p := ev.View.PendingPromotion; p != nil {
			return f.Text("game.promotion", vars{"To": p.To})
		}
	case game.EventGameOver:
		return f.Finished(ev.View.Snapshot)
	case game.EventAlert:
		if ev.Err != nil {
			return f.Text("common.error", vars{"Error": ev.Err.Error()})
		}
	}
	return ""
}

func resultText(r string) string {
	switch domain.NormalizeResult(r) {
	case "1-0":
		return "1-0"
	case "0-1":
		return "0-1"
	case "1/2-1/2":
		return "½-½"
	}
	if r == "" {
		return "*"
	}
	return r
}

// GameList renders one line per game under the catalog header key.
func (f *Formatter) GameList(headerKey string, games []chessdto.GameResponse) string {
	lines := []string{f.Text(headerKey, nil)}
	if len(games) == 0 {
		lines = append(lines, f.Text("game.list_empty", nil))
	}
	for _, g := range games {
		lines = append(lines, f.Text("game.list_entry", vars{
			"ID":     g.ID,
			"White":  util.Truncate(g.WhiteUsername, nameWidth),
			"Black":  util.Truncate(g.BlackUsername, nameWidth),
			"Status": g.Status,
			"Result": g.Result,
		}))
	}
	return strings.Join(lines, "\n")
}

// Puzzle renders the puzzle board from the solver's side.
func (f *Formatter) Puzzle(s puzzle.Session, now time.Time) string {
	lines := []string{f.Text("puzzle.header", vars{
		"ID":     s.PuzzleID,
		"Rating": s.Rating,
		"Themes": strings.Join(s.Themes, ", "),
	})}
	fen := s.StartFEN
	if s.Board != nil {
		fen = s.Board.FEN()
	}
	last := ""
	if n := len(s.Moves); n > 0 {
		last = s.Moves[n-1]
	}
	lines = append(lines, f.Board(fen, s.PlayerColor, last))
	lines = append(lines, f.Text("puzzle.color", vars{"Color": string(s.PlayerColor)}))
	switch {
	case s.Status == puzzle.StatusComplete:
		secs := 0
		if !s.StartedAt.IsZero() {
			secs = int(now.Sub(s.StartedAt).Seconds())
		}
		lines = append(lines, f.Text("puzzle.complete", vars{"Seconds": secs}))
	case s.Status == puzzle.StatusWrong:
		lines = append(lines, f.Text("puzzle.wrong", nil))
	case s.Checking:
		lines = append(lines, f.Text("puzzle.checking", nil))
	case s.OpponentMoving:
		lines = append(lines, f.Text("puzzle.opponent_moving", nil))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) PuzzleCorrect(reply string) string {
	if reply == "" {
		return f.Text("puzzle.correct_final", nil)
	}
	return f.Text("puzzle.correct", vars{"Reply": reply})
}

func (f *Formatter) PuzzleRating(rating, delta int) string {
	return f.Text("puzzle.rating", vars{"Rating": rating, "Delta": util.FormatDelta(delta)})
}

// Analysis renders the summary and one line per analysed move.
func (f *Formatter) Analysis(res *chessdto.AnalysisResponse, opening analysis.Opening) string {
	if res == nil {
		return ""
	}
	lines := []string{f.Text("analysis.header", vars{"GameID": res.GameID})}
	if o := opening.String(); o != "" {
		lines = append(lines, f.Text("analysis.opening", vars{"Opening": o}))
	}
	lines = append(lines, f.Text("analysis.summary", vars{
		"WhiteAccuracy": fmt.Sprintf("%.0f", res.WhiteAccuracy),
		"BlackAccuracy": fmt.Sprintf("%.0f", res.BlackAccuracy),
		"WhiteMistakes": res.WhiteMistakes,
		"BlackMistakes": res.BlackMistakes,
		"WhiteBlunders": res.WhiteBlunders,
		"BlackBlunders": res.BlackBlunders,
	}))
	for _, m := range res.Moves {
		lines = append(lines, f.AnalysisLine(m))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) AnalysisLine(m chessdto.MoveAnalysis) string {
	mark := ""
	if sev := analysis.SeverityOf(m); sev != analysis.SeverityNone {
		mark = f.Text("analysis.mark_"+sev.String(), nil)
	}
	return f.Text("analysis.line", vars{
		"Number": m.MoveNumber,
		"White":  m.IsWhiteMove,
		"Move":   m.Move,
		"Eval":   util.FormatEval(m.Evaluation),
		"Mark":   mark,
		"Best":   m.BestMove,
	})
}

func (f *Formatter) Lobby(games []chessdto.LobbyGameResponse) string {
	lines := []string{f.Text("dashboard.lobby_header", nil)}
	if len(games) == 0 {
		lines = append(lines, f.Text("dashboard.lobby_empty", nil))
	}
	for _, g := range games {
		lines = append(lines, f.Text("dashboard.lobby_entry", vars{
			"ID":          g.ID,
			"Creator":     util.Truncate(g.CreatorUsername, nameWidth),
			"Rating":      g.CreatorRating,
			"TimeControl": g.TimeControl,
		}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Invite(inv *chessdto.InviteResponse) string {
	if inv == nil {
		return ""
	}
	status := ""
	if inv.UsedAt != nil {
		status = "used"
	} else if inv.ExpiresAt != nil {
		status = "expires " + util.FormatDateTime(inv.ExpiresAt.Time)
	}
	return f.Text("dashboard.invite", vars{
		"Code":        inv.InviteCode(),
		"Creator":     inv.CreatorUsername,
		"TimeControl": inv.TimeControl,
		"Status":      status,
	})
}

func (f *Formatter) Friends(friends []chessdto.FriendshipResponse) string {
	lines := []string{f.Text("social.friends_header", nil)}
	for _, fr := range friends {
		if fr.Friend == nil {
			continue
		}
		lines = append(lines, f.Text("social.friend_entry", vars{"Username": fr.Friend.Username, "Rating": fr.Friend.Rating}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) FriendRequests(reqs []chessdto.FriendshipResponse) string {
	lines := []string{f.Text("social.requests_header", nil)}
	for _, fr := range reqs {
		name := ""
		if fr.Friend != nil {
			name = fr.Friend.Username
		}
		lines = append(lines, f.Text("social.request_entry", vars{"ID": fr.ID, "Username": name}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Profile(u *chessdto.UserResponse) string {
	if u == nil {
		return ""
	}
	return f.Text("social.profile", vars{
		"Username": u.Username,
		"Rating":   u.Rating,
		"Games":    u.GamesPlayed,
		"Wins":     u.GamesWon,
		"Losses":   u.GamesLost,
		"Draws":    u.GamesDrawn,
	})
}

func (f *Formatter) Record(r domain.PlayerRecord) string {
	return f.Text("social.record", vars{
		"Games":      r.GamesPlayed,
		"Wins":       r.Wins,
		"Losses":     r.Losses,
		"Draws":      r.Draws,
		"Streak":     r.Streak,
		"StreakType": r.StreakType,
	})
}

func (f *Formatter) Connection(st push.State) string {
	if st == push.StateUnauthorized {
		return f.Text("connection.unauthorized", nil)
	}
	return f.Text("connection.state", vars{"State": string(st)})
}
