// Package puzzle drives a single puzzle-solving loop against the backend's
// solution checker.
package puzzle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

var (
	ErrNoPuzzle       = errors.New("no puzzle loaded")
	ErrComplete       = errors.New("puzzle already complete")
	ErrOpponentMoving = errors.New("wait for the opponent's move")
	ErrBusy           = errors.New("previous move is still being checked")
	ErrHintUsed       = errors.New("hint already used for this puzzle")
	ErrNoHint         = errors.New("no hint available")
)

type API interface {
	CheckPuzzleSolution(ctx context.Context, req chessdto.CheckPuzzleSolutionRequest) (*chessdto.CheckPuzzleSolutionResponse, error)
	GetPuzzleHint(ctx context.Context, req chessdto.PuzzleHintRequest) (*chessdto.PuzzleHintResponse, error)
}

// Timer is the subset of *time.Timer the reconciler needs.
type Timer interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type Callbacks struct {
	OnChange       func(Session)
	OnComplete     func(Session)
	OnCorrect      func(s Session, nextMove string)
	OnWrong        func(Session)
	OnRatingChange func(rating, delta int)
	OnError        func(error)
}

type Option func(*Reconciler)

func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithDelays(firstMove, reply, wrongReset time.Duration) Option {
	return func(r *Reconciler) {
		if firstMove >= 0 {
			r.firstMoveDelay = firstMove
		}
		if reply >= 0 {
			r.replyDelay = reply
		}
		if wrongReset >= 0 {
			r.wrongResetDelay = wrongReset
		}
	}
}

func WithAfterFunc(f AfterFunc) Option {
	return func(r *Reconciler) {
		if f != nil {
			r.afterFunc = f
		}
	}
}

func WithCallbacks(cb Callbacks) Option {
	return func(r *Reconciler) { r.cb = cb }
}

// WithSkipRatingUpdate marks checks as practice so the backend does not touch the puzzle rating.
func WithSkipRatingUpdate(skip bool) Option {
	return func(r *Reconciler) { r.skipRating = skip }
}

// WithoutAutoFirstMove leaves the scripted first move to the caller.
func WithoutAutoFirstMove() Option {
	return func(r *Reconciler) { r.skipAutoFirst = true }
}

func WithNow(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

type Reconciler struct {
	api    API
	hints  HintStore
	logger *zap.Logger
	cb     Callbacks

	firstMoveDelay  time.Duration
	replyDelay      time.Duration
	wrongResetDelay time.Duration
	afterFunc       AfterFunc
	now             func() time.Time
	skipRating      bool
	skipAutoFirst   bool

	mu         sync.Mutex
	gen        uint64
	session    *Session
	autoPlayed string
	timers     []Timer
}

func NewReconciler(api API, hints HintStore, opts ...Option) *Reconciler {
	if hints == nil {
		hints = NewStoreHints(nil)
	}
	r := &Reconciler{
		api:             api,
		hints:           hints,
		logger:          zap.NewNop(),
		firstMoveDelay:  400 * time.Millisecond,
		replyDelay:      600 * time.Millisecond,
		wrongResetDelay: 2500 * time.Millisecond,
		afterFunc:       realAfterFunc,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Session returns a copy of the current session; ok is false before Initialize.
func (r *Reconciler) Session() (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return Session{}, false
	}
	return r.session.clone(), true
}

// Initialize replaces any previous session with a fresh one for p and
// schedules the opponent's scripted first move.
func (r *Reconciler) Initialize(ctx context.Context, p chessdto.PuzzleResponse) error {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return errors.New("puzzle id required")
	}
	b, err := board.FromFEN(p.FEN)
	if err != nil {
		return fmt.Errorf("puzzle %s: %w", id, err)
	}
	hintUsed, err := r.hints.HintUsed(ctx, id)
	if err != nil {
		r.logger.Warn("puzzle_hint_marker_read_error", zap.String("puzzle_id", id), zap.Error(err))
	}
	first := openingMove(strings.TrimSpace(p.FirstMove), p.Solution)

	r.mu.Lock()
	r.stopTimersLocked()
	r.gen++
	r.autoPlayed = ""
	r.session = &Session{
		PuzzleID:    id,
		StartFEN:    b.FEN(),
		FirstMove:   first,
		Solution:    append([]string(nil), p.Solution...),
		Rating:      p.Rating,
		Themes:      append([]string(nil), p.Themes...),
		Status:      StatusPlaying,
		HintUsed:    hintUsed,
		PlayerColor: playerColorFor(b, first),
		Board:       b,
		StartedAt:   r.now(),
	}
	if !r.skipAutoFirst {
		r.scheduleFirstMoveLocked()
	}
	s := r.session.clone()
	r.mu.Unlock()

	r.logger.Debug("puzzle_init", zap.String("puzzle_id", id), zap.String("first_move", first))
	r.changed(s)
	return nil
}

// PlayFirstMove schedules the scripted first move when auto-play is disabled.
func (r *Reconciler) PlayFirstMove() {
	r.mu.Lock()
	r.scheduleFirstMoveLocked()
	var s Session
	if r.session != nil {
		s = r.session.clone()
	}
	r.mu.Unlock()
	r.changed(s)
}

// scheduleFirstMoveLocked fires at most once per puzzle id.
func (r *Reconciler) scheduleFirstMoveLocked() {
	s := r.session
	if s == nil || s.FirstMove == "" || r.autoPlayed == s.PuzzleID {
		return
	}
	r.autoPlayed = s.PuzzleID
	s.OpponentMoving = true
	gen, first := r.gen, s.FirstMove
	r.timers = append(r.timers, r.afterFunc(r.firstMoveDelay, func() { r.playFirstMove(gen, first) }))
}

func (r *Reconciler) playFirstMove(gen uint64, uci string) {
	r.mu.Lock()
	if gen != r.gen || r.session == nil {
		r.mu.Unlock()
		return
	}
	s := r.session
	s.OpponentMoving = false
	next, _, err := s.Board.Apply(uci)
	if err != nil {
		snap := s.clone()
		r.mu.Unlock()
		r.logger.Warn("puzzle_first_move_error", zap.String("puzzle_id", snap.PuzzleID), zap.String("move", uci), zap.Error(err))
		r.changed(snap)
		return
	}
	s.Board = next
	s.PlayerColor = next.Turn()
	s.Moves = []string{uci}
	snap := s.clone()
	r.mu.Unlock()
	r.changed(snap)
}

// Submit plays a move from one square to another; a pawn reaching the last
// rank promotes to a queen. An illegal move is ignored without any state change.
func (r *Reconciler) Submit(ctx context.Context, from, to string) (Outcome, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	r.mu.Lock()
	if err := r.canMoveLocked(); err != nil {
		r.mu.Unlock()
		return OutcomeIgnored, err
	}
	uci := from + to
	if r.session.Board.NeedsPromotion(from, to) {
		uci += "q"
	}
	return r.submitLocked(ctx, uci)
}

// SubmitUCI is Submit for a move in UCI form.
func (r *Reconciler) SubmitUCI(ctx context.Context, uci string) (Outcome, error) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	if len(uci) == 5 {
		r.mu.Lock()
		if err := r.canMoveLocked(); err != nil {
			r.mu.Unlock()
			return OutcomeIgnored, err
		}
		return r.submitLocked(ctx, uci)
	}
	if len(uci) != 4 {
		return OutcomeIgnored, nil
	}
	return r.Submit(ctx, uci[:2], uci[2:])
}

// Hint plays the expected next move as if the user had made it. One hint per
// puzzle id, remembered across reloads by the HintStore.
func (r *Reconciler) Hint(ctx context.Context) (Outcome, error) {
	r.mu.Lock()
	if err := r.canMoveLocked(); err != nil {
		r.mu.Unlock()
		return OutcomeIgnored, err
	}
	s := r.session
	if s.HintUsed {
		r.mu.Unlock()
		return OutcomeIgnored, ErrHintUsed
	}
	gen, id := r.gen, s.PuzzleID
	played := append([]string(nil), s.Moves...)
	expected := ""
	if len(s.Solution) > len(s.Moves) {
		expected = s.Solution[len(s.Moves)]
	}
	r.mu.Unlock()

	if expected == "" {
		resp, err := r.api.GetPuzzleHint(ctx, chessdto.PuzzleHintRequest{PuzzleID: id, CurrentMoves: played})
		if err != nil {
			r.reportError(fmt.Errorf("puzzle hint: %w", err))
			return OutcomeIgnored, fmt.Errorf("puzzle hint: %w", err)
		}
		expected = strings.TrimSpace(resp.ExpectedMove())
	}
	if expected == "" {
		return OutcomeIgnored, ErrNoHint
	}
	if err := r.hints.MarkHintUsed(ctx, id); err != nil {
		r.logger.Warn("puzzle_hint_marker_write_error", zap.String("puzzle_id", id), zap.Error(err))
	}

	r.mu.Lock()
	if gen != r.gen || r.session == nil {
		r.mu.Unlock()
		return OutcomeIgnored, nil
	}
	r.session.HintUsed = true
	if err := r.canMoveLocked(); err != nil {
		r.mu.Unlock()
		return OutcomeIgnored, err
	}
	r.logger.Debug("puzzle_hint", zap.String("puzzle_id", id), zap.String("move", expected))
	return r.submitLocked(ctx, expected)
}

// Close cancels pending timers; late responses become no-ops.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.stopTimersLocked()
	r.gen++
	r.session = nil
	r.mu.Unlock()
}

func (r *Reconciler) canMoveLocked() error {
	s := r.session
	switch {
	case s == nil:
		return ErrNoPuzzle
	case s.Status == StatusComplete:
		return ErrComplete
	case s.OpponentMoving:
		return ErrOpponentMoving
	case s.Checking:
		return ErrBusy
	}
	return nil
}

// submitLocked is entered with r.mu held and releases it.
func (r *Reconciler) submitLocked(ctx context.Context, uci string) (Outcome, error) {
	s := r.session
	next, mv, err := s.Board.Apply(uci)
	if err != nil {
		r.mu.Unlock()
		return OutcomeIgnored, nil
	}
	prevBoard, prevLen := s.Board, len(s.Moves)
	s.Moves = append(append([]string(nil), s.Moves...), mv.UCI)
	s.Board = next
	s.Status = StatusPlaying
	s.Checking = true
	gen := r.gen
	req := chessdto.CheckPuzzleSolutionRequest{
		PuzzleID:         s.PuzzleID,
		Moves:            append([]string(nil), s.Moves...),
		TimeSpentSeconds: int(r.now().Sub(s.StartedAt).Seconds()),
		SkipRatingUpdate: r.skipRating,
	}
	snap := s.clone()
	r.mu.Unlock()
	r.changed(snap)

	resp, err := r.api.CheckPuzzleSolution(ctx, req)
	return r.applyCheck(gen, prevBoard, prevLen, resp, err)
}

func (r *Reconciler) applyCheck(gen uint64, prevBoard *board.Board, prevLen int, resp *chessdto.CheckPuzzleSolutionResponse, err error) (Outcome, error) {
	r.mu.Lock()
	if gen != r.gen || r.session == nil {
		r.mu.Unlock()
		return OutcomeIgnored, nil
	}
	s := r.session
	s.Checking = false
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		s.Board = prevBoard
		s.Moves = s.Moves[:prevLen]
		snap := s.clone()
		r.mu.Unlock()
		err = fmt.Errorf("check puzzle solution: %w", err)
		r.logger.Warn("puzzle_check_error", zap.String("puzzle_id", snap.PuzzleID), zap.Error(err))
		r.changed(snap)
		r.reportError(err)
		return OutcomeIgnored, err
	}

	var outcome Outcome
	switch {
	case resp.Complete:
		outcome = OutcomeComplete
		s.Status = StatusComplete
	case resp.Correct:
		outcome = OutcomeCorrect
		s.Status = StatusCorrect
		if next := strings.TrimSpace(resp.NextMove); next != "" {
			s.OpponentMoving = true
			r.timers = append(r.timers, r.afterFunc(r.replyDelay, func() { r.playReply(gen, next) }))
		}
	default:
		outcome = OutcomeWrong
		s.Status = StatusWrong
		s.Board = prevBoard
		s.Moves = s.Moves[:prevLen]
		r.timers = append(r.timers, r.afterFunc(r.wrongResetDelay, func() { r.resetWrong(gen) }))
	}
	snap := s.clone()
	r.mu.Unlock()

	r.logger.Debug("puzzle_check", zap.String("puzzle_id", snap.PuzzleID), zap.String("outcome", outcome.String()), zap.Int("moves", len(snap.Moves)))
	if resp.PuzzleRating != nil && resp.PuzzleRatingChange != nil && r.cb.OnRatingChange != nil {
		r.cb.OnRatingChange(*resp.PuzzleRating, *resp.PuzzleRatingChange)
	}
	r.changed(snap)
	switch outcome {
	case OutcomeComplete:
		if r.cb.OnComplete != nil {
			r.cb.OnComplete(snap)
		}
	case OutcomeCorrect:
		if r.cb.OnCorrect != nil {
			r.cb.OnCorrect(snap, resp.NextMove)
		}
	case OutcomeWrong:
		if r.cb.OnWrong != nil {
			r.cb.OnWrong(snap)
		}
	}
	return outcome, nil
}

// playReply applies the opponent's answer. The move is recorded even when the
// local board cannot play it, so the list stays aligned with the server.
func (r *Reconciler) playReply(gen uint64, uci string) {
	r.mu.Lock()
	if gen != r.gen || r.session == nil {
		r.mu.Unlock()
		return
	}
	s := r.session
	s.OpponentMoving = false
	next, _, err := s.Board.Apply(uci)
	if err == nil {
		s.Board = next
	}
	s.Moves = append(append([]string(nil), s.Moves...), uci)
	if s.Status == StatusCorrect {
		s.Status = StatusPlaying
	}
	snap := s.clone()
	r.mu.Unlock()
	if err != nil {
		r.logger.Warn("puzzle_reply_error", zap.String("puzzle_id", snap.PuzzleID), zap.String("move", uci), zap.Error(err))
	}
	r.changed(snap)
}

func (r *Reconciler) resetWrong(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || r.session == nil || r.session.Status != StatusWrong {
		r.mu.Unlock()
		return
	}
	r.session.Status = StatusPlaying
	snap := r.session.clone()
	r.mu.Unlock()
	r.changed(snap)
}

func (r *Reconciler) stopTimersLocked() {
	for _, t := range r.timers {
		if t != nil {
			t.Stop()
		}
	}
	r.timers = nil
}

func (r *Reconciler) changed(s Session) {
	if r.cb.OnChange != nil && s.PuzzleID != "" {
		r.cb.OnChange(s)
	}
}

func (r *Reconciler) reportError(err error) {
	if r.cb.OnError != nil {
		r.cb.OnError(err)
	}
}
