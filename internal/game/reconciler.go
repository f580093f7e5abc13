// Package game keeps a local chess position consistent with the server's
// authoritative game state, which arrives asynchronously over push.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/domain"
	"github.com/park285/chessonline-client/internal/history"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

var (
	ErrNotLoaded      = errors.New("game not loaded")
	ErrClosed         = errors.New("game view closed")
	ErrGameNotActive  = errors.New("game is not active")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNotAPlayer     = errors.New("spectators cannot move")
	ErrViewingHistory = errors.New("return to the latest position to move")
	ErrNoPromotion    = errors.New("no promotion pending")
	ErrBadPromotion   = errors.New("promotion piece must be one of q, r, b, n")
)

// MoveError is a rejection reported by the server for a sent move.
type MoveError struct {
	Message string
}

func (e *MoveError) Error() string {
	if e.Message == "" {
		return "move rejected by server"
	}
	return "move rejected by server: " + e.Message
}

type MoveResult int

const (
	MoveRejected MoveResult = iota
	MoveApplied
	MoveNeedsPromotion
)

func (m MoveResult) String() string {
	switch m {
	case MoveApplied:
		return "applied"
	case MoveNeedsPromotion:
		return "needs_promotion"
	default:
		return "rejected"
	}
}

type API interface {
	GetGame(ctx context.Context, gameID string) (*chessdto.GameResponse, error)
	GetGameMoves(ctx context.Context, gameID string) ([]chessdto.MoveResponse, error)
	ResignGame(ctx context.Context, gameID string) (*chessdto.GameResponse, error)
	OfferDraw(ctx context.Context, gameID string) (*chessdto.GameResponse, error)
	RespondDraw(ctx context.Context, gameID string, accept bool) (*chessdto.GameResponse, error)
}

type Push interface {
	SubscribeGame(ctx context.Context, gameID string, fn func(chessdto.GameUpdate)) (func(), error)
	SubscribeMoveErrors(fn func(chessdto.MoveErrorMessage)) func()
	IsConnected() bool
}

type MoveSender interface {
	SendMove(ctx context.Context, gameID, uci string) error
}

type Archiver interface {
	SaveGame(ctx context.Context, g *domain.ArchivedGame) error
}

type Promotion struct {
	From string
	To   string
}

// View is a consistent copy of the reconciler state at one instant.
type View struct {
	Loaded           bool
	Snapshot         Snapshot
	Board            *board.Board
	DisplayFEN       string
	LastMove         string
	History          history.History
	Cursor           history.Cursor
	WhiteMs          int64
	BlackMs          int64
	Ticking          bool
	MyColor          board.Color
	Spectator        bool
	MyTurn           bool
	Optimistic       bool
	PendingPromotion *Promotion
	Err              error
}

type pendingMove struct {
	seq          uint64
	uci          string
	prevBoard    *board.Board
	predicted    *board.Board
	histLen      int
	prevClock    Clock
	prevWhiteMs  int64
	prevBlackMs  int64
	historyEntry history.Entry
}

// loadAttempts bounds refetches of a load raced by push updates.
const loadAttempts = 3

type Option func(*Reconciler)

func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithNow replaces the wall clock used for clock capture and extrapolation.
func WithNow(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.tickEvery = d
		}
	}
}

func WithArchive(a Archiver) Option {
	return func(r *Reconciler) { r.archive = a }
}

type Reconciler struct {
	gameID string
	userID string

	api     API
	push    Push
	sender  MoveSender
	archive Archiver
	logger  *zap.Logger

	now       func() time.Time
	tickEvery time.Duration

	rootCtx    context.Context
	rootCancel context.CancelFunc

	mu          sync.Mutex
	closed      bool
	loaded      bool
	loadGen     uint64
	movesGen    uint64
	updates     uint64
	resyncing   bool
	seq         uint64
	snap        Snapshot
	board       *board.Board
	hist        history.History
	cursor      history.Cursor
	clock       Clock
	whiteMs     int64
	blackMs     int64
	pending     *pendingMove
	promo       *Promotion
	err         error
	unsubscribe func()
	unsubErrors func()
	tickStop    chan struct{}
	archived    bool

	wg     sync.WaitGroup
	events eventRegistry
}

func NewReconciler(gameID, userID string, api API, push Push, sender MoveSender, opts ...Option) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconciler{
		gameID:     strings.TrimSpace(gameID),
		userID:     strings.TrimSpace(userID),
		api:        api,
		push:       push,
		sender:     sender,
		logger:     zap.NewNop(),
		now:        time.Now,
		tickEvery:  100 * time.Millisecond,
		rootCtx:    ctx,
		rootCancel: cancel,
		board:      board.Start(),
		hist:       history.History{StartFEN: board.StartFEN},
		cursor:     history.Live(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("game_id", r.gameID))
	return r
}

func (r *Reconciler) GameID() string { return r.gameID }

func (r *Reconciler) OnEvent(cb EventCallback) int { return r.events.add(cb) }

func (r *Reconciler) RemoveEventCallback(id int) { r.events.remove(id) }

func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// Load fetches the snapshot and move list and replaces local state wholesale.
// A failure is recorded in View.Err and returned; there is no retry. When a
// push update lands while the fetch is in flight, the fetch is repeated so an
// older snapshot never replaces newer pushed state.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.loadGen++
	gen := r.loadGen
	r.mu.Unlock()

	for attempt := 1; ; attempt++ {
		r.mu.Lock()
		seen := r.updates
		r.mu.Unlock()

		g, err := r.api.GetGame(ctx, r.gameID)
		var moves []chessdto.MoveResponse
		if err == nil {
			moves, err = r.api.GetGameMoves(ctx, r.gameID)
		}
		if err == nil && g == nil {
			err = errors.New("empty game response")
		}

		r.mu.Lock()
		if r.closed || gen != r.loadGen {
			r.mu.Unlock()
			return nil
		}
		if err == nil && r.loaded && r.updates != seen {
			r.mu.Unlock()
			if attempt < loadAttempts {
				r.logger.Debug("game_load_superseded", zap.Int("attempt", attempt))
				continue
			}
			r.logger.Info("game_load_dropped_stale")
			return nil
		}
		var events []Event
		if err == nil {
			events, err = r.applyLoadLocked(g, moves)
		}
		if err != nil {
			r.err = fmt.Errorf("load game %s: %w", r.gameID, err)
			err = r.err
			events = []Event{{Kind: EventState, Err: err}}
		}
		r.fillViewsLocked(events)
		r.mu.Unlock()

		if err != nil {
			r.logger.Warn("game_load_error", zap.Error(err))
		} else {
			r.logger.Debug("game_load", zap.Int("moves", len(moves)))
		}
		r.dispatch(ctx, events)
		return err
	}
}

func (r *Reconciler) applyLoadLocked(g *chessdto.GameResponse, moves []chessdto.MoveResponse) ([]Event, error) {
	snap := SnapshotFromResponse(g)
	b, err := board.FromFEN(snap.FEN)
	if err != nil {
		return nil, err
	}
	prev, wasLoaded := r.snap, r.loaded

	r.snap = snap
	r.board = b
	r.hist = history.Replay(board.StartFEN, moves)
	if wasLoaded {
		r.cursor = r.cursor.Follow(r.hist.Len())
	} else {
		r.cursor = history.Live(r.hist.Len())
	}
	captured := snap.LastMoveAt
	if captured.IsZero() {
		captured = r.now()
	}
	r.recaptureLocked(captured)
	r.pending = nil
	r.promo = nil
	r.err = nil
	r.loaded = true

	events := []Event{{Kind: EventState}}
	if wasLoaded {
		events = append(events, r.transitionEventsLocked(prev)...)
	}
	r.updateTickerLocked()
	return events, nil
}

// Subscribe opens the push subscription for this game. Calling it twice is a no-op.
func (r *Reconciler) Subscribe(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.unsubscribe != nil {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	unsub, err := r.push.SubscribeGame(ctx, r.gameID, func(u chessdto.GameUpdate) {
		r.ApplyUpdate(r.rootCtx, u)
	})
	if err != nil {
		return fmt.Errorf("subscribe game %s: %w", r.gameID, err)
	}
	unsubErrors := r.push.SubscribeMoveErrors(r.handleMoveError)

	r.mu.Lock()
	if r.closed || r.unsubscribe != nil {
		r.mu.Unlock()
		unsub()
		unsubErrors()
		if r.closed {
			return ErrClosed
		}
		return nil
	}
	r.unsubscribe = unsub
	r.unsubErrors = unsubErrors
	r.updateTickerLocked()
	r.mu.Unlock()
	r.logger.Debug("game_subscribe")
	return nil
}

// ConnectionChanged re-evaluates whether the clock may tick after the push
// transport connects or drops. A view whose subscription never went through
// subscribes again and reloads once push is back.
func (r *Reconciler) ConnectionChanged() {
	r.mu.Lock()
	r.updateTickerLocked()
	resync := !r.closed && r.loaded && r.unsubscribe == nil && !r.resyncing &&
		r.push != nil && r.push.IsConnected()
	if resync {
		r.resyncing = true
		r.wg.Add(1)
	}
	r.mu.Unlock()
	if resync {
		go r.resync()
	}
}

func (r *Reconciler) resync() {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		r.resyncing = false
		r.mu.Unlock()
	}()
	if err := r.Subscribe(r.rootCtx); err != nil {
		r.logger.Warn("game_resubscribe_error", zap.Error(err))
		return
	}
	if err := r.Load(r.rootCtx); err != nil {
		r.logger.Warn("game_resync_load_error", zap.Error(err))
	}
}

// ApplyUpdate merges one pushed update into local state.
func (r *Reconciler) ApplyUpdate(ctx context.Context, u chessdto.GameUpdate) {
	r.mu.Lock()
	if r.closed || !r.loaded {
		r.mu.Unlock()
		return
	}
	if id := u.TargetGameID(); id != "" && id != r.gameID {
		r.mu.Unlock()
		return
	}

	r.updates++
	prev := r.snap
	r.snap = MergeUpdate(prev, u)
	if hasTimeField(u) {
		r.recaptureLocked(r.now())
	}

	refetch := false
	if u.FenCurrent != nil {
		fen := strings.TrimSpace(*u.FenCurrent)
		switch {
		case fen == r.board.FEN():
			r.pending = nil
		case r.pending != nil && fen == r.pending.prevBoard.FEN():
			// the server has not processed the in-flight move yet
		default:
			nb, err := board.FromFEN(fen)
			if err != nil {
				r.logger.Warn("game_update_bad_fen", zap.String("fen", fen), zap.Error(err))
				break
			}
			r.board = nb
			r.pending = nil
			r.promo = nil
			refetch = true
		}
	}

	events := []Event{{Kind: EventState}}
	events = append(events, r.transitionEventsLocked(prev)...)
	r.updateTickerLocked()
	var gen uint64
	if refetch {
		r.movesGen++
		gen = r.movesGen
	}
	r.fillViewsLocked(events)
	r.mu.Unlock()

	r.events.emit(events...)
	if refetch {
		r.refreshMoves(ctx, gen)
	}
	r.archiveIfOver(ctx, events)
}

func (r *Reconciler) refreshMoves(ctx context.Context, gen uint64) {
	moves, err := r.api.GetGameMoves(ctx, r.gameID)

	r.mu.Lock()
	if r.closed || gen != r.movesGen {
		r.mu.Unlock()
		return
	}
	if err != nil {
		r.mu.Unlock()
		r.logger.Warn("game_moves_refresh_error", zap.Error(err))
		return
	}
	r.hist = history.Replay(board.StartFEN, moves)
	if r.pending != nil {
		r.pending.histLen = r.hist.Len()
		r.hist = r.hist.Append(r.pending.historyEntry)
	}
	r.cursor = r.cursor.Follow(r.hist.Len())
	r.updateTickerLocked()
	events := []Event{{Kind: EventState}}
	r.fillViewsLocked(events)
	r.mu.Unlock()
	r.events.emit(events...)
}

// AttemptMove tries a local move from one square to another. A pawn reaching
// the last rank is held until Promote or CancelPromotion.
func (r *Reconciler) AttemptMove(ctx context.Context, from, to string) (MoveResult, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))

	r.mu.Lock()
	if err := r.canMoveLocked(); err != nil {
		r.mu.Unlock()
		return MoveRejected, err
	}
	if !r.board.IsLegal(from, to) {
		r.mu.Unlock()
		return MoveRejected, board.ErrIllegalMove
	}
	if r.board.NeedsPromotion(from, to) {
		r.promo = &Promotion{From: from, To: to}
		events := []Event{{Kind: EventPromotionRequired}}
		r.fillViewsLocked(events)
		r.mu.Unlock()
		r.events.emit(events...)
		return MoveNeedsPromotion, nil
	}
	r.mu.Unlock()
	return r.commit(ctx, from+to)
}

// AttemptUCI accepts a move in UCI form; a promotion suffix completes it directly.
func (r *Reconciler) AttemptUCI(ctx context.Context, uci string) (MoveResult, error) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	if len(uci) == 5 {
		res, err := r.AttemptMove(ctx, uci[:2], uci[2:4])
		if res != MoveNeedsPromotion {
			return res, err
		}
		return r.Promote(ctx, uci[4:])
	}
	if len(uci) != 4 {
		return MoveRejected, board.ErrIllegalMove
	}
	return r.AttemptMove(ctx, uci[:2], uci[2:])
}

// Promote completes a held promotion with piece q, r, b or n.
func (r *Reconciler) Promote(ctx context.Context, piece string) (MoveResult, error) {
	piece = strings.ToLower(strings.TrimSpace(piece))
	if piece != "q" && piece != "r" && piece != "b" && piece != "n" {
		return MoveRejected, ErrBadPromotion
	}
	r.mu.Lock()
	p := r.promo
	r.promo = nil
	r.mu.Unlock()
	if p == nil {
		return MoveRejected, ErrNoPromotion
	}
	return r.commit(ctx, p.From+p.To+piece)
}

func (r *Reconciler) CancelPromotion() {
	r.mu.Lock()
	if r.promo == nil {
		r.mu.Unlock()
		return
	}
	r.promo = nil
	events := []Event{{Kind: EventState}}
	r.fillViewsLocked(events)
	r.mu.Unlock()
	r.events.emit(events...)
}

func (r *Reconciler) commit(ctx context.Context, uci string) (MoveResult, error) {
	r.mu.Lock()
	if err := r.canMoveLocked(); err != nil {
		r.mu.Unlock()
		return MoveRejected, err
	}
	next, mv, err := r.board.Apply(uci)
	if err != nil {
		r.mu.Unlock()
		return MoveRejected, err
	}
	r.seq++
	entry := history.Entry{SAN: mv.SAN, UCI: mv.UCI, FEN: next.FEN()}
	p := &pendingMove{
		seq:          r.seq,
		uci:          mv.UCI,
		prevBoard:    r.board,
		predicted:    next,
		histLen:      r.hist.Len(),
		prevClock:    r.clock,
		prevWhiteMs:  r.whiteMs,
		prevBlackMs:  r.blackMs,
		historyEntry: entry,
	}
	mover := r.board.Turn()
	r.board = next
	r.hist = r.hist.Append(entry)
	r.cursor = r.cursor.Follow(r.hist.Len())
	r.pending = p
	r.freezeLocked(mover)
	r.updateTickerLocked()
	events := []Event{{Kind: EventState}}
	r.fillViewsLocked(events)
	r.mu.Unlock()
	r.events.emit(events...)

	if err := r.sender.SendMove(ctx, r.gameID, mv.UCI); err != nil {
		r.logger.Warn("game_move_send_error", zap.String("move", mv.UCI), zap.Error(err))
		r.rollback(p.seq, fmt.Errorf("send move %s: %w", mv.UCI, err))
		return MoveRejected, fmt.Errorf("send move %s: %w", mv.UCI, err)
	}
	r.logger.Debug("game_move_sent", zap.String("move", mv.UCI))
	return MoveApplied, nil
}

// rollback undoes the optimistic move seq unless an authoritative update has
// already replaced the predicted position.
func (r *Reconciler) rollback(seq uint64, cause error) {
	r.mu.Lock()
	p := r.pending
	if p != nil && p.seq == seq {
		r.pending = nil
		if r.board == p.predicted {
			r.board = p.prevBoard
			r.hist = r.hist.Truncate(p.histLen)
			r.cursor = r.cursor.Follow(r.hist.Len())
			r.clock = p.prevClock
			r.whiteMs, r.blackMs = p.prevWhiteMs, p.prevBlackMs
		}
		r.updateTickerLocked()
	}
	events := []Event{{Kind: EventState}, {Kind: EventAlert, Err: cause}}
	r.fillViewsLocked(events)
	r.mu.Unlock()
	r.events.emit(events...)
}

func (r *Reconciler) handleMoveError(msg chessdto.MoveErrorMessage) {
	if msg.GameID != "" && msg.GameID != r.gameID {
		return
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	p := r.pending
	r.mu.Unlock()

	cause := &MoveError{Message: msg.Message}
	r.logger.Info("game_move_rejected", zap.String("message", msg.Message))
	if p != nil {
		r.rollback(p.seq, cause)
		return
	}
	r.alert(cause)
}

func (r *Reconciler) canMoveLocked() error {
	switch {
	case r.closed:
		return ErrClosed
	case !r.loaded:
		return ErrNotLoaded
	case !r.snap.Active():
		return ErrGameNotActive
	}
	color, ok := r.snap.ColorOf(r.userID)
	if !ok {
		return ErrNotAPlayer
	}
	if r.board.Turn() != color {
		return ErrNotYourTurn
	}
	if r.cursor.Viewing {
		return ErrViewingHistory
	}
	return nil
}

func (r *Reconciler) GoToStart() View {
	return r.navigate(func(c history.Cursor, n int) history.Cursor { return c.GoToStart(n) })
}

func (r *Reconciler) GoToPrevious() View {
	return r.navigate(func(c history.Cursor, n int) history.Cursor { return c.GoToPrevious(n) })
}

func (r *Reconciler) GoToNext() View {
	return r.navigate(func(c history.Cursor, n int) history.Cursor { return c.GoToNext(n) })
}

// GoToLatest snaps to the last entry and resumes live-following.
func (r *Reconciler) GoToLatest() View {
	return r.navigate(func(c history.Cursor, n int) history.Cursor { return c.GoToLatest(n) })
}

func (r *Reconciler) GoToMove(i int) View {
	return r.navigate(func(c history.Cursor, n int) history.Cursor { return c.GoToMove(i, n) })
}

func (r *Reconciler) navigate(step func(history.Cursor, int) history.Cursor) View {
	r.mu.Lock()
	r.cursor = step(r.cursor, r.hist.Len())
	events := []Event{{Kind: EventState}}
	r.fillViewsLocked(events)
	v := events[0].View
	r.mu.Unlock()
	r.events.emit(events...)
	return v
}

func (r *Reconciler) Resign(ctx context.Context) error {
	return r.action(ctx, "resign", func(ctx context.Context) error {
		_, err := r.api.ResignGame(ctx, r.gameID)
		return err
	})
}

func (r *Reconciler) OfferDraw(ctx context.Context) error {
	return r.action(ctx, "offer_draw", func(ctx context.Context) error {
		_, err := r.api.OfferDraw(ctx, r.gameID)
		return err
	})
}

func (r *Reconciler) RespondDraw(ctx context.Context, accept bool) error {
	return r.action(ctx, "respond_draw", func(ctx context.Context) error {
		_, err := r.api.RespondDraw(ctx, r.gameID, accept)
		return err
	})
}

// action runs a server-side state change and then reloads; nothing is applied optimistically.
func (r *Reconciler) action(ctx context.Context, name string, call func(context.Context) error) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.mu.Unlock()
	if err := call(ctx); err != nil {
		r.logger.Warn("game_action_error", zap.String("action", name), zap.Error(err))
		err = fmt.Errorf("%s: %w", name, err)
		r.alert(err)
		return err
	}
	r.logger.Info("game_action", zap.String("action", name))
	return r.Load(ctx)
}

func (r *Reconciler) alert(err error) {
	r.mu.Lock()
	events := []Event{{Kind: EventAlert, Err: err}}
	r.fillViewsLocked(events)
	r.mu.Unlock()
	r.events.emit(events...)
}

// Close tears down the subscription and the clock ticker and waits for the ticker to exit.
func (r *Reconciler) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.loadGen++
	r.movesGen++
	unsub, unsubErrors := r.unsubscribe, r.unsubErrors
	r.unsubscribe, r.unsubErrors = nil, nil
	r.stopTickerLocked()
	r.promo = nil
	r.mu.Unlock()

	r.rootCancel()
	if unsub != nil {
		unsub()
	}
	if unsubErrors != nil {
		unsubErrors()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *Reconciler) transitionEventsLocked(prev Snapshot) []Event {
	var events []Event
	switch DrawSignal(prev.DrawOfferedByID, r.snap.DrawOfferedByID, r.userID) {
	case DrawOffered:
		events = append(events, Event{Kind: EventDrawOffered})
	case DrawDeclined:
		events = append(events, Event{Kind: EventDrawDeclined})
	}
	if prev.Active() && !r.snap.Active() {
		events = append(events, Event{Kind: EventGameOver})
	}
	return events
}

func (r *Reconciler) dispatch(ctx context.Context, events []Event) {
	r.events.emit(events...)
	r.archiveIfOver(ctx, events)
}

func (r *Reconciler) archiveIfOver(ctx context.Context, events []Event) {
	if r.archive == nil {
		return
	}
	over := false
	for _, ev := range events {
		if ev.Kind == EventGameOver {
			over = true
			break
		}
	}
	if !over {
		return
	}
	r.mu.Lock()
	if r.archived {
		r.mu.Unlock()
		return
	}
	r.archived = true
	v := r.viewLocked()
	r.mu.Unlock()

	rec := archiveRecord(r.userID, v, r.now())
	if err := r.archive.SaveGame(ctx, rec); err != nil {
		r.logger.Error("game_archive_error", zap.Error(err))
		return
	}
	r.logger.Info("game_archive", zap.String("result", rec.Result), zap.Int("moves", len(rec.MovesSAN)))
}

func archiveRecord(ownerID string, v View, now time.Time) *domain.ArchivedGame {
	s := v.Snapshot
	ended := s.LastMoveAt
	if ended.IsZero() {
		ended = now
	}
	rec := &domain.ArchivedGame{
		GameID:       s.ID,
		OwnerID:      ownerID,
		WhiteID:      s.WhiteID,
		WhiteName:    s.NameOf(board.White),
		BlackID:      s.BlackID,
		BlackName:    s.NameOf(board.Black),
		Result:       s.Result,
		ResultReason: s.ResultReason,
		TimeControl:  s.TimeControl,
		Rated:        s.Rated,
		StartFEN:     v.History.StartFEN,
		MovesUCI:     v.History.UCIs(),
		MovesSAN:     v.History.SANs(),
		EndedAt:      ended,
	}
	if v.Board != nil {
		rec.FinalFEN = v.Board.FEN()
	}
	return rec
}

func (r *Reconciler) fillViewsLocked(events []Event) {
	if len(events) == 0 {
		return
	}
	v := r.viewLocked()
	for i := range events {
		events[i].View = v
	}
}

func (r *Reconciler) viewLocked() View {
	v := View{
		Loaded:     r.loaded,
		Snapshot:   r.snap,
		Board:      r.board,
		DisplayFEN: r.board.FEN(),
		History:    r.hist,
		Cursor:     r.cursor,
		WhiteMs:    r.whiteMs,
		BlackMs:    r.blackMs,
		Ticking:    r.tickStop != nil,
		Optimistic: r.pending != nil,
		Err:        r.err,
	}
	if r.promo != nil {
		p := *r.promo
		v.PendingPromotion = &p
	}
	color, ok := r.snap.ColorOf(r.userID)
	v.MyColor = color
	v.Spectator = !ok
	v.MyTurn = ok && r.snap.Active() && r.board.Turn() == color
	if r.cursor.Viewing {
		v.DisplayFEN = r.hist.FENAt(r.cursor.Index)
		if r.cursor.Index >= 0 && r.cursor.Index < r.hist.Len() {
			v.LastMove = r.hist.Entries[r.cursor.Index].UCI
		}
	} else if n := r.hist.Len(); n > 0 {
		v.LastMove = r.hist.Entries[n-1].UCI
	}
	return v
}
