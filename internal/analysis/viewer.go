package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/board"
	"github.com/park285/chessonline-client/internal/engine"
	"github.com/park285/chessonline-client/internal/history"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

const DefaultDepth = 14

var (
	ErrNoAnalyzer  = errors.New("no analyzer configured")
	ErrNotAnalyzed = errors.New("game not analysed yet")
)

// GameSource loads a finished game and its moves.
type GameSource interface {
	GetGame(ctx context.Context, gameID string) (*chessdto.GameResponse, error)
	GetGameMoves(ctx context.Context, gameID string) ([]chessdto.MoveResponse, error)
}

// Evaluator scores a position from white's point of view.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth int) (engine.Evaluation, error)
}

// Remote asks the backend to analyse a move list.
type Remote interface {
	AnalyzeGame(ctx context.Context, gameID string, moves []string, startFEN string, depth int) (*chessdto.AnalysisResponse, error)
}

type Opening struct {
	Code  string
	Title string
}

func (o Opening) String() string {
	if o.Code == "" {
		return ""
	}
	return o.Code + " " + o.Title
}

type Option func(*Viewer)

// WithEvaluator analyses locally instead of calling the backend.
func WithEvaluator(e Evaluator) Option {
	return func(v *Viewer) { v.local = e }
}

func WithRemote(r Remote) Option {
	return func(v *Viewer) { v.remote = r }
}

func WithDepth(depth int) Option {
	return func(v *Viewer) {
		if depth > 0 {
			v.depth = depth
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(v *Viewer) {
		if l != nil {
			v.logger = l
		}
	}
}

// Viewer walks a finished game move by move and holds its analysis once computed.
type Viewer struct {
	local  Evaluator
	remote Remote
	depth  int
	logger *zap.Logger

	mu      sync.Mutex
	game    chessdto.GameResponse
	hist    history.History
	cursor  history.Cursor
	opening Opening
	result  *chessdto.AnalysisResponse
}

// Load fetches gameID and positions the cursor on the final move.
func Load(ctx context.Context, src GameSource, gameID string, opts ...Option) (*Viewer, error) {
	g, err := src.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	moves, err := src.GetGameMoves(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load moves: %w", err)
	}
	return NewViewer(*g, history.Replay(board.StartFEN, moves), opts...), nil
}

func NewViewer(g chessdto.GameResponse, h history.History, opts ...Option) *Viewer {
	v := &Viewer{depth: DefaultDepth, logger: zap.NewNop(), game: g, hist: h}
	for _, opt := range opts {
		opt(v)
	}
	v.cursor = history.Live(h.Len())
	v.opening = NameOpening(h)
	return v
}

func (v *Viewer) Game() chessdto.GameResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.game
}

func (v *Viewer) History() history.History {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hist
}

func (v *Viewer) Opening() Opening {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opening
}

func (v *Viewer) Cursor() history.Cursor {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursor
}

// Position returns the FEN under the cursor and its entry, if any.
func (v *Viewer) Position() (string, *history.Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fen := v.hist.FENAt(v.cursor.Index)
	if v.cursor.Index < 0 || v.cursor.Index >= v.hist.Len() {
		return fen, nil
	}
	e := v.hist.Entries[v.cursor.Index]
	return fen, &e
}

func (v *Viewer) GoToStart()    { v.move(history.Cursor.GoToStart) }
func (v *Viewer) GoToPrevious() { v.move(history.Cursor.GoToPrevious) }
func (v *Viewer) GoToNext()     { v.move(history.Cursor.GoToNext) }
func (v *Viewer) GoToLatest()   { v.move(history.Cursor.GoToLatest) }

func (v *Viewer) GoToMove(i int) {
	v.move(func(c history.Cursor, n int) history.Cursor { return c.GoToMove(i, n) })
}

func (v *Viewer) move(step func(history.Cursor, int) history.Cursor) {
	v.mu.Lock()
	v.cursor = step(v.cursor, v.hist.Len())
	v.mu.Unlock()
}

// Result returns the last analysis, or nil.
func (v *Viewer) Result() *chessdto.AnalysisResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result
}

// Current returns the analysis of the move under the cursor.
func (v *Viewer) Current() (chessdto.MoveAnalysis, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.result == nil {
		return chessdto.MoveAnalysis{}, ErrNotAnalyzed
	}
	i := v.cursor.Index
	if i < 0 || i >= len(v.result.Moves) {
		return chessdto.MoveAnalysis{}, fmt.Errorf("no analysed move at %d", i)
	}
	return v.result.Moves[i], nil
}

// Analyze scores every move, locally when an evaluator is set. A history that
// could not be fully replayed always goes to the backend.
func (v *Viewer) Analyze(ctx context.Context) (*chessdto.AnalysisResponse, error) {
	v.mu.Lock()
	g, h, depth := v.game, v.hist, v.depth
	v.mu.Unlock()

	var (
		res *chessdto.AnalysisResponse
		err error
	)
	switch {
	case v.local != nil && replayable(h):
		res, err = analyzeLocal(ctx, v.local, g.ID, h, depth)
	case v.remote != nil:
		res, err = v.remote.AnalyzeGame(ctx, g.ID, h.UCIs(), h.StartFEN, depth)
	default:
		return nil, ErrNoAnalyzer
	}
	if err != nil {
		v.logger.Warn("analysis_failed", zap.String("game_id", g.ID), zap.Error(err))
		return nil, err
	}

	v.mu.Lock()
	if v.game.ID == g.ID {
		v.result = res
	}
	v.mu.Unlock()
	return res, nil
}

func replayable(h history.History) bool {
	for _, e := range h.Entries {
		if e.Raw {
			return false
		}
	}
	return true
}

func analyzeLocal(ctx context.Context, ev Evaluator, gameID string, h history.History, depth int) (*chessdto.AnalysisResponse, error) {
	prev, err := ev.Evaluate(ctx, h.StartFEN, depth)
	if err != nil {
		return nil, fmt.Errorf("evaluate start: %w", err)
	}
	moves := make([]chessdto.MoveAnalysis, 0, h.Len())
	for i, e := range h.Entries {
		white := board.SideToMove(h.FENAt(i-1)) == board.White
		next, err := ev.Evaluate(ctx, e.FEN, depth)
		if err != nil {
			return nil, fmt.Errorf("evaluate move %d: %w", i+1, err)
		}
		loss := prev.ScoreCP - next.ScoreCP
		if !white {
			loss = -loss
		}
		best := prev.ScoreCP
		ma := chessdto.MoveAnalysis{
			MoveNumber:     i/2 + 1,
			IsWhiteMove:    white,
			Move:           e.SAN,
			Evaluation:     next.ScoreCP,
			BestEvaluation: &best,
		}
		if !strings.EqualFold(prev.BestMove, e.UCI) {
			ma.BestMove = prev.BestMove
		}
		switch Classify(loss) {
		case SeverityBlunder:
			ma.IsBlunder = true
		case SeverityMistake:
			ma.IsMistake = true
		case SeverityInaccuracy:
			ma.IsInaccuracy = true
		}
		moves = append(moves, ma)
		prev = next
	}
	return Summarize(gameID, moves), nil
}

var ecoBook = sync.OnceValue(opening.NewBookECO)

// NameOpening finds the most specific ECO line the game followed.
func NameOpening(h history.History) Opening {
	if h.StartFEN != board.StartFEN || h.Len() == 0 {
		return Opening{}
	}
	g := nchess.NewGame()
	for _, u := range h.UCIs() {
		if err := g.PushNotationMove(u, nchess.UCINotation{}, nil); err != nil {
			break
		}
	}
	book := ecoBook()
	if book == nil {
		return Opening{}
	}
	if eco := book.Find(g.Moves()); eco != nil {
		return Opening{Code: eco.Code(), Title: eco.Title()}
	}
	return Opening{}
}
