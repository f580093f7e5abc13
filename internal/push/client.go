// Package push keeps the websocket to the backend's push endpoint: game topic
// subscriptions, per-user move errors, and outbound moves.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chessonline-client/pkg/chessdto"
)

type subscription struct {
	id        string
	topic     string
	handlerID int
	fn        func(json.RawMessage)
}

type Client struct {
	wsURL          string
	logger         *zap.Logger
	headerProvider HeaderProvider

	maxReconnect   int
	reconnectDelay time.Duration
	readyTimeout   time.Duration
	pingInterval   time.Duration
	dialTimeout    time.Duration

	mu           sync.Mutex
	state        State
	changed      chan struct{}
	conn         *websocket.Conn
	connCancel   context.CancelFunc
	token        string
	reconnecting bool
	closed       bool

	subM        sync.Mutex
	subs        map[string]*subscription
	errHandlers map[int]func(chessdto.MoveErrorMessage)
	errSubID    string
	nextID      int

	cbM      sync.RWMutex
	stateCbs []stateCallbackEntry
	nextCbID int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMaxReconnect(n int) Option {
	return func(c *Client) { c.maxReconnect = n }
}

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithReadyTimeout bounds how long a subscription waits for the connection.
func WithReadyTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.readyTimeout = d
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headerProvider = h }
}

func NewClient(wsURL string, opts ...Option) *Client {
	c := &Client{
		wsURL:          wsURL,
		logger:         zap.NewNop(),
		maxReconnect:   20,
		reconnectDelay: 500 * time.Millisecond,
		readyTimeout:   6 * time.Second,
		pingInterval:   30 * time.Second,
		dialTimeout:    10 * time.Second,
		state:          StateDisconnected,
		changed:        make(chan struct{}),
		subs:           make(map[string]*subscription),
		errHandlers:    make(map[int]func(chessdto.MoveErrorMessage)),
		errSubID:       uuid.NewString(),
		stopCh:         make(chan struct{}),
	}
	c.rootCtx, c.rootCancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials once; on failure a background reconnect loop takes over.
// After an authorization failure it returns ErrUnauthorized until SetToken.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.state == StateUnauthorized:
		c.mu.Unlock()
		return ErrUnauthorized
	case c.state == StateConnected || c.state == StateConnecting || c.reconnecting:
		c.mu.Unlock()
		return nil
	}
	changed := c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	if changed {
		c.notify(StateConnecting)
	}

	err := c.dial(ctx)
	if err == nil || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrClosed) {
		return err
	}
	c.logger.Warn("push_connect_error", zap.Error(err))
	c.scheduleReconnect()
	return err
}

func (c *Client) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, c.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.buildHeaders(),
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			c.markUnauthorized("handshake")
			return ErrUnauthorized
		}
		return fmt.Errorf("dial push: %w", err)
	}
	conn.SetReadLimit(1 << 20)

	c.mu.Lock()
	if c.closed || c.state == StateUnauthorized {
		closed := c.closed
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "closed")
		if closed {
			return ErrClosed
		}
		return ErrUnauthorized
	}
	connCtx, connCancel := context.WithCancel(c.rootCtx)
	c.conn = conn
	c.connCancel = connCancel
	c.reconnecting = false
	c.wg.Add(2)
	c.mu.Unlock()

	go c.listen(connCtx, conn)
	go c.pingLoop(connCtx, conn)
	c.resubscribe(connCtx)

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return ErrNotConnected
	}
	changed := c.setStateLocked(StateConnected)
	c.mu.Unlock()
	if changed {
		c.notify(StateConnected)
	}
	c.logger.Info("push_connected", zap.String("url", c.wsURL))
	return nil
}

// resubscribe re-sends every registered topic on a fresh connection.
func (c *Client) resubscribe(ctx context.Context) {
	c.subM.Lock()
	frames := make([]chessdto.Frame, 0, len(c.subs)+1)
	frames = append(frames, chessdto.Frame{Type: chessdto.FrameSubscribe, ID: c.errSubID, Destination: chessdto.UserErrorsDestination})
	for _, s := range c.subs {
		frames = append(frames, chessdto.Frame{Type: chessdto.FrameSubscribe, ID: s.id, Destination: s.topic})
	}
	c.subM.Unlock()
	for _, f := range frames {
		if err := c.send(ctx, f); err != nil {
			c.logger.Warn("push_resubscribe_error", zap.String("destination", f.Destination), zap.Error(err))
			return
		}
	}
}

func (c *Client) listen(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		var f chessdto.Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			c.dropped(conn, err)
			return
		}
		c.dispatch(f)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	consecutivePingFailures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				consecutivePingFailures = 0
				continue
			}
			consecutivePingFailures++
			if consecutivePingFailures >= 2 {
				c.dropped(conn, fmt.Errorf("ping failure: %w", err))
				return
			}
		}
	}
}

// dropped handles the loss of conn; stale connections are ignored.
func (c *Client) dropped(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn || c.closed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	changed := c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	_ = conn.CloseNow()
	c.logger.Warn("push_disconnected", zap.Error(cause))
	if changed {
		c.notify(StateDisconnected)
	}
	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed || c.reconnecting || c.state == StateUnauthorized {
		c.mu.Unlock()
		return
	}
	if c.maxReconnect <= 0 {
		changed := c.setStateLocked(StateFailed)
		c.mu.Unlock()
		if changed {
			c.notify(StateFailed)
		}
		return
	}
	c.reconnecting = true
	changed := c.setStateLocked(StateReconnecting)
	c.wg.Add(1)
	c.mu.Unlock()
	if changed {
		c.notify(StateReconnecting)
	}

	go func() {
		defer c.wg.Done()
		for attempt := 1; attempt <= c.maxReconnect; attempt++ {
			select {
			case <-c.stopCh:
				c.endReconnect("")
				return
			case <-time.After(backoffDuration(attempt, c.reconnectDelay)):
			}

			err := c.dial(c.rootCtx)
			// ErrNotConnected: the fresh connection dropped and a new loop owns recovery.
			if err == nil || errors.Is(err, ErrNotConnected) {
				return
			}
			if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrClosed) {
				c.endReconnect("")
				return
			}
			c.logger.Debug("push_reconnect_attempt", zap.Int("attempt", attempt), zap.Error(err))
		}
		c.logger.Error("push_reconnect_exhausted", zap.Int("attempts", c.maxReconnect))
		c.endReconnect(StateFailed)
	}()
}

func (c *Client) endReconnect(final State) {
	c.mu.Lock()
	c.reconnecting = false
	changed := false
	if final != "" && !c.closed && c.state != StateUnauthorized {
		changed = c.setStateLocked(final)
	}
	c.mu.Unlock()
	if changed {
		c.notify(final)
	}
}

func (c *Client) markUnauthorized(reason string) {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	changed := c.setStateLocked(StateUnauthorized)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}
	c.logger.Warn("push_unauthorized", zap.String("reason", reason))
	if changed {
		c.notify(StateUnauthorized)
	}
}

func (c *Client) dispatch(f chessdto.Frame) {
	switch f.Type {
	case chessdto.FrameError:
		if f.Code == chessdto.ErrorCodeUnauthorized {
			c.markUnauthorized("error frame")
			return
		}
		c.logger.Warn("push_error_frame", zap.String("code", f.Code), zap.String("message", f.Message))
	case chessdto.FrameMessage:
		if f.Destination == chessdto.UserErrorsDestination {
			c.dispatchMoveError(f.Body)
			return
		}
		c.subM.Lock()
		var fn func(json.RawMessage)
		if s := c.subs[f.Destination]; s != nil {
			fn = s.fn
		}
		c.subM.Unlock()
		if fn == nil {
			c.logger.Debug("push_unrouted_message", zap.String("destination", f.Destination))
			return
		}
		fn(f.Body)
	}
}

func (c *Client) dispatchMoveError(body json.RawMessage) {
	var msg chessdto.MoveErrorMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// plain-text error bodies are delivered as the message
		msg.Message = strings.Trim(string(body), `"`)
	}
	c.subM.Lock()
	handlers := make([]func(chessdto.MoveErrorMessage), 0, len(c.errHandlers))
	for _, h := range c.errHandlers {
		handlers = append(handlers, h)
	}
	c.subM.Unlock()
	for _, h := range handlers {
		h(msg)
	}
}

// WaitReady blocks until the connection is up, bounded by the ready timeout.
func (c *Client) WaitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.readyTimeout)
	defer cancel()
	for {
		c.mu.Lock()
		st, ch, closed := c.state, c.changed, c.closed
		c.mu.Unlock()
		switch {
		case closed:
			return ErrClosed
		case st == StateConnected:
			return nil
		case st == StateUnauthorized:
			return ErrUnauthorized
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrNotConnected, ctx.Err())
		}
	}
}

// SubscribeGame routes updates for gameID to fn. One handler per game: a second
// call replaces the first, so an update is never delivered twice.
func (c *Client) SubscribeGame(ctx context.Context, gameID string, fn func(chessdto.GameUpdate)) (func(), error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" || fn == nil {
		return nil, errors.New("game id and handler required")
	}
	if err := c.WaitReady(ctx); err != nil {
		return nil, err
	}
	topic := chessdto.GameTopic(gameID)
	handler := func(body json.RawMessage) {
		var u chessdto.GameUpdate
		if err := json.Unmarshal(body, &u); err != nil {
			c.logger.Warn("push_update_decode_error", zap.String("game_id", gameID), zap.Error(err))
			return
		}
		if u.TargetGameID() == "" {
			u.GameID = gameID
		}
		fn(u)
	}

	c.subM.Lock()
	c.nextID++
	hid := c.nextID
	sub, exists := c.subs[topic]
	if exists {
		sub.fn = handler
		sub.handlerID = hid
	} else {
		sub = &subscription{id: uuid.NewString(), topic: topic, handlerID: hid, fn: handler}
		c.subs[topic] = sub
	}
	c.subM.Unlock()

	if !exists {
		if err := c.send(ctx, chessdto.Frame{Type: chessdto.FrameSubscribe, ID: sub.id, Destination: topic}); err != nil {
			c.subM.Lock()
			if cur := c.subs[topic]; cur != nil && cur.handlerID == hid {
				delete(c.subs, topic)
			}
			c.subM.Unlock()
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	c.logger.Debug("push_subscribe", zap.String("game_id", gameID), zap.Bool("replaced", exists))
	return func() { c.unsubscribe(topic, hid) }, nil
}

func (c *Client) unsubscribe(topic string, handlerID int) {
	c.subM.Lock()
	sub := c.subs[topic]
	if sub == nil || sub.handlerID != handlerID {
		c.subM.Unlock()
		return
	}
	delete(c.subs, topic)
	c.subM.Unlock()

	ctx, cancel := context.WithTimeout(c.rootCtx, 3*time.Second)
	defer cancel()
	if err := c.send(ctx, chessdto.Frame{Type: chessdto.FrameUnsubscribe, ID: sub.id, Destination: topic}); err != nil && !errors.Is(err, ErrNotConnected) {
		c.logger.Debug("push_unsubscribe_error", zap.String("topic", topic), zap.Error(err))
	}
}

// SubscribeMoveErrors registers fn for rejected pushed moves.
func (c *Client) SubscribeMoveErrors(fn func(chessdto.MoveErrorMessage)) func() {
	if fn == nil {
		return func() {}
	}
	c.subM.Lock()
	c.nextID++
	id := c.nextID
	c.errHandlers[id] = fn
	c.subM.Unlock()
	return func() {
		c.subM.Lock()
		delete(c.errHandlers, id)
		c.subM.Unlock()
	}
}

// SendMove publishes a move over the socket.
func (c *Client) SendMove(ctx context.Context, gameID, uci string) error {
	body, err := json.Marshal(chessdto.MakeMoveRequest{Move: uci})
	if err != nil {
		return fmt.Errorf("marshal move: %w", err)
	}
	return c.send(ctx, chessdto.Frame{
		Type:        chessdto.FrameSend,
		ID:          uuid.NewString(),
		Destination: chessdto.GameMoveDestination(gameID),
		Body:        body,
	})
}

func (c *Client) send(ctx context.Context, f chessdto.Frame) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return wsjson.Write(ctx, conn, f)
}

func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetToken swaps the handshake token. An unauthorized client becomes
// connectable again; the caller decides when to Connect.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	changed := false
	if c.state == StateUnauthorized {
		changed = c.setStateLocked(StateDisconnected)
	}
	c.mu.Unlock()
	if changed {
		c.notify(StateDisconnected)
	}
}

func (c *Client) OnStateChange(cb StateCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	c.nextCbID++
	c.stateCbs = append(c.stateCbs, stateCallbackEntry{id: c.nextCbID, callback: cb})
	return c.nextCbID
}

func (c *Client) RemoveStateCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, cb := range c.stateCbs {
		if cb.id == id {
			c.stateCbs = append(c.stateCbs[:i], c.stateCbs[i+1:]...)
			break
		}
	}
}

// setStateLocked must be followed by notify outside the lock when it returns true.
func (c *Client) setStateLocked(s State) bool {
	if c.state == s {
		return false
	}
	c.state = s
	close(c.changed)
	c.changed = make(chan struct{})
	return true
}

func (c *Client) notify(state State) {
	c.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(c.stateCbs))
	copy(callbacks, c.stateCbs)
	c.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	changed := c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	c.stopOnce.Do(func() { close(c.stopCh) })
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	c.rootCancel()
	if changed {
		c.notify(StateDisconnected)
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *Client) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headerProvider != nil {
		for k, v := range c.headerProvider() {
			if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
				continue
			}
			hdr.Set(k, v)
		}
	}
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok != "" {
		hdr.Set("Authorization", "Bearer "+tok)
	}
	return hdr
}
