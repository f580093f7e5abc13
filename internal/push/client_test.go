package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chessonline-client/pkg/chessdto"
)

type fakeServer struct {
	url     string
	token   atomic.Value
	dials   atomic.Int32
	conns   chan *websocket.Conn
	authHdr atomic.Value
}

func newFakeServer(t *testing.T, token string) *fakeServer {
	t.Helper()
	fs := &fakeServer{conns: make(chan *websocket.Conn, 8)}
	fs.token.Store(token)
	stop := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.dials.Add(1)
		fs.authHdr.Store(r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") != "Bearer "+fs.token.Load().(string) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		fs.conns <- conn
		<-stop
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(stop) })
	fs.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return fs
}

func (fs *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-fs.conns:
		t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
		return conn
	case <-time.After(3 * time.Second):
		t.Fatalf("no connection accepted")
		return nil
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(chessdto.Frame) bool) chessdto.Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		var f chessdto.Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			t.Fatalf("server read: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func subscribeTo(topic string) func(chessdto.Frame) bool {
	return func(f chessdto.Frame) bool {
		return f.Type == chessdto.FrameSubscribe && f.Destination == topic
	}
}

func writeFrame(t *testing.T, conn *websocket.Conn, f chessdto.Frame) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, f); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func newTestClient(t *testing.T, url, token string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithToken(token), WithReconnectDelay(10 * time.Millisecond), WithReadyTimeout(2 * time.Second)}, opts...)
	c := NewClient(url, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})
	return c
}

type stateRecorder struct {
	mu     sync.Mutex
	states []State
	ch     chan State
}

func recordStates(c *Client) *stateRecorder {
	r := &stateRecorder{ch: make(chan State, 32)}
	c.OnStateChange(func(s State) {
		r.mu.Lock()
		r.states = append(r.states, s)
		r.mu.Unlock()
		r.ch <- s
	})
	return r
}

func (r *stateRecorder) await(t *testing.T, want State) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("state %s not reached", want)
		}
	}
}

func TestSubscribeGameDeliversToLatestHandlerOnly(t *testing.T) {
	fs := newFakeServer(t, "good")
	c := newTestClient(t, fs.url, "good")
	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	conn := fs.accept(t)
	if got := fs.authHdr.Load(); got != "Bearer good" {
		t.Fatalf("handshake must carry the token, got %v", got)
	}

	first := make(chan chessdto.GameUpdate, 4)
	second := make(chan chessdto.GameUpdate, 4)
	if _, err := c.SubscribeGame(ctx, "g1", func(u chessdto.GameUpdate) { first <- u }); err != nil {
		t.Fatalf("SubscribeGame: %v", err)
	}
	readUntil(t, conn, subscribeTo(chessdto.GameTopic("g1")))
	unsub, err := c.SubscribeGame(ctx, "g1", func(u chessdto.GameUpdate) { second <- u })
	if err != nil {
		t.Fatalf("SubscribeGame again: %v", err)
	}

	fen := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	body, _ := json.Marshal(map[string]any{"fenCurrent": fen, "drawOfferedById": nil})
	writeFrame(t, conn, chessdto.Frame{Type: chessdto.FrameMessage, Destination: chessdto.GameTopic("g1"), Body: body})

	select {
	case u := <-second:
		if u.FenCurrent == nil || *u.FenCurrent != fen || u.TargetGameID() != "g1" {
			t.Fatalf("unexpected update %+v", u)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("update not delivered")
	}
	select {
	case <-first:
		t.Fatalf("replaced handler must not receive updates")
	case <-time.After(50 * time.Millisecond):
	}

	unsub()
	readUntil(t, conn, func(f chessdto.Frame) bool {
		return f.Type == chessdto.FrameUnsubscribe && f.Destination == chessdto.GameTopic("g1")
	})
}

func TestUnauthorizedHandshakeStopsUntilNewToken(t *testing.T) {
	fs := newFakeServer(t, "good")
	c := newTestClient(t, fs.url, "stale")
	states := recordStates(c)
	ctx := context.Background()

	if err := c.Connect(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	states.await(t, StateUnauthorized)
	if err := c.Connect(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("client must stay dead for the token, got %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := fs.dials.Load(); n != 1 {
		t.Fatalf("no reconnect after an auth failure, got %d dials", n)
	}
	if _, err := c.SubscribeGame(ctx, "g1", func(chessdto.GameUpdate) {}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("subscribe must fail fast, got %v", err)
	}

	c.SetToken("good")
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect with new token: %v", err)
	}
	fs.accept(t)
	if !c.IsConnected() {
		t.Fatalf("expected connected")
	}
}

func TestUnauthorizedErrorFrameStopsReconnect(t *testing.T) {
	fs := newFakeServer(t, "good")
	c := newTestClient(t, fs.url, "good")
	states := recordStates(c)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	conn := fs.accept(t)
	writeFrame(t, conn, chessdto.Frame{Type: chessdto.FrameError, Code: chessdto.ErrorCodeUnauthorized, Message: "expired"})
	states.await(t, StateUnauthorized)
	time.Sleep(100 * time.Millisecond)
	if n := fs.dials.Load(); n != 1 {
		t.Fatalf("no reconnect after an auth failure, got %d dials", n)
	}
	if c.State() != StateUnauthorized {
		t.Fatalf("expected unauthorized, got %s", c.State())
	}
}

func TestReconnectResendsSubscriptions(t *testing.T) {
	fs := newFakeServer(t, "good")
	c := newTestClient(t, fs.url, "good")
	states := recordStates(c)
	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	conn := fs.accept(t)
	states.await(t, StateConnected)
	updates := make(chan chessdto.GameUpdate, 4)
	if _, err := c.SubscribeGame(ctx, "g9", func(u chessdto.GameUpdate) { updates <- u }); err != nil {
		t.Fatalf("SubscribeGame: %v", err)
	}
	readUntil(t, conn, subscribeTo(chessdto.GameTopic("g9")))

	_ = conn.Close(websocket.StatusGoingAway, "restart")
	states.await(t, StateReconnecting)
	next := fs.accept(t)
	readUntil(t, next, subscribeTo(chessdto.UserErrorsDestination))
	readUntil(t, next, subscribeTo(chessdto.GameTopic("g9")))
	states.await(t, StateConnected)

	status := "finished"
	body, _ := json.Marshal(chessdto.GameUpdate{GameID: "g9", Status: &status})
	writeFrame(t, next, chessdto.Frame{Type: chessdto.FrameMessage, Destination: chessdto.GameTopic("g9"), Body: body})
	select {
	case u := <-updates:
		if u.Status == nil || *u.Status != "finished" {
			t.Fatalf("unexpected update %+v", u)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("update after reconnect not delivered")
	}
}

func TestSendMoveAndMoveErrors(t *testing.T) {
	fs := newFakeServer(t, "good")
	c := newTestClient(t, fs.url, "good")
	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	conn := fs.accept(t)
	errs := make(chan chessdto.MoveErrorMessage, 1)
	unsub := c.SubscribeMoveErrors(func(m chessdto.MoveErrorMessage) { errs <- m })
	defer unsub()

	if err := c.SendMove(ctx, "g1", "e2e4"); err != nil {
		t.Fatalf("SendMove: %v", err)
	}
	f := readUntil(t, conn, func(f chessdto.Frame) bool { return f.Type == chessdto.FrameSend })
	var mv chessdto.MakeMoveRequest
	if err := json.Unmarshal(f.Body, &mv); err != nil || mv.Move != "e2e4" || f.Destination != chessdto.GameMoveDestination("g1") {
		t.Fatalf("unexpected send frame %+v", f)
	}

	body, _ := json.Marshal(chessdto.MoveErrorMessage{GameID: "g1", Message: "Illegal move"})
	writeFrame(t, conn, chessdto.Frame{Type: chessdto.FrameMessage, Destination: chessdto.UserErrorsDestination, Body: body})
	select {
	case m := <-errs:
		if m.GameID != "g1" || m.Message != "Illegal move" {
			t.Fatalf("unexpected move error %+v", m)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("move error not delivered")
	}
}

func TestSubscribeWaitsForReadySignal(t *testing.T) {
	c := newTestClient(t, "ws://127.0.0.1:1/ws", "good", WithReadyTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.SubscribeGame(context.Background(), "g1", func(chessdto.GameUpdate) {})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Fatalf("subscribe must wait for the ready signal")
	}
}

type fakeREST struct {
	moves []string
}

func (f *fakeREST) MakeMove(_ context.Context, gameID, uci string) (*chessdto.GameResponse, error) {
	f.moves = append(f.moves, gameID+":"+uci)
	return &chessdto.GameResponse{ID: gameID}, nil
}

func TestAutoSenderFallsBackToREST(t *testing.T) {
	rest := &fakeREST{}
	ws := newTestClient(t, "ws://127.0.0.1:1/ws", "good")
	sender := NewMoveSender("auto", rest, ws, nil)
	if err := sender.SendMove(context.Background(), "g1", "e2e4"); err != nil {
		t.Fatalf("SendMove: %v", err)
	}
	if len(rest.moves) != 1 || rest.moves[0] != "g1:e2e4" {
		t.Fatalf("expected REST delivery, got %v", rest.moves)
	}
	if err := NewMoveSender("ws", rest, ws, nil).SendMove(context.Background(), "g1", "e2e4"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("ws mode must not fall back, got %v", err)
	}
}
