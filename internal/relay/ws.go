// Package relay connects the board to remote players: a websocket that
// carries click frames in and snapshot frames out, and a webhook that is
// told about every applied event.
package relay

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boarddto"
)

var ErrNotConnected = errors.New("relay: not connected")

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// HeaderProvider returns headers added to each handshake or request.
type HeaderProvider func() map[string]string

// FrameHandler receives inbound frames. The returned frame, if any, is
// written back on the same socket.
type FrameHandler func(ctx context.Context, f boarddto.Frame) *boarddto.Frame

type WSOption func(*WebSocket)

// WithPingInterval overrides the keepalive interval (30s).
func WithPingInterval(d time.Duration) WSOption {
	return func(ws *WebSocket) {
		if d > 0 {
			ws.pingInterval = d
		}
	}
}

// WithWSHeaders sets the handshake header provider.
func WithWSHeaders(h HeaderProvider) WSOption {
	return func(ws *WebSocket) { ws.headers = h }
}

// WithWSLogger sets the logger.
func WithWSLogger(l *zap.Logger) WSOption {
	return func(ws *WebSocket) {
		if l != nil {
			ws.logger = l
		}
	}
}

// WebSocket is a reconnecting relay client.
type WebSocket struct {
	url     string
	headers HeaderProvider
	logger  *zap.Logger
	handler FrameHandler

	connM sync.Mutex
	conn  *websocket.Conn
	// writes on one conn must not interleave
	writeM sync.Mutex

	stateM sync.RWMutex
	state  State

	maxReconnect int
	pingInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

// NewWebSocket prepares a client for url. maxReconnect of zero disables
// reconnecting.
func NewWebSocket(url string, maxReconnect int, handler FrameHandler, opts ...WSOption) *WebSocket {
	ws := &WebSocket{
		url:          url,
		handler:      handler,
		logger:       zap.NewNop(),
		state:        StateDisconnected,
		maxReconnect: maxReconnect,
		pingInterval: 30 * time.Second,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ws)
	}
	ws.rootCtx, ws.rootCancel = context.WithCancel(context.Background())
	return ws
}

func (ws *WebSocket) State() State {
	ws.stateM.RLock()
	defer ws.stateM.RUnlock()
	return ws.state
}

// Connect dials once. On failure the client keeps retrying in the
// background when reconnecting is enabled.
func (ws *WebSocket) Connect(ctx context.Context) error {
	if s := ws.State(); s == StateConnected || s == StateConnecting {
		return nil
	}
	ws.setState(StateConnecting)

	conn, err := ws.dial(ctx)
	if err != nil {
		ws.setState(StateFailed)
		ws.logger.Warn("relay dial failed", zap.String("url", ws.url), zap.Error(err))
		ws.scheduleReconnect()
		return err
	}
	ws.attach(conn)
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, ws.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	return conn, err
}

func (ws *WebSocket) attach(conn *websocket.Conn) {
	ws.connM.Lock()
	ws.conn = conn
	ws.connM.Unlock()
	ws.setState(StateConnected)
	ws.logger.Info("relay connected", zap.String("url", ws.url))

	ws.wg.Add(2)
	go ws.listen(conn)
	go ws.pingLoop(conn)
}

func (ws *WebSocket) listen(conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		var f boarddto.Frame
		if err := wsjson.Read(ws.rootCtx, conn, &f); err != nil {
			if ws.isStopping() {
				return
			}
			ws.logger.Warn("relay read failed", zap.Error(err))
			ws.drop(conn, "reconnect")
			return
		}
		if ws.handler == nil {
			continue
		}
		if reply := ws.handler(ws.rootCtx, f); reply != nil {
			if err := ws.write(ws.rootCtx, conn, *reply); err != nil {
				ws.logger.Warn("relay reply failed", zap.Error(err))
			}
		}
	}
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ws.stopCh:
			return
		case <-ws.rootCtx.Done():
			return
		case <-t.C:
			if ws.current() != conn {
				return
			}
			ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if !ws.isStopping() {
					ws.drop(conn, "ping failure")
				}
				return
			}
		}
	}
}

// drop closes conn if it is still current and starts reconnecting.
func (ws *WebSocket) drop(conn *websocket.Conn, reason string) {
	ws.connM.Lock()
	if ws.conn != conn {
		ws.connM.Unlock()
		return
	}
	ws.conn = nil
	ws.connM.Unlock()

	_ = conn.Close(websocket.StatusGoingAway, reason)
	ws.setState(StateDisconnected)
	ws.scheduleReconnect()
}

func (ws *WebSocket) scheduleReconnect() {
	if ws.maxReconnect <= 0 || ws.isStopping() {
		return
	}
	ws.setState(StateReconnecting)

	go func() {
		for attempt := 1; attempt <= ws.maxReconnect; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}
			conn, err := ws.dial(ws.rootCtx)
			if err != nil {
				ws.logger.Debug("relay reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if ws.isStopping() {
				_ = conn.Close(websocket.StatusNormalClosure, "close")
				return
			}
			ws.attach(conn)
			return
		}
		ws.setState(StateFailed)
		ws.logger.Error("relay gave up reconnecting", zap.Int("attempts", ws.maxReconnect))
	}()
}

// Send writes f on the current connection.
func (ws *WebSocket) Send(ctx context.Context, f boarddto.Frame) error {
	conn := ws.current()
	if conn == nil {
		return ErrNotConnected
	}
	return ws.write(ctx, conn, f)
}

func (ws *WebSocket) write(ctx context.Context, conn *websocket.Conn, f boarddto.Frame) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ws.writeM.Lock()
	defer ws.writeM.Unlock()
	return wsjson.Write(ctx, conn, f)
}

// Notify forwards a session update as a snapshot frame. Updates that
// arrive while disconnected are dropped; the next one carries full state.
func (ws *WebSocket) Notify(ctx context.Context, u session.Update) error {
	snap := u.Snapshot
	err := ws.Send(ctx, boarddto.Frame{
		Type:     boarddto.FrameSnapshot,
		Outcome:  u.Outcome.String(),
		Message:  u.Message,
		Snapshot: &snap,
	})
	if errors.Is(err, ErrNotConnected) {
		ws.logger.Debug("relay offline, update dropped", zap.String("game_id", snap.GameID))
		return nil
	}
	return err
}

// Close stops reconnecting, closes the socket and waits for the reader
// goroutines until ctx is done.
func (ws *WebSocket) Close(ctx context.Context) error {
	ws.stopOnce.Do(func() { close(ws.stopCh) })

	ws.connM.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.connM.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	defer ws.rootCancel()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		ws.setState(StateDisconnected)
		return nil
	}
}

func (ws *WebSocket) current() *websocket.Conn {
	ws.connM.Lock()
	defer ws.connM.Unlock()
	return ws.conn
}

func (ws *WebSocket) setState(s State) {
	ws.stateM.Lock()
	prev := ws.state
	ws.state = s
	ws.stateM.Unlock()
	if prev != s {
		ws.logger.Debug("relay state", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headers == nil {
		return hdr
	}
	for k, v := range ws.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}

// Dispatch applies inbound click and reset frames to sess. Resulting
// snapshots reach the relay through the session's observers, so only
// rejected frames get a direct reply.
func Dispatch(sess *session.Session) FrameHandler {
	return func(ctx context.Context, f boarddto.Frame) *boarddto.Frame {
		switch f.Type {
		case boarddto.FrameClick:
			sq, ok := session.ParseTarget(f.Square)
			if !ok {
				return errorFrame("bad_request", "unknown square "+f.Square)
			}
			sess.Click(ctx, sq)
			return nil
		case boarddto.FrameReset:
			sess.Reset(ctx)
			return nil
		default:
			return errorFrame("bad_request", "unknown frame type "+f.Type)
		}
	}
}

func errorFrame(code, msg string) *boarddto.Frame {
	return &boarddto.Frame{Type: boarddto.FrameError, Error: &boarddto.Error{Code: code, Message: msg}}
}
