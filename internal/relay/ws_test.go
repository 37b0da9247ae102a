package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boarddto"
)

// relayServer accepts one socket and hands it to the test.
func relayServer(t *testing.T) (string, <-chan *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 4)
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Board") != "cheese" {
			http.Error(w, "missing header", http.StatusUnauthorized)
			return
		}
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		conns <- c
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	t.Cleanup(func() {
		close(done)
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http"), conns
}

func accept(t *testing.T, conns <-chan *websocket.Conn) *websocket.Conn {
	t.Helper()
	select {
	case c := <-conns:
		t.Cleanup(func() { _ = c.Close(websocket.StatusNormalClosure, "") })
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("relay never connected")
		return nil
	}
}

func readFrame(t *testing.T, c *websocket.Conn) boarddto.Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var f boarddto.Frame
	if err := wsjson.Read(ctx, c, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func writeFrame(t *testing.T, c *websocket.Conn, f boarddto.Frame) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, c, f); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func connect(t *testing.T, url string, sess *session.Session) *WebSocket {
	t.Helper()
	ws := NewWebSocket(url, 0, Dispatch(sess),
		WithWSHeaders(func() map[string]string { return map[string]string{"X-Board": "cheese"} }),
	)
	sess.AddObserver("relay", ws)
	if err := ws.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = ws.Close(ctx)
	})
	return ws
}

func TestRelayClickRoundTrip(t *testing.T) {
	url, conns := relayServer(t)
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	sess := session.New(cat)
	ws := connect(t, url, sess)
	peer := accept(t, conns)
	if ws.State() != StateConnected {
		t.Fatalf("state = %s", ws.State())
	}

	writeFrame(t, peer, boarddto.Frame{Type: boarddto.FrameClick, Square: "e2"})
	f := readFrame(t, peer)
	if f.Type != boarddto.FrameSnapshot || f.Outcome != "selected" || f.Snapshot == nil || f.Snapshot.Selected != "e2" {
		t.Fatalf("after e2: %+v", f)
	}

	// 36 is e4.
	writeFrame(t, peer, boarddto.Frame{Type: boarddto.FrameClick, Square: "36"})
	f = readFrame(t, peer)
	if f.Outcome != "moved" || f.Snapshot.SideToMove != "black" || f.Message == "" {
		t.Fatalf("after e4: %+v", f)
	}
	if got := sess.State().Plies; got != 1 {
		t.Fatalf("session plies = %d", got)
	}
}

func TestRelayRejectsBadFrames(t *testing.T) {
	url, conns := relayServer(t)
	connect(t, url, session.New(nil))
	peer := accept(t, conns)

	writeFrame(t, peer, boarddto.Frame{Type: "resign"})
	f := readFrame(t, peer)
	if f.Type != boarddto.FrameError || f.Error == nil || f.Error.Code != "bad_request" {
		t.Fatalf("unknown type reply = %+v", f)
	}

	writeFrame(t, peer, boarddto.Frame{Type: boarddto.FrameClick, Square: "z0"})
	f = readFrame(t, peer)
	if f.Type != boarddto.FrameError {
		t.Fatalf("bad square reply = %+v", f)
	}
}

func TestRelayReset(t *testing.T) {
	url, conns := relayServer(t)
	sess := session.New(nil)
	connect(t, url, sess)
	peer := accept(t, conns)
	before := sess.State().GameID

	writeFrame(t, peer, boarddto.Frame{Type: boarddto.FrameReset})
	f := readFrame(t, peer)
	if f.Outcome != "cleared" || f.Snapshot.GameID == before {
		t.Fatalf("reset reply = %+v", f)
	}
}

func TestRelayNotifyOffline(t *testing.T) {
	ws := NewWebSocket("ws://127.0.0.1:1/none", 0, nil)
	if err := ws.Send(context.Background(), boarddto.Frame{Type: boarddto.FrameSnapshot}); err != ErrNotConnected {
		t.Fatalf("Send offline err = %v", err)
	}
	if err := ws.Notify(context.Background(), session.Update{}); err != nil {
		t.Fatalf("Notify offline err = %v", err)
	}
}

func TestRelayDialFailure(t *testing.T) {
	url, _ := relayServer(t)
	// missing header is refused by the server
	ws := NewWebSocket(url, 0, nil)
	if err := ws.Connect(context.Background()); err == nil {
		t.Fatal("expected handshake failure")
	}
	if ws.State() != StateFailed {
		t.Fatalf("state = %s", ws.State())
	}
}
