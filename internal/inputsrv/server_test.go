package inputsrv

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/render"
	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boarddto"
)

type harness struct {
	srv    *Server
	client *fasthttp.Client
	sess   *session.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	sess := session.New(cat)
	srv := New(Config{SquareSize: 24, Title: "test"}, sess, render.New(cat), nil)

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = ln.Close()
	})

	client := &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}
	return &harness{srv: srv, client: client, sess: sess}
}

func (h *harness) do(t *testing.T, method, path string, body []byte) (int, []byte, string) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://board.test" + path)
	req.Header.SetMethod(method)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}
	if err := h.client.DoTimeout(req, resp, 5*time.Second); err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp.StatusCode(), append([]byte(nil), resp.Body()...), string(resp.Header.ContentType())
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	status, body, _ := h.do(t, fasthttp.MethodGet, "/healthz", nil)
	if status != fasthttp.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz = %d %q", status, body)
	}
}

func TestClickRoundTrip(t *testing.T) {
	h := newHarness(t)

	status, body, ctype := h.do(t, fasthttp.MethodPost, "/click/e2", nil)
	if status != fasthttp.StatusOK {
		t.Fatalf("click e2 status = %d body=%s", status, body)
	}
	if ctype != contentJSON {
		t.Fatalf("content type = %q", ctype)
	}
	res := decode[boarddto.ClickResult](t, body)
	if res.Outcome != "selected" || res.Snapshot.Selected != "e2" {
		t.Fatalf("click e2 = %+v", res)
	}
	if len(res.Snapshot.Moves) != 2 {
		t.Fatalf("e2 moves = %v", res.Snapshot.Moves)
	}

	// 36 is e4.
	_, body, _ = h.do(t, fasthttp.MethodPost, "/click/36", nil)
	res = decode[boarddto.ClickResult](t, body)
	if res.Outcome != "moved" {
		t.Fatalf("click e4 outcome = %s", res.Outcome)
	}

	_, body, _ = h.do(t, fasthttp.MethodGet, "/state", nil)
	snap := decode[boarddto.Snapshot](t, body)
	if snap.SideToMove != "black" || snap.Plies != 1 || snap.Squares[36].Kind != "pawn" {
		t.Fatalf("state after e4: side=%s plies=%d e4=%+v", snap.SideToMove, snap.Plies, snap.Squares[36])
	}
	if snap.Last == nil || snap.Last.From != "e2" || snap.Last.To != "e4" {
		t.Fatalf("last = %+v", snap.Last)
	}
}

func TestClickOffBoardIsIgnored(t *testing.T) {
	h := newHarness(t)
	status, body, _ := h.do(t, fasthttp.MethodPost, "/click/64", nil)
	if status != fasthttp.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if res := decode[boarddto.ClickResult](t, body); res.Outcome != "ignored" {
		t.Fatalf("outcome = %s", res.Outcome)
	}

	status, body, _ = h.do(t, fasthttp.MethodPost, "/click/zz", nil)
	if status != fasthttp.StatusBadRequest {
		t.Fatalf("bad name status = %d", status)
	}
	if e := decode[boarddto.Error](t, body); e.Code != "bad_request" {
		t.Fatalf("error = %+v", e)
	}
}

func TestMoveEndpoint(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"invalid json", `{`, fasthttp.StatusBadRequest, "bad_request"},
		{"unknown square", `{"from":"e9","to":"e4"}`, fasthttp.StatusBadRequest, "invalid_square"},
		{"wrong side", `{"from":"e7","to":"e5"}`, fasthttp.StatusConflict, "not_your_turn"},
		{"illegal", `{"from":"e2","to":"e5"}`, fasthttp.StatusUnprocessableEntity, "illegal_move"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body, _ := h.do(t, fasthttp.MethodPost, "/move", []byte(tc.body))
			if status != tc.status {
				t.Fatalf("status = %d body=%s", status, body)
			}
			if e := decode[boarddto.Error](t, body); e.Code != tc.code || e.Message == "" {
				t.Fatalf("error = %+v", e)
			}
		})
	}

	status, body, _ := h.do(t, fasthttp.MethodPost, "/move", []byte(`{"from":"g1","to":"f3"}`))
	if status != fasthttp.StatusOK {
		t.Fatalf("Nf3 status = %d body=%s", status, body)
	}
	if snap := decode[boarddto.Snapshot](t, body); snap.Squares[board.MustSquare("f3")].Kind != "knight" {
		t.Fatalf("f3 = %+v", snap.Squares[board.MustSquare("f3")])
	}
}

func TestResetAndMethods(t *testing.T) {
	h := newHarness(t)
	before := h.sess.State().GameID

	status, _, _ := h.do(t, fasthttp.MethodGet, "/reset", nil)
	if status != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("GET /reset status = %d", status)
	}
	status, body, _ := h.do(t, fasthttp.MethodPost, "/reset", nil)
	if status != fasthttp.StatusOK {
		t.Fatalf("POST /reset status = %d", status)
	}
	if snap := decode[boarddto.Snapshot](t, body); snap.GameID == before || snap.GameID == "" {
		t.Fatalf("reset game id = %q (before %q)", snap.GameID, before)
	}

	status, _, _ = h.do(t, fasthttp.MethodGet, "/nope", nil)
	if status != fasthttp.StatusNotFound {
		t.Fatalf("unknown route status = %d", status)
	}
}

func TestBoardPNG(t *testing.T) {
	h := newHarness(t)

	status, body, ctype := h.do(t, fasthttp.MethodGet, "/board.png", nil)
	if status != fasthttp.StatusOK || ctype != "image/png" {
		t.Fatalf("board.png = %d %q", status, ctype)
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds().Dx() < 8*24 {
		t.Fatalf("image width = %d", img.Bounds().Dx())
	}

	status, _, _ = h.do(t, fasthttp.MethodGet, "/board.png?size=2", nil)
	if status != fasthttp.StatusBadRequest {
		t.Fatalf("tiny size status = %d", status)
	}
	status, _, _ = h.do(t, fasthttp.MethodGet, "/board.png?size=big", nil)
	if status != fasthttp.StatusBadRequest {
		t.Fatalf("non numeric size status = %d", status)
	}
}
