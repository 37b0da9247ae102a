// Package inputsrv is the HTTP input source: clicks come in, snapshots and
// board images go out.
package inputsrv

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/game"
	"github.com/park285/cheese-board/internal/render"
	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boarddto"
)

const (
	maxBodyBytes = 1 << 16
	clickPrefix  = "/click/"
	contentJSON  = "application/json; charset=utf-8"
)

type Config struct {
	Addr       string
	SquareSize int
	// FlipBlack draws the board from Black's side while Black is to move.
	FlipBlack bool
	Title     string
}

// Server wires the fasthttp layer to a session.
type Server struct {
	cfg      Config
	sess     *session.Session
	renderer render.BoardRenderer
	logger   *zap.Logger

	srvMu sync.Mutex
	srv   *fasthttp.Server
}

// New builds a server. renderer may be nil, which disables /board.png.
func New(cfg Config, sess *session.Session, renderer render.BoardRenderer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SquareSize <= 0 {
		cfg.SquareSize = render.DefaultSquareSize
	}
	return &Server{cfg: cfg, sess: sess, renderer: renderer, logger: logger}
}

func (s *Server) newServer() *fasthttp.Server {
	return &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "cheese-board",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: maxBodyBytes,
	}
}

// ListenAndServe serves on cfg.Addr until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections from ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := s.newServer()
	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()

	s.logger.Info("input server listening", zap.String("addr", ln.Addr().String()))
	return srv.Serve(ln)
}

// Shutdown stops accepting connections and waits for open ones until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.ShutdownWithContext(ctx)
}

// Handler routes a request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	start := time.Now()
	defer func() {
		s.logger.Debug("http_request",
			zap.ByteString("method", ctx.Method()),
			zap.String("path", path),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	switch {
	case path == "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString("ok")
	case path == "/state":
		if !s.allow(ctx, fasthttp.MethodGet) {
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, s.sess.State())
	case path == "/board.png":
		if !s.allow(ctx, fasthttp.MethodGet) {
			return
		}
		s.handleBoard(ctx)
	case path == "/reset":
		if !s.allow(ctx, fasthttp.MethodPost) {
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, s.sess.Reset(ctx))
	case path == "/move":
		if !s.allow(ctx, fasthttp.MethodPost) {
			return
		}
		s.handleMove(ctx)
	case strings.HasPrefix(path, clickPrefix):
		if !s.allow(ctx, fasthttp.MethodPost) {
			return
		}
		s.handleClick(ctx, strings.TrimPrefix(path, clickPrefix))
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not_found", "no such route")
	}
}

func (s *Server) allow(ctx *fasthttp.RequestCtx, method string) bool {
	if string(ctx.Method()) == method {
		return true
	}
	ctx.Response.Header.Set("Allow", method)
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "use "+method)
	return false
}

func (s *Server) handleClick(ctx *fasthttp.RequestCtx, raw string) {
	sq, ok := session.ParseTarget(raw)
	if !ok {
		writeError(ctx, fasthttp.StatusBadRequest, "bad_request", s.sess.ErrorText(game.ErrInvalidSquare))
		return
	}
	outcome, snap := s.sess.Click(ctx, sq)
	writeJSON(ctx, fasthttp.StatusOK, boarddto.ClickResult{Outcome: outcome.String(), Snapshot: snap})
}

func (s *Server) handleMove(ctx *fasthttp.RequestCtx) {
	var req boarddto.MoveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	from, okFrom := board.ParseSquare(req.From)
	to, okTo := board.ParseSquare(req.To)
	if !okFrom || !okTo {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_square", s.sess.ErrorText(game.ErrInvalidSquare))
		return
	}
	snap, err := s.sess.Move(ctx, from, to)
	if err != nil {
		status, code := moveErrorStatus(err)
		writeError(ctx, status, code, s.sess.ErrorText(err))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, snap)
}

func (s *Server) handleBoard(ctx *fasthttp.RequestCtx) {
	if s.renderer == nil {
		writeError(ctx, fasthttp.StatusNotFound, "not_found", "rendering disabled")
		return
	}
	snap := s.sess.Snapshot()
	opts := render.Options{SquareSize: s.cfg.SquareSize, Title: s.cfg.Title}
	if v := ctx.QueryArgs().Peek("flip"); len(v) > 0 {
		opts.Flip, _ = strconv.ParseBool(string(v))
	} else if s.cfg.FlipBlack {
		opts.Flip = snap.Status.SideToMove == board.Black
	}
	if v := ctx.QueryArgs().Peek("size"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "bad_request", "size must be a number")
			return
		}
		opts.SquareSize = n
	}

	png, err := s.renderer.RenderPNG(ctx, snap, opts)
	if err != nil {
		if errors.Is(err, render.ErrSquareSize) {
			writeError(ctx, fasthttp.StatusBadRequest, "bad_request", err.Error())
			return
		}
		s.logger.Error("board render failed", zap.String("game_id", snap.GameID), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "render_failed", "could not render board")
		return
	}
	ctx.SetContentType("image/png")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(png)
}

func moveErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidSquare):
		return fasthttp.StatusBadRequest, "invalid_square"
	case errors.Is(err, game.ErrNotYourTurn):
		return fasthttp.StatusConflict, "not_your_turn"
	case errors.Is(err, game.ErrGameOver):
		return fasthttp.StatusConflict, "game_over"
	default:
		return fasthttp.StatusUnprocessableEntity, "illegal_move"
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		ctx.Error("encode failed", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType(contentJSON)
	ctx.SetBody(b)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, msg string) {
	writeJSON(ctx, status, boarddto.Error{Code: code, Message: msg})
}
