// Package session serializes input events onto a single game and fans the
// resulting snapshots out to observers.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/game"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/pkg/boarddto"
)

// Update is what observers receive after an event changed the game.
type Update struct {
	Outcome  game.Outcome
	Snapshot boarddto.Snapshot
	// Game is the same state for observers that render it.
	Game game.Snapshot
	// Message describes the last move when the event applied one.
	Message string
}

// Observer receives updates in event order. Errors are logged, never
// propagated back to the input that caused the event.
//
// Notify runs while the session lock is held, so a slow observer delays
// every input until it returns. Observers must honor ctx; WithNotifyTimeout
// bounds each call.
type Observer interface {
	Notify(ctx context.Context, u Update) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, u Update) error

func (f ObserverFunc) Notify(ctx context.Context, u Update) error { return f(ctx, u) }

type namedObserver struct {
	name string
	obs  Observer
}

// Session owns one game at a time. All methods are safe for concurrent use;
// events from every input source are applied one after another.
type Session struct {
	mu        sync.Mutex
	game      *game.Game
	catalog   *msgcat.Catalog
	observers []namedObserver
	logger    *zap.Logger
	newGame   func() *game.Game

	notifyTimeout time.Duration
}

type Option func(*Session)

// WithLogger sets the session logger. Games started by the session log
// through it too.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNotifyTimeout caps how long each observer may hold up an event.
// Zero leaves only the caller's context.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithGameFactory replaces how fresh games are created on start and Reset.
func WithGameFactory(fn func() *game.Game) Option {
	return func(s *Session) {
		if fn != nil {
			s.newGame = fn
		}
	}
}

// New starts a session on a fresh game. catalog may be nil.
func New(catalog *msgcat.Catalog, opts ...Option) *Session {
	s := &Session{catalog: catalog, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.newGame == nil {
		logger := s.logger
		s.newGame = func() *game.Game { return game.New(game.WithLogger(logger)) }
	}
	s.game = s.newGame()
	return s
}

// AddObserver registers o under name, which only appears in logs.
func (s *Session) AddObserver(name string, o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, namedObserver{name: name, obs: o})
	s.mu.Unlock()
}

// Click feeds one square selection into the game.
func (s *Session) Click(ctx context.Context, sq board.Square) (game.Outcome, boarddto.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := s.game.SelectSquare(sq)
	snap := s.game.Snapshot()
	dto := s.dto(snap)
	if outcome != game.Ignored {
		u := Update{Outcome: outcome, Snapshot: dto, Game: snap}
		if outcome == game.Moved {
			u.Message = s.catalog.MoveLine(snap)
		}
		s.notify(ctx, u)
	}
	return outcome, dto
}

// Move applies from-to directly, bypassing the selection state.
func (s *Session) Move(ctx context.Context, from, to board.Square) (boarddto.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.Move(from, to); err != nil {
		return s.dto(s.game.Snapshot()), err
	}
	snap := s.game.Snapshot()
	dto := s.dto(snap)
	s.notify(ctx, Update{Outcome: game.Moved, Snapshot: dto, Game: snap, Message: s.catalog.MoveLine(snap)})
	return dto, nil
}

// Reset discards the current game and starts a new one.
func (s *Session) Reset(ctx context.Context) boarddto.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.game.ID()
	s.game = s.newGame()
	s.logger.Info("game_reset", zap.String("previous_game_id", prev), zap.String("game_id", s.game.ID()))
	snap := s.game.Snapshot()
	dto := s.dto(snap)
	s.notify(ctx, Update{Outcome: game.Cleared, Snapshot: dto, Game: snap})
	return dto
}

// Snapshot returns the current game state.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// State returns the current game state in wire form.
func (s *Session) State() boarddto.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dto(s.game.Snapshot())
}

// ErrorText renders err for the side currently to move.
func (s *Session) ErrorText(err error) string {
	s.mu.Lock()
	side := s.game.Status().SideToMove
	s.mu.Unlock()
	return s.catalog.ErrorText(err, side)
}

func (s *Session) dto(snap game.Snapshot) boarddto.Snapshot {
	return snap.DTO(s.catalog.StatusLine(snap))
}

// notify runs with mu held so observers see updates in event order.
func (s *Session) notify(ctx context.Context, u Update) {
	for _, o := range s.observers {
		if err := s.notifyOne(ctx, o.obs, u); err != nil {
			s.logger.Warn("observer_failed",
				zap.String("observer", o.name),
				zap.String("game_id", u.Snapshot.GameID),
				zap.Stringer("outcome", u.Outcome),
				zap.Error(err),
			)
		}
	}
}

func (s *Session) notifyOne(ctx context.Context, o Observer, u Update) error {
	if s.notifyTimeout <= 0 {
		return o.Notify(ctx, u)
	}
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	return o.Notify(ctx, u)
}
