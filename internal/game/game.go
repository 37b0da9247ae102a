// Package game is the turn state machine: it owns the board, interprets
// square selections and applies moves.
package game

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/rules"
)

type selection struct {
	from  board.Square
	piece board.Piece
	moves board.SquareSet
}

// Game holds one in-process game. It is not safe for concurrent use; the
// Input Source must deliver events one at a time.
type Game struct {
	id       string
	board    board.Board
	status   Status
	selected *selection
	plies    int
	last     LastMove
	logger   *zap.Logger
}

type Option func(*Game)

// WithLogger sets the logger used for move and status events.
func WithLogger(l *zap.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithPosition starts the game from b with side to move.
func WithPosition(b board.Board, side board.Color) Option {
	return func(g *Game) {
		g.board = b
		if side == board.White || side == board.Black {
			g.status.SideToMove = side
		}
	}
}

// WithID overrides the generated game id.
func WithID(id string) Option {
	return func(g *Game) {
		if id != "" {
			g.id = id
		}
	}
}

// New starts a game from the standard position with White to move.
func New(opts ...Option) *Game {
	g := &Game{
		id:     uuid.NewString(),
		board:  board.Initial(),
		status: Status{SideToMove: board.White, CheckerSquare: board.NoSquare},
		last:   LastMove{From: board.NoSquare, To: board.NoSquare},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(zap.String("game_id", g.id))
	g.refreshStatus()
	return g
}

func (g *Game) ID() string { return g.id }

func (g *Game) Status() Status { return g.status }

// Board returns a copy of the current position.
func (g *Game) Board() board.Board { return g.board }

// ApplyEvent feeds one Input Source event into the state machine.
func (g *Game) ApplyEvent(ev Event) Outcome { return g.SelectSquare(ev.Square) }

// SelectSquare interprets a click on sq. With no selection, a piece of the
// side to move becomes selected. With a selection, a legal destination
// applies the move, another own piece is reselected and anything else
// clears the selection.
func (g *Game) SelectSquare(sq board.Square) Outcome {
	if !sq.Valid() || g.status.Over() {
		return Ignored
	}
	occupant := g.board.At(sq)

	if g.selected == nil {
		if !occupant.IsFriendOf(g.status.SideToMove) {
			return Ignored
		}
		g.selectPiece(sq, occupant)
		return Selected
	}

	switch {
	case sq == g.selected.from:
		g.selected = nil
		return Cleared
	case g.selected.moves.Has(sq):
		g.apply(g.selected.from, sq)
		return Moved
	case occupant.IsFriendOf(g.status.SideToMove):
		g.selectPiece(sq, occupant)
		return Reselected
	default:
		g.selected = nil
		return Cleared
	}
}

// Move plays from -> to directly, validating it like a click pair would.
func (g *Game) Move(from, to board.Square) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("move %d->%d: %w", from, to, ErrInvalidSquare)
	}
	if g.status.Over() {
		return ErrGameOver
	}
	p := g.board.At(from)
	if !p.IsFriendOf(g.status.SideToMove) {
		return fmt.Errorf("move %s->%s: %w", from, to, ErrNotYourTurn)
	}
	if !g.LegalMoves(from).Has(to) {
		return fmt.Errorf("move %s->%s: %w", from, to, ErrIllegalMove)
	}
	g.apply(from, to)
	return nil
}

// LegalMoves returns the legal destinations of the piece on from, or an
// empty set when it does not belong to the side to move.
func (g *Game) LegalMoves(from board.Square) board.SquareSet {
	p := g.board.At(from)
	if !p.IsFriendOf(g.status.SideToMove) || g.status.Over() {
		return 0
	}
	return rules.LegalMoves(&g.board, from)
}

func (g *Game) selectPiece(sq board.Square, p board.Piece) {
	g.selected = &selection{from: sq, piece: p, moves: rules.LegalMoves(&g.board, sq)}
}

func (g *Game) apply(from, to board.Square) {
	mover := g.board.At(from)
	captured := g.board.At(to)
	if victim, ok := rules.EnPassantVictim(&g.board, from, to); ok {
		captured = g.board.At(victim)
	}

	g.board = rules.Apply(g.board, from, to)
	g.selected = nil
	g.plies++
	g.last = LastMove{From: from, To: to, Piece: mover, Captured: captured}
	g.status.SideToMove = g.status.SideToMove.Opponent()

	g.logger.Debug("move_applied",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("piece", mover.Kind.String()),
		zap.String("color", mover.Color.String()),
		zap.Bool("capture", !captured.Empty()),
		zap.Int("ply", g.plies),
	)
	g.refreshStatus()
}

// refreshStatus recomputes check, checkmate and stalemate for the side to
// move.
func (g *Game) refreshStatus() {
	side := g.status.SideToMove
	g.status.CheckedKing = board.NoColor
	g.status.Checker = board.Piece{}
	g.status.CheckerSquare = board.NoSquare
	g.status.Checkmate = false
	g.status.Stalemate = false

	checker, inCheck := rules.KingInCheck(&g.board, side)
	if inCheck {
		g.status.CheckedKing = side
		g.status.Checker = g.board.At(checker)
		g.status.CheckerSquare = checker
	}
	if rules.HasAnyLegalMove(&g.board, side) {
		if inCheck {
			g.logger.Info("check", zap.String("side", side.String()), zap.String("checker", checker.String()))
		}
		return
	}
	if inCheck {
		g.status.Checkmate = true
		g.logger.Info("checkmate", zap.String("winner", side.Opponent().String()), zap.Int("ply", g.plies))
		return
	}
	g.status.Stalemate = true
	g.logger.Info("stalemate", zap.Int("ply", g.plies))
}

// Snapshot returns a copy of the state for the renderer.
func (g *Game) Snapshot() Snapshot {
	snap := Snapshot{
		GameID:   g.id,
		Board:    g.board,
		Selected: board.NoSquare,
		Status:   g.status,
		Plies:    g.plies,
		Last:     g.last,
	}
	if g.selected != nil {
		snap.Selected = g.selected.from
		snap.Available = g.selected.moves
		snap.Highlights[g.selected.from] = HighlightSelectedOrigin
		for _, sq := range g.selected.moves.Squares() {
			snap.Highlights[sq] = HighlightAvailableMove
		}
	}
	if g.status.InCheck() {
		if king := g.board.FindKing(g.status.CheckedKing); king != board.NoSquare {
			snap.Highlights[king] = HighlightInCheck
		}
	}
	return snap
}
