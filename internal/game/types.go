package game

import (
	"errors"

	"github.com/park285/cheese-board/internal/board"
)

var (
	ErrInvalidSquare = errors.New("invalid square")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrIllegalMove   = errors.New("illegal move")
	ErrGameOver      = errors.New("game is over")
)

// Outcome reports what a square selection did.
type Outcome uint8

const (
	Ignored Outcome = iota
	Selected
	Reselected
	Cleared
	Moved
)

func (o Outcome) String() string {
	switch o {
	case Selected:
		return "selected"
	case Reselected:
		return "reselected"
	case Cleared:
		return "cleared"
	case Moved:
		return "moved"
	default:
		return "ignored"
	}
}

// Highlight is the per-square decoration computed for the renderer.
type Highlight uint8

const (
	HighlightNone Highlight = iota
	HighlightSelectedOrigin
	HighlightAvailableMove
	HighlightInCheck
)

func (h Highlight) String() string {
	switch h {
	case HighlightSelectedOrigin:
		return "selected"
	case HighlightAvailableMove:
		return "move"
	case HighlightInCheck:
		return "check"
	default:
		return "none"
	}
}

// Event is one input from the Input Source: a click on a square.
type Event struct {
	Square board.Square
}

// Status is the turn and check state, updated once per completed move.
type Status struct {
	SideToMove    board.Color
	CheckedKing   board.Color
	Checker       board.Piece
	CheckerSquare board.Square
	Checkmate     bool
	Stalemate     bool
}

// InCheck reports whether a king is currently in check.
func (s Status) InCheck() bool { return s.CheckedKing != board.NoColor }

// Over reports whether the game reached a terminal state.
func (s Status) Over() bool { return s.Checkmate || s.Stalemate }

// Winner returns the side that delivered mate, or NoColor.
func (s Status) Winner() board.Color {
	if !s.Checkmate {
		return board.NoColor
	}
	return s.SideToMove.Opponent()
}

// Snapshot is an immutable copy of everything a renderer needs.
type Snapshot struct {
	GameID     string
	Board      board.Board
	Selected   board.Square
	Available  board.SquareSet
	Highlights [board.NumSquare]Highlight
	Status     Status
	Plies      int
	// Last is meaningful only when Plies > 0.
	Last LastMove
}

// LastMove describes the most recently applied move.
type LastMove struct {
	From, To board.Square
	Piece    board.Piece
	Captured board.Piece
}
