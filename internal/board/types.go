// Package board holds the flat 64-square position model and the geometry
// helpers every move rule is composed from.
package board

import (
	"fmt"
	"sync/atomic"
)

// Color identifies a side. The zero value marks an empty square.
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Opponent returns the other side; NoColor maps to itself.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

// Kind is the piece type. The zero value marks an empty square.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

// IsSlider reports whether the kind moves along rays.
func (k Kind) IsSlider() bool { return k == Bishop || k == Rook || k == Queen }

// ID is a piece identity token. Zero is reserved for empty squares.
type ID uint32

var lastID atomic.Uint32

func nextID() ID { return ID(lastID.Add(1)) }

// LastMove records the most recent move of a piece.
type LastMove struct {
	From     Square
	WasFirst bool
}

// NoLastMove is the record of a piece that has not moved yet.
var NoLastMove = LastMove{From: NoSquare}

// Piece is the occupant of one square. The zero Piece is an empty square.
type Piece struct {
	ID          ID
	Color       Color
	Kind        Kind
	IsFirstMove bool
	LastMove    LastMove
}

// NewPiece returns a piece with a fresh identity. Pawns, rooks and kings
// start with IsFirstMove set.
func NewPiece(c Color, k Kind) Piece {
	return Piece{
		ID:          nextID(),
		Color:       c,
		Kind:        k,
		IsFirstMove: k == Pawn || k == Rook || k == King,
		LastMove:    NoLastMove,
	}
}

// Empty reports whether the piece represents an empty square.
func (p Piece) Empty() bool { return p.Kind == NoKind || p.Color == NoColor }

// IsEnemyOf reports whether p is an occupied square of the opposing side.
func (p Piece) IsEnemyOf(c Color) bool { return !p.Empty() && c != NoColor && p.Color != c }

// IsFriendOf reports whether p is an occupied square of side c.
func (p Piece) IsFriendOf(c Color) bool { return !p.Empty() && p.Color == c }

func (p Piece) String() string {
	if p.Empty() {
		return "empty"
	}
	return fmt.Sprintf("%s %s#%d", p.Color, p.Kind, p.ID)
}
