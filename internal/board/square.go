package board

import (
	"math/bits"
	"strings"
)

// Square indexes the board: row = sq/8, col = sq%8. Row 0 is Black's back
// rank, row 7 White's back rank.
type Square int

// NoSquare is returned by lookups that found nothing.
const NoSquare Square = -1

const (
	Size      = 8
	NumSquare = Size * Size
)

func (s Square) Row() int { return int(s) / Size }

func (s Square) Col() int { return int(s) % Size }

// Valid reports whether s is on the board.
func (s Square) Valid() bool { return InBounds(int(s)) }

// SquareAt maps (row, col) to a square.
func SquareAt(row, col int) (Square, bool) {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return NoSquare, false
	}
	return Square(row*Size + col), true
}

// String returns the algebraic name, e.g. "a8" for 0 and "h1" for 63.
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.Col()), byte('8' - s.Row())})
}

// ParseSquare reads an algebraic square name.
func ParseSquare(name string) (Square, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) != 2 {
		return NoSquare, false
	}
	col := int(name[0]) - 'a'
	row := '8' - int(name[1])
	return SquareAt(row, col)
}

// MustSquare is ParseSquare for literals known to be valid.
func MustSquare(name string) Square {
	sq, ok := ParseSquare(name)
	if !ok {
		panic("board: bad square " + name)
	}
	return sq
}

// SquareSet is a set of squares backed by a 64-bit mask.
type SquareSet uint64

func SetOf(squares ...Square) SquareSet {
	var s SquareSet
	for _, sq := range squares {
		s = s.Add(sq)
	}
	return s
}

func (s SquareSet) Has(sq Square) bool {
	if !sq.Valid() {
		return false
	}
	return s&(1<<uint(sq)) != 0
}

func (s SquareSet) Add(sq Square) SquareSet {
	if !sq.Valid() {
		return s
	}
	return s | 1<<uint(sq)
}

func (s SquareSet) Remove(sq Square) SquareSet {
	if !sq.Valid() {
		return s
	}
	return s &^ (1 << uint(sq))
}

func (s SquareSet) Len() int { return bits.OnesCount64(uint64(s)) }

func (s SquareSet) Empty() bool { return s == 0 }

func (s SquareSet) Intersect(o SquareSet) SquareSet { return s & o }

func (s SquareSet) Union(o SquareSet) SquareSet { return s | o }

func (s SquareSet) Without(o SquareSet) SquareSet { return s &^ o }

// Squares lists members in ascending order.
func (s SquareSet) Squares() []Square {
	out := make([]Square, 0, s.Len())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		out = append(out, Square(bits.TrailingZeros64(rest)))
	}
	return out
}

func (s SquareSet) String() string {
	names := make([]string, 0, s.Len())
	for _, sq := range s.Squares() {
		names = append(names, sq.String())
	}
	return "{" + strings.Join(names, " ") + "}"
}
