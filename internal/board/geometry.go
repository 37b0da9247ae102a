package board

// Direction is a color-relative unit direction. Straight always points
// toward the opponent's side.
type Direction uint8

const (
	Straight Direction = iota
	Left
	Right
)

func InBounds(sq int) bool { return sq >= 0 && sq < NumSquare }

func IsLeftEdge(sq Square) bool { return sq.Col() == 0 }

func IsRightEdge(sq Square) bool { return sq.Col() == Size-1 }

func IsTopEdge(sq Square) bool { return sq.Row() == 0 }

func IsBottomEdge(sq Square) bool { return sq.Row() == Size-1 }

// DirectionOffset returns the signed index stride of dir for side c.
// Unknown colors or directions yield 0.
func DirectionOffset(c Color, dir Direction) int {
	sign := 0
	switch c {
	case White:
		sign = 1
	case Black:
		sign = -1
	default:
		return 0
	}
	switch dir {
	case Straight:
		return -Size * sign
	case Left:
		return -1 * sign
	case Right:
		return 1 * sign
	default:
		return 0
	}
}

// Vector is a color-relative step: Forward counts Straight strides, Right
// counts Right strides (negative values mean backward / left).
type Vector struct {
	Forward int
	Right   int
}

// Offset composes the vector into an index stride for side c.
func (v Vector) Offset(c Color) int {
	return v.Forward*DirectionOffset(c, Straight) + v.Right*DirectionOffset(c, Right)
}

// Delta returns the absolute (row, col) change of the vector for side c.
func (v Vector) Delta(c Color) (dRow, dCol int) {
	return v.Forward * DirectionOffset(c, Straight) / Size, v.Right * DirectionOffset(c, Right)
}

// Step moves one unit vector from sq. The edge flags of the current square
// are consulted before stepping so a ray never wraps onto another row.
func Step(sq Square, v Vector, c Color) (Square, bool) {
	dRow, dCol := v.Delta(c)
	if dRow < -1 || dRow > 1 || dCol < -1 || dCol > 1 || (dRow == 0 && dCol == 0) {
		return NoSquare, false
	}
	switch {
	case dCol > 0 && IsRightEdge(sq):
		return NoSquare, false
	case dCol < 0 && IsLeftEdge(sq):
		return NoSquare, false
	case dRow < 0 && IsTopEdge(sq):
		return NoSquare, false
	case dRow > 0 && IsBottomEdge(sq):
		return NoSquare, false
	}
	next := int(sq) + v.Offset(c)
	if !InBounds(next) {
		return NoSquare, false
	}
	return Square(next), true
}

// Jump applies a multi-unit vector (knight moves) and accepts the target
// only when the real row/col change matches the intended one.
func Jump(sq Square, v Vector, c Color) (Square, bool) {
	if !sq.Valid() {
		return NoSquare, false
	}
	next := int(sq) + v.Offset(c)
	if !InBounds(next) {
		return NoSquare, false
	}
	target := Square(next)
	dRow, dCol := v.Delta(c)
	if target.Row()-sq.Row() != dRow || target.Col()-sq.Col() != dCol {
		return NoSquare, false
	}
	return target, true
}

// Distance is the king-step (Chebyshev) distance between two squares.
func Distance(a, b Square) int {
	dr := abs(a.Row() - b.Row())
	dc := abs(a.Col() - b.Col())
	if dr > dc {
		return dr
	}
	return dc
}

// UnitToward returns the absolute unit (row, col) step from a to b when the
// squares share a rank, file or diagonal.
func UnitToward(a, b Square) (dRow, dCol int, ok bool) {
	dr := b.Row() - a.Row()
	dc := b.Col() - a.Col()
	if dr == 0 && dc == 0 {
		return 0, 0, false
	}
	if dr != 0 && dc != 0 && abs(dr) != abs(dc) {
		return 0, 0, false
	}
	return sign(dr), sign(dc), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
