package rules

import "github.com/park285/cheese-board/internal/board"

const kingHomeCol = 4

type castleSide struct {
	rookCol   int
	kingTo    int
	rookTo    int
	mustEmpty []int
	transit   []int
}

var castleSides = []castleSide{
	{rookCol: 7, kingTo: 6, rookTo: 5, mustEmpty: []int{5, 6}, transit: []int{5, 6}},
	{rookCol: 0, kingTo: 2, rookTo: 3, mustEmpty: []int{1, 2, 3}, transit: []int{3, 2}},
}

func kingMoves(b *board.Board, from board.Square, p board.Piece, opts Options) board.SquareSet {
	var moves board.SquareSet
	for _, v := range kingVectors {
		to, ok := board.Step(from, v, p.Color)
		if !ok {
			continue
		}
		if opts.Attacks {
			moves = moves.Add(to)
			continue
		}
		if b.At(to).IsFriendOf(p.Color) {
			continue
		}
		if !kingCanStand(b, from, to, p.Color) {
			continue
		}
		moves = moves.Add(to)
	}
	if !opts.Attacks {
		moves |= castlingMoves(b, from, p)
	}
	return moves
}

// kingCanStand reports whether the king of side c may step from -> to. The
// king is lifted off from first so a slider checking along a line still
// covers the square behind it.
func kingCanStand(b *board.Board, from, to board.Square, c board.Color) bool {
	enemy := c.Opponent()
	if ek := b.FindKing(enemy); ek != board.NoSquare && board.Distance(ek, to) <= 1 {
		return false
	}
	lifted := *b
	lifted.Clear(from)
	// covers captures too: attack mode counts the occupant's defenders
	return !IsSquareUnderAttack(&lifted, to, enemy)
}

func homeRow(c board.Color) int {
	if c == board.Black {
		return 0
	}
	return board.Size - 1
}

func castlingMoves(b *board.Board, from board.Square, king board.Piece) board.SquareSet {
	row := homeRow(king.Color)
	if !king.IsFirstMove || from.Row() != row || from.Col() != kingHomeCol {
		return 0
	}
	enemy := king.Color.Opponent()
	if IsSquareUnderAttack(b, from, enemy) {
		return 0
	}
	var moves board.SquareSet
	for _, side := range castleSides {
		if dest, ok := castleDestination(b, row, king, side, enemy); ok {
			moves = moves.Add(dest)
		}
	}
	return moves
}

func castleDestination(b *board.Board, row int, king board.Piece, side castleSide, enemy board.Color) (board.Square, bool) {
	rookSq, _ := board.SquareAt(row, side.rookCol)
	rook := b.At(rookSq)
	if rook.Kind != board.Rook || !rook.IsFriendOf(king.Color) || !rook.IsFirstMove {
		return board.NoSquare, false
	}
	for _, col := range side.mustEmpty {
		sq, _ := board.SquareAt(row, col)
		if b.Occupied(sq) {
			return board.NoSquare, false
		}
	}
	for _, col := range side.transit {
		sq, _ := board.SquareAt(row, col)
		if IsSquareUnderAttack(b, sq, enemy) {
			return board.NoSquare, false
		}
	}
	dest, _ := board.SquareAt(row, side.kingTo)
	return dest, true
}

// CastleRookSquares reports the rook relocation implied by moving the king
// on from to to, when that move is a castle.
func CastleRookSquares(b *board.Board, from, to board.Square) (rookFrom, rookTo board.Square, ok bool) {
	king := b.At(from)
	if king.Kind != board.King || !to.Valid() || from.Row() != to.Row() {
		return board.NoSquare, board.NoSquare, false
	}
	if d := to.Col() - from.Col(); d != 2 && d != -2 {
		return board.NoSquare, board.NoSquare, false
	}
	for _, side := range castleSides {
		if side.kingTo != to.Col() {
			continue
		}
		rf, _ := board.SquareAt(from.Row(), side.rookCol)
		rt, _ := board.SquareAt(from.Row(), side.rookTo)
		if r := b.At(rf); r.Kind != board.Rook || !r.IsFriendOf(king.Color) {
			return board.NoSquare, board.NoSquare, false
		}
		return rf, rt, true
	}
	return board.NoSquare, board.NoSquare, false
}
