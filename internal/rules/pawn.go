package rules

import "github.com/park285/cheese-board/internal/board"

var (
	pawnPush     = board.Vector{Forward: 1}
	pawnCaptures = []board.Vector{{Forward: 1, Right: -1}, {Forward: 1, Right: 1}}
)

func pawnMoves(b *board.Board, from board.Square, p board.Piece, opts Options) board.SquareSet {
	var moves board.SquareSet
	for _, v := range pawnCaptures {
		diag, ok := board.Step(from, v, p.Color)
		if !ok {
			continue
		}
		if opts.Attacks || b.At(diag).IsEnemyOf(p.Color) {
			moves = moves.Add(diag)
			continue
		}
		if _, ok := EnPassantVictim(b, from, diag); ok {
			moves = moves.Add(diag)
		}
	}
	if opts.Attacks {
		return moves
	}

	one, ok := board.Step(from, pawnPush, p.Color)
	if !ok || b.Occupied(one) {
		return moves
	}
	moves = moves.Add(one)
	if p.IsFirstMove {
		if two, ok := board.Step(one, pawnPush, p.Color); ok && !b.Occupied(two) {
			moves = moves.Add(two)
		}
	}
	return moves
}

// EnPassantVictim reports the square of the pawn captured when the pawn on
// from moves diagonally to the empty square to. The victim sits beside the
// mover and must have just completed its first move as a double step.
func EnPassantVictim(b *board.Board, from, to board.Square) (board.Square, bool) {
	mover := b.At(from)
	if mover.Kind != board.Pawn || !to.Valid() || b.Occupied(to) {
		return board.NoSquare, false
	}
	if to.Col() == from.Col() || board.Distance(from, to) != 1 {
		return board.NoSquare, false
	}
	if to.Row()-from.Row() != board.DirectionOffset(mover.Color, board.Straight)/board.Size {
		return board.NoSquare, false
	}
	beside, ok := board.SquareAt(from.Row(), to.Col())
	if !ok {
		return board.NoSquare, false
	}
	victim := b.At(beside)
	if victim.Kind != board.Pawn || !victim.IsEnemyOf(mover.Color) {
		return board.NoSquare, false
	}
	last := victim.LastMove
	if !last.WasFirst || !last.From.Valid() || board.Distance(last.From, beside) != 2 || last.From.Col() != beside.Col() {
		return board.NoSquare, false
	}
	return beside, true
}
