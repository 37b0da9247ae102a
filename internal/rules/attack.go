package rules

import "github.com/park285/cheese-board/internal/board"

var attackMode = Options{Attacks: true}

// IsSquareUnderAttack reports whether any piece of side by controls sq,
// regardless of whose turn it is.
func IsSquareUnderAttack(b *board.Board, sq board.Square, by board.Color) bool {
	_, ok := AttackingPiece(b, sq, by)
	return ok
}

// AttackingPiece returns the first piece of side by, in board order, that
// controls sq.
func AttackingPiece(b *board.Board, sq board.Square, by board.Color) (board.Square, bool) {
	if b == nil || !sq.Valid() || by == board.NoColor {
		return board.NoSquare, false
	}
	for i := range b {
		from := board.Square(i)
		if !b[i].IsFriendOf(by) {
			continue
		}
		if MovesFor(b, from, attackMode).Has(sq) {
			return from, true
		}
	}
	return board.NoSquare, false
}

// IsSquareProtected reports whether side by could recapture on sq, i.e. a
// piece of by other than the occupant of sq controls it. Attack mode already
// counts defenders of an occupied square, so this is IsSquareUnderAttack
// under the name callers asking about recaptures use.
func IsSquareProtected(b *board.Board, sq board.Square, by board.Color) bool {
	return IsSquareUnderAttack(b, sq, by)
}

// KingInCheck returns the square of a piece giving check to c's king. A
// missing king counts as no check.
func KingInCheck(b *board.Board, c board.Color) (board.Square, bool) {
	if b == nil {
		return board.NoSquare, false
	}
	king := b.FindKing(c)
	if king == board.NoSquare {
		return board.NoSquare, false
	}
	return AttackingPiece(b, king, c.Opponent())
}
