package rules

import "github.com/park285/cheese-board/internal/board"

// Apply returns a copy of b with the piece on from moved to to. It performs
// no legality checks beyond ignoring empty origins and off-board squares.
// En passant removes the pawn beside the mover, castling relocates the rook
// onto the square the king passed, and a pawn reaching the far rank becomes
// a queen keeping its identity.
func Apply(b board.Board, from, to board.Square) board.Board {
	mover := b.At(from)
	if mover.Empty() || !to.Valid() || from == to {
		return b
	}

	next := b
	for i := range next {
		next[i].LastMove.WasFirst = false
	}

	if victim, ok := EnPassantVictim(&b, from, to); ok {
		next.Clear(victim)
	}
	if rookFrom, rookTo, ok := CastleRookSquares(&b, from, to); ok {
		rook := next.At(rookFrom)
		rook.LastMove = board.LastMove{From: rookFrom, WasFirst: rook.IsFirstMove}
		rook.IsFirstMove = false
		next.Clear(rookFrom)
		next.Put(rookTo, rook)
	}

	moved := mover
	moved.LastMove = board.LastMove{From: from, WasFirst: mover.IsFirstMove}
	moved.IsFirstMove = false
	if moved.Kind == board.Pawn && (board.IsTopEdge(to) || board.IsBottomEdge(to)) {
		moved.Kind = board.Queen
	}
	next.Clear(from)
	next.Put(to, moved)
	return next
}

// LegalMoves returns the destinations the piece on from may actually play:
// the check answers from MovesInCheck when its side is in check, otherwise
// MovesFor, with every move that would leave its own king attacked removed.
func LegalMoves(b *board.Board, from board.Square) board.SquareSet {
	if b == nil {
		return 0
	}
	p := b.At(from)
	if p.Empty() {
		return 0
	}
	var candidates board.SquareSet
	if checker, inCheck := KingInCheck(b, p.Color); inCheck {
		candidates = MovesInCheck(b, from, checker)
	} else {
		candidates = MovesFor(b, from, Options{})
	}

	var legal board.SquareSet
	for _, to := range candidates.Squares() {
		next := Apply(*b, from, to)
		king := next.FindKing(p.Color)
		if king != board.NoSquare && IsSquareUnderAttack(&next, king, p.Color.Opponent()) {
			continue
		}
		legal = legal.Add(to)
	}
	return legal
}

// HasAnyLegalMove reports whether any piece of side c has a legal move.
func HasAnyLegalMove(b *board.Board, c board.Color) bool {
	if b == nil {
		return false
	}
	for i := range b {
		if !b[i].IsFriendOf(c) {
			continue
		}
		if !LegalMoves(b, board.Square(i)).Empty() {
			return true
		}
	}
	return false
}
