// Package rules enumerates piece moves over a board.Board and analyses
// attacks and checks. Every function treats the board as read-only.
package rules

import "github.com/park285/cheese-board/internal/board"

// Options tunes move enumeration.
type Options struct {
	// Attacks switches to attack-map mode: pawns report only their capture
	// diagonals, rays and jumps include squares held by either color, the
	// king reports plain neighbours and castling is skipped. The analyzer
	// uses this mode to decide which squares a side controls.
	Attacks bool
}

var (
	bishopVectors = []board.Vector{{Forward: 1, Right: 1}, {Forward: 1, Right: -1}, {Forward: -1, Right: -1}, {Forward: -1, Right: 1}}
	rookVectors   = []board.Vector{{Forward: 1}, {Forward: -1}, {Right: 1}, {Right: -1}}
	queenVectors  = append(append([]board.Vector(nil), bishopVectors...), rookVectors...)
	kingVectors   = queenVectors
	knightVectors = []board.Vector{
		{Forward: 2, Right: 1}, {Forward: 2, Right: -1},
		{Forward: -2, Right: 1}, {Forward: -2, Right: -1},
		{Forward: 1, Right: 2}, {Forward: 1, Right: -2},
		{Forward: -1, Right: 2}, {Forward: -1, Right: -2},
	}
)

// MovesFor returns the destinations of the piece on from. Empty or
// off-board squares yield an empty set.
func MovesFor(b *board.Board, from board.Square, opts Options) board.SquareSet {
	if b == nil || !from.Valid() {
		return 0
	}
	p := b.At(from)
	if p.Empty() {
		return 0
	}
	switch p.Kind {
	case board.Pawn:
		return pawnMoves(b, from, p, opts)
	case board.Knight:
		return knightMoves(b, from, p, opts)
	case board.Bishop:
		return slidingMoves(b, from, p, bishopVectors, opts)
	case board.Rook:
		return slidingMoves(b, from, p, rookVectors, opts)
	case board.Queen:
		return slidingMoves(b, from, p, bishopVectors, opts) | slidingMoves(b, from, p, rookVectors, opts)
	case board.King:
		return kingMoves(b, from, p, opts)
	default:
		return 0
	}
}

func slidingMoves(b *board.Board, from board.Square, p board.Piece, vectors []board.Vector, opts Options) board.SquareSet {
	var moves board.SquareSet
	for _, v := range vectors {
		cur := from
		for {
			next, ok := board.Step(cur, v, p.Color)
			if !ok {
				break
			}
			occupant := b.At(next)
			if occupant.Empty() {
				moves = moves.Add(next)
				cur = next
				continue
			}
			if opts.Attacks || occupant.IsEnemyOf(p.Color) {
				moves = moves.Add(next)
			}
			break
		}
	}
	return moves
}

func knightMoves(b *board.Board, from board.Square, p board.Piece, opts Options) board.SquareSet {
	var moves board.SquareSet
	for _, v := range knightVectors {
		to, ok := board.Jump(from, v, p.Color)
		if !ok {
			continue
		}
		if !opts.Attacks && b.At(to).IsFriendOf(p.Color) {
			continue
		}
		moves = moves.Add(to)
	}
	return moves
}
