package rules

import "github.com/park285/cheese-board/internal/board"

// LineKind classifies the geometry of an attack line.
type LineKind uint8

const (
	LineNone LineKind = iota
	LineHorizontal
	LineVertical
	LineDiagonal
)

// AttackLine returns the squares a defender may occupy to answer the check
// given by the piece on attackerSq: the attacker's square, the squares
// strictly between it and the king, then the king's square. Knights and
// pawns cannot be blocked so their line is just the attacker and the king.
// It is empty when the piece does not attack the enemy king.
func AttackLine(b *board.Board, attackerSq board.Square) []board.Square {
	if b == nil {
		return nil
	}
	attacker := b.At(attackerSq)
	if attacker.Empty() {
		return nil
	}
	king := b.FindKing(attacker.Color.Opponent())
	if king == board.NoSquare || !MovesFor(b, attackerSq, attackMode).Has(king) {
		return nil
	}
	if !attacker.Kind.IsSlider() {
		return []board.Square{attackerSq, king}
	}
	dRow, dCol, ok := board.UnitToward(attackerSq, king)
	if !ok {
		return nil
	}
	line := []board.Square{attackerSq}
	for cur := attackerSq; cur != king; {
		next, ok := board.SquareAt(cur.Row()+dRow, cur.Col()+dCol)
		if !ok {
			return nil
		}
		line = append(line, next)
		cur = next
	}
	return line
}

// ClassifyLine reports the direction of an attack line.
func ClassifyLine(line []board.Square) LineKind {
	if len(line) < 2 {
		return LineNone
	}
	first, last := line[0], line[len(line)-1]
	dRow, dCol, ok := board.UnitToward(first, last)
	switch {
	case !ok:
		return LineNone
	case dRow == 0:
		return LineHorizontal
	case dCol == 0:
		return LineVertical
	default:
		return LineDiagonal
	}
}

// retreatSquare is the square directly behind the king on a sliding check
// ray, which stays covered by the checker once the king steps onto it.
func retreatSquare(b *board.Board, line []board.Square) (board.Square, bool) {
	if len(line) < 2 || !b.At(line[0]).Kind.IsSlider() || ClassifyLine(line) == LineNone {
		return board.NoSquare, false
	}
	king := line[len(line)-1]
	dRow, dCol, _ := board.UnitToward(line[0], king)
	return board.SquareAt(king.Row()+dRow, king.Col()+dCol)
}

// MovesInCheck returns the answers to a check available to the piece on
// defenderSq. The king keeps its own moves minus the attack line (capturing
// the checker excepted) and the retreat square on the checking ray; any
// other piece may only block or capture.
func MovesInCheck(b *board.Board, defenderSq, attackerSq board.Square) board.SquareSet {
	if b == nil {
		return 0
	}
	defender := b.At(defenderSq)
	if defender.Empty() {
		return 0
	}
	line := AttackLine(b, attackerSq)
	lineSet := board.SetOf(line...)
	moves := MovesFor(b, defenderSq, Options{})

	if defender.Kind == board.King {
		excluded := lineSet.Remove(attackerSq)
		if back, ok := retreatSquare(b, line); ok {
			excluded = excluded.Add(back)
		}
		return moves.Without(excluded)
	}

	answers := moves.Intersect(lineSet)
	if defender.Kind == board.Pawn {
		for _, to := range moves.Squares() {
			if victim, ok := EnPassantVictim(b, defenderSq, to); ok && victim == attackerSq {
				answers = answers.Add(to)
			}
		}
	}
	return answers
}
