package board

import "strings"

// Board is the full position: exactly 64 Piece values indexed by Square.
// It is a value type; assigning a Board copies it.
type Board [NumSquare]Piece

var backRank = [Size]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Initial returns the standard starting position with fresh identities.
func Initial() Board {
	var b Board
	for col, k := range backRank {
		b[col] = NewPiece(Black, k)
		b[Size+col] = NewPiece(Black, Pawn)
		b[6*Size+col] = NewPiece(White, Pawn)
		b[7*Size+col] = NewPiece(White, k)
	}
	return b
}

// At returns the occupant of sq, or an empty piece for off-board squares.
func (b *Board) At(sq Square) Piece {
	if !sq.Valid() {
		return Piece{}
	}
	return b[sq]
}

// Occupied reports whether sq holds a piece.
func (b *Board) Occupied(sq Square) bool { return !b.At(sq).Empty() }

// Put places p on sq; off-board squares are ignored.
func (b *Board) Put(sq Square, p Piece) {
	if sq.Valid() {
		b[sq] = p
	}
}

// Clear empties sq.
func (b *Board) Clear(sq Square) { b.Put(sq, Piece{}) }

// FindKing returns the square of c's king, or NoSquare.
func (b *Board) FindKing(c Color) Square {
	if c == NoColor {
		return NoSquare
	}
	for i, p := range b {
		if p.Kind == King && p.Color == c {
			return Square(i)
		}
	}
	return NoSquare
}

// Occupancy returns the squares held by side c.
func (b *Board) Occupancy(c Color) SquareSet {
	var s SquareSet
	for i, p := range b {
		if p.IsFriendOf(c) {
			s = s.Add(Square(i))
		}
	}
	return s
}

// String renders the board as eight text rows, row 0 first. Upper case is
// White, lower case Black, '.' empty.
func (b Board) String() string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			sb.WriteByte(Letter(b[row*Size+col]))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Letter is the one-character code of a piece.
func Letter(p Piece) byte {
	var c byte
	switch p.Kind {
	case Pawn:
		c = 'p'
	case Knight:
		c = 'n'
	case Bishop:
		c = 'b'
	case Rook:
		c = 'r'
	case Queen:
		c = 'q'
	case King:
		c = 'k'
	default:
		return '.'
	}
	if p.Color == White {
		c -= 'a' - 'A'
	}
	return c
}

// FromRows builds a position from eight text rows in the String format.
// Pawns, rooks and kings standing on their starting squares keep
// IsFirstMove; elsewhere it is cleared. Malformed rows yield ok=false.
func FromRows(rows ...string) (Board, bool) {
	var b Board
	if len(rows) != Size {
		return b, false
	}
	for row, line := range rows {
		line = strings.ReplaceAll(line, " ", "")
		if len(line) != Size {
			return b, false
		}
		for col := 0; col < Size; col++ {
			ch := line[col]
			if ch == '.' {
				continue
			}
			c := Black
			lower := ch
			if ch >= 'A' && ch <= 'Z' {
				c = White
				lower = ch + ('a' - 'A')
			}
			k := kindFromLetter(lower)
			if k == NoKind {
				return b, false
			}
			p := NewPiece(c, k)
			p.IsFirstMove = p.IsFirstMove && onHomeSquare(c, k, row, col)
			b[row*Size+col] = p
		}
	}
	return b, true
}

func kindFromLetter(ch byte) Kind {
	switch ch {
	case 'p':
		return Pawn
	case 'n':
		return Knight
	case 'b':
		return Bishop
	case 'r':
		return Rook
	case 'q':
		return Queen
	case 'k':
		return King
	default:
		return NoKind
	}
}

func onHomeSquare(c Color, k Kind, row, col int) bool {
	home, pawnRow := 7, 6
	if c == Black {
		home, pawnRow = 0, 1
	}
	switch k {
	case Pawn:
		return row == pawnRow
	case Rook:
		return row == home && (col == 0 || col == Size-1)
	case King:
		return row == home && col == 4
	default:
		return false
	}
}
