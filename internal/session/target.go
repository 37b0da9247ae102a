package session

import (
	"strconv"
	"strings"

	"github.com/park285/cheese-board/internal/board"
)

// ParseTarget reads a click target: a square index (0 = a8, 63 = h1) or an
// algebraic name. Indexes off the board are passed through so the game can
// ignore them.
func ParseTarget(raw string) (board.Square, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return board.NoSquare, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return board.Square(n), true
	}
	return board.ParseSquare(raw)
}
