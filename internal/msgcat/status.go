package msgcat

import (
	"errors"
	"strings"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/game"
)

// StatusLine describes whose turn it is and any check or result.
func (c *Catalog) StatusLine(s game.Snapshot) string {
	st := s.Status
	side := title(st.SideToMove.String())
	switch {
	case st.Checkmate:
		return c.RenderOr("status.checkmate", map[string]any{"Winner": title(st.Winner().String())}, "Checkmate")
	case st.Stalemate:
		return c.RenderOr("status.stalemate", nil, "Stalemate")
	case st.InCheck():
		return c.RenderOr("status.in_check", map[string]any{"Side": side, "Checker": st.CheckerSquare.String()}, side+" in check")
	default:
		return c.RenderOr("status.to_move", map[string]any{"Side": side}, side+" to move")
	}
}

// MoveLine describes the last applied move, or "" before the first move.
func (c *Catalog) MoveLine(s game.Snapshot) string {
	if s.Plies == 0 {
		return ""
	}
	data := map[string]any{
		"Piece": title(s.Last.Piece.Kind.String()),
		"From":  s.Last.From.String(),
		"To":    s.Last.To.String(),
	}
	if !s.Last.Captured.Empty() {
		return c.RenderOr("move.capture", data, "")
	}
	return c.RenderOr("move.quiet", data, "")
}

// PlyLine is the HUD ply counter.
func (c *Catalog) PlyLine(plies int) string {
	return c.RenderOr("hud.ply", map[string]any{"Ply": plies}, "")
}

// ErrorText maps game errors onto user facing text.
func (c *Catalog) ErrorText(err error, side board.Color) string {
	key := "error.bad_request"
	switch {
	case err == nil:
		return ""
	case errors.Is(err, game.ErrInvalidSquare):
		key = "error.invalid_square"
	case errors.Is(err, game.ErrNotYourTurn):
		key = "error.not_your_turn"
	case errors.Is(err, game.ErrIllegalMove):
		key = "error.illegal_move"
	case errors.Is(err, game.ErrGameOver):
		key = "error.game_over"
	}
	return c.RenderOr(key, map[string]any{"Side": title(side.String())}, err.Error())
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
