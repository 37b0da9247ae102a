package game

import (
	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/pkg/boarddto"
)

// DTO converts the snapshot into its wire shape. statusLine is the rendered
// human readable status, usually from the message catalog.
func (s Snapshot) DTO(statusLine string) boarddto.Snapshot {
	out := boarddto.Snapshot{
		GameID:     s.GameID,
		SideToMove: s.Status.SideToMove.String(),
		Checkmate:  s.Status.Checkmate,
		Stalemate:  s.Status.Stalemate,
		Plies:      s.Plies,
		Status:     statusLine,
	}
	if s.Selected.Valid() {
		out.Selected = s.Selected.String()
	}
	for _, sq := range s.Available.Squares() {
		out.Moves = append(out.Moves, sq.String())
	}
	if s.Status.InCheck() {
		out.CheckedKing = s.Status.CheckedKing.String()
		if s.Status.CheckerSquare.Valid() {
			out.Checker = s.Status.CheckerSquare.String()
		}
	}
	if w := s.Status.Winner(); w != board.NoColor {
		out.Winner = w.String()
	}
	if s.Plies > 0 {
		last := &boarddto.LastMove{
			From:  s.Last.From.String(),
			To:    s.Last.To.String(),
			Piece: s.Last.Piece.Kind.String(),
		}
		if !s.Last.Captured.Empty() {
			last.Captured = s.Last.Captured.Kind.String()
		}
		out.Last = last
	}
	for i := range s.Board {
		sq := board.Square(i)
		p := s.Board[i]
		cell := boarddto.Square{Index: i, Name: sq.String()}
		if !p.Empty() {
			cell.Color = p.Color.String()
			cell.Kind = p.Kind.String()
			cell.ID = uint32(p.ID)
		}
		if h := s.Highlights[i]; h != HighlightNone {
			cell.Highlight = h.String()
		}
		out.Squares[i] = cell
	}
	return out
}
