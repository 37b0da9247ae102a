// Package boarddto holds the JSON shapes published to clients of the board:
// the HTTP input source, the Redis feed and the relay.
package boarddto

type Square struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Kind      string `json:"kind,omitempty"`
	ID        uint32 `json:"id,omitempty"`
	Highlight string `json:"highlight,omitempty"`
}

type LastMove struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Piece    string `json:"piece"`
	Captured string `json:"captured,omitempty"`
}

// Snapshot is the public view of a game after an event was processed.
type Snapshot struct {
	GameID      string     `json:"game_id"`
	SideToMove  string     `json:"side_to_move"`
	Selected    string     `json:"selected,omitempty"`
	Moves       []string   `json:"moves,omitempty"`
	CheckedKing string     `json:"checked_king,omitempty"`
	Checker     string     `json:"checker,omitempty"`
	Checkmate   bool       `json:"checkmate"`
	Stalemate   bool       `json:"stalemate"`
	Winner      string     `json:"winner,omitempty"`
	Plies       int        `json:"plies"`
	Last        *LastMove  `json:"last,omitempty"`
	Status      string     `json:"status"`
	Squares     [64]Square `json:"squares"`
}

// ClickResult is returned by the input source for one square click.
type ClickResult struct {
	Outcome  string   `json:"outcome"`
	Snapshot Snapshot `json:"snapshot"`
}

// MoveRequest is the body of a direct move.
type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}
