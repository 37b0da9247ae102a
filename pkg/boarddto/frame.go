package boarddto

// Frame types exchanged with the relay.
const (
	FrameClick    = "click"
	FrameReset    = "reset"
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// Frame is one JSON message on the relay socket. Inbound frames carry
// Square (an index or algebraic name); outbound frames carry Snapshot or
// Error.
type Frame struct {
	Type     string    `json:"type"`
	Square   string    `json:"square,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
	Message  string    `json:"message,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    *Error    `json:"error,omitempty"`
}

// Notification is the webhook payload sent after every applied event.
type Notification struct {
	GameID   string   `json:"game_id"`
	Outcome  string   `json:"outcome"`
	Message  string   `json:"message,omitempty"`
	Snapshot Snapshot `json:"snapshot"`
	// ImageBase64 is the rendered board PNG when rendering is enabled.
	ImageBase64 string `json:"image_base64,omitempty"`
}
