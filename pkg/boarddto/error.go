package boarddto

// Error is the JSON body of a rejected request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "board error"
}
