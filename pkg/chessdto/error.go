package chessdto

// Rejection codes carried on the wire. The transport layer maps each to
// an HTTP status; clients switch on Code, not on Message.
const (
	CodeNotFound       = "not_found"
	CodeMissingFields  = "missing_fields"
	CodeNotParticipant = "not_a_participant"
	CodeOutOfTurn      = "out_of_turn"
	CodeGameOver       = "game_already_over"
	CodeIllegalMove    = "illegal_move"
	CodeInternal       = "internal_error"
)

type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}
