package chessdto

type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

type ResultInfo struct {
	Winner string `json:"winner,omitempty"`
	Loser  string `json:"loser,omitempty"`
	Reason string `json:"reason"`
}

// MatchResponse answers both enqueue-and-match and poll-match. When
// Matched is false the remaining fields are zero and the player keeps
// waiting.
type MatchResponse struct {
	Matched   bool        `json:"matched"`
	SessionID string      `json:"session_id,omitempty"`
	Color     string      `json:"color,omitempty"`
	Opponent  *PlayerInfo `json:"opponent,omitempty"`
	Position  string      `json:"position,omitempty"`
}

// SessionResponse is the full observable state of one game.
type SessionResponse struct {
	SessionID string      `json:"session_id"`
	White     PlayerInfo  `json:"white"`
	Black     PlayerInfo  `json:"black"`
	Position  string      `json:"position"`
	Turn      string      `json:"turn"`
	Moves     []string    `json:"moves"`
	Status    string      `json:"status"`
	Result    *ResultInfo `json:"result,omitempty"`
}

type RatingResponse struct {
	PlayerID string `json:"player_id"`
	Rating   int    `json:"rating"`
}

type ErrorResponse struct {
	Error DomainError `json:"error"`
}
