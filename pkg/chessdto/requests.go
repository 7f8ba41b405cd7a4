package chessdto

// JoinRequest enqueues a player for matchmaking. Rating is an optional
// hint, honored only for identities the server has never rated.
type JoinRequest struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Rating   int    `json:"rating,omitempty"`
}

// MoveRequest submits one move in coordinate text, e.g. "e2e4" or
// "a7a8q" for a promotion.
type MoveRequest struct {
	PlayerID string `json:"player_id"`
	Move     string `json:"move"`
}
