package game

// startRoundRequest identifies the host starting the game
type startRoundRequest struct {
	PlayerID string `json:"playerId"`
}

// startRoundResponse describes the round that just began
type startRoundResponse struct {
	Round      int `json:"round"`      // 1-based round number
	RosterSize int `json:"rosterSize"` // Players counted for this round
}

// guessRequest carries one player's pulse count report
type guessRequest struct {
	PlayerID string `json:"playerId"`
	Count    int    `json:"count" example:"4"` // Number of pulses the player felt
}

// voteRequest carries one elimination vote
type voteRequest struct {
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

// leaveRequest identifies a departing player
type leaveRequest struct {
	PlayerID string `json:"playerId"`
}

// playAgainRequest identifies the host restarting the lobby
type playAgainRequest struct {
	PlayerID string `json:"playerId"`
}
