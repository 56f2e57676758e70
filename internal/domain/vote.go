package domain

import "time"

// Vote is one player's elimination vote. One record per voter; a later
// vote overwrites the earlier one (last write wins). Self-votes are
// rejected before any write happens.
type Vote struct {
	VoterID   string    `json:"voterId" bson:"_id"`
	TargetID  string    `json:"targetId" bson:"target_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// GameResult is derived, never stored: the win resolver computes it and
// the presentation layer consumes it once.
type GameResult struct {
	CrewWon bool `json:"crewWon"`
}
