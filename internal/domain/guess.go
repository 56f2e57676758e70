package domain

// Guess is one player's reported pulse count for one round. RoundTruth is
// the count that applied to that player when the round ran: the room's
// pulse count for crewmates, zero for the imposter (who feels nothing and
// must bluff). Storing the truth alongside the report keeps evaluation
// deterministic even if the room document changes afterwards.
type Guess struct {
	PlayerID      string `json:"playerId" bson:"_id"`
	ReportedCount int    `json:"reportedCount" bson:"reported_count"`
	RoundTruth    int    `json:"roundTruth" bson:"round_truth"`
	Round         int    `json:"round" bson:"round"`
}

// Correct reports whether the player's count matched their ground truth.
func (g Guess) Correct() bool {
	return g.ReportedCount == g.RoundTruth
}
