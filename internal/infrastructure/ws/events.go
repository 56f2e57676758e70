package ws

// Event types on the realtime channel. Role and pulse events go to one
// player only; everything else is broadcast to the room.
const (
	RosterChanged = "roster.changed"
	RoomClosed    = "room.closed"

	RoleAssigned = "role.assigned"
	RoundPhase   = "round.phase"
	RoundPulse   = "round.pulse"
	RoundVerdict = "round.verdict"
	VoteOutcome  = "vote.result"
	GameOver     = "game.over"

	ErrorEvent  = "error"
	JoinFailed  = "error.join"
	RateLimited = "error.rate_limited"
)
