package store

// Document layout: the room is the root; players, guesses and votes are
// child collections scoped to one room code.
//
//	rooms/<code>
//	rooms/<code>/players/<playerId>
//	rooms/<code>/guesses/<playerId>
//	rooms/<code>/votes/<voterId>

func RoomPath(code string) string { return "rooms/" + code }

func PlayersPath(code string) string { return "rooms/" + code + "/players" }

func PlayerPath(code, playerID string) string { return PlayersPath(code) + "/" + playerID }

func GuessesPath(code string) string { return "rooms/" + code + "/guesses" }

func GuessPath(code, playerID string) string { return GuessesPath(code) + "/" + playerID }

func VotesPath(code string) string { return "rooms/" + code + "/votes" }

func VotePath(code, voterID string) string { return VotesPath(code) + "/" + voterID }
