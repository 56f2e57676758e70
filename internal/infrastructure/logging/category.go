package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Game            Category = "Game"
	Store           Category = "Store"
	WebSocket       Category = "WebSocket"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Game
	RoomLifecycle SubCategory = "RoomLifecycle"
	Roster        SubCategory = "Roster"
	RoundEngine   SubCategory = "RoundEngine"
	Evaluation    SubCategory = "Evaluation"
	Voting        SubCategory = "Voting"
	Cleanup       SubCategory = "Cleanup"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	RoomCode     ExtraKey = "RoomCode"
	PlayerID     ExtraKey = "PlayerId"
	Round        ExtraKey = "Round"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
)
