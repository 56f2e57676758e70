package health

// healthResponse reports service liveness
type healthResponse struct {
	Status    string `json:"status" example:"ok"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime" example:"1h2m3s"`
}
