package api

const (
	RootEndpoint    = "/"
	GraphEndpoint   = "/graph"
	ReportEndpoint  = "/report"
	ListenEndpoint  = "/ws"
	HealthEndpoint  = "/health"
	MetricsEndpoint = "/metrics"
)

type ReportArgs struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Name        string `json:"name,omitempty"` // Sent by older forms, not stored.
}

type ErrorResponse struct {
	Error string `json:"error"`
}
