package handlers

import (
	"incident-board/api"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the REST and realtime endpoints.
// extra middleware (rate limiting) applies to the REST routes only.
func (h *Handlers) RegisterRoutes(router gin.IRouter, extra ...gin.HandlerFunc) {
	rest := router.Group("/")
	rest.Use(gzip.Gzip(gzip.DefaultCompression))
	rest.Use(extra...)
	{
		rest.GET(api.GraphEndpoint, h.GetGraph)
		rest.POST(api.ReportEndpoint, h.SubmitReport)
	}

	// Realtime channel, kept out of gzip so the connection can be hijacked
	router.GET(api.ListenEndpoint, h.ListenReports)

	router.GET(api.HealthEndpoint, h.HealthCheck)
}
