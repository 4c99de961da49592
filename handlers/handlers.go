package handlers

import (
	"context"
	"net/http"
	"time"

	"incident-board/api"
	"incident-board/ingest"
	"incident-board/models"
	ws "incident-board/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

const (
	serviceName = "incident-board"
	pingTimeout = 2 * time.Second
)

// Ingestor is the report flow behind the HTTP surface
type Ingestor interface {
	SubmitReport(ctx context.Context, category, description string) (models.CountSnapshot, error)
	Snapshot(ctx context.Context) (models.CountSnapshot, error)
}

// Pinger reports whether the report store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	ingestor  Ingestor
	hub       *ws.Hub
	store     Pinger
	storeName string
	upgrader  gorilla.Upgrader
}

// NewHandlers creates a new handlers instance.
// allowedOrigin restricts WebSocket upgrades; empty allows any origin.
func NewHandlers(ingestor Ingestor, hub *ws.Hub, store Pinger, storeName, allowedOrigin string) *Handlers {
	return &Handlers{
		ingestor:  ingestor,
		hub:       hub,
		store:     store,
		storeName: storeName,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigin),
		},
	}
}

func checkOrigin(allowedOrigin string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if allowedOrigin == "" || origin == "" {
			return true
		}
		// Same-origin pages (the embedded UI) are always welcome
		if origin == "http://"+r.Host || origin == "https://"+r.Host {
			return true
		}
		return origin == allowedOrigin
	}
}

// Root answers liveness probes when the UI is not served
func (h *Handlers) Root(c *gin.Context) {
	c.String(http.StatusOK, "Server is running! Use /report to submit data.")
}

// GetGraph returns the current per-category counts
func (h *Handlers) GetGraph(c *gin.Context) {
	snapshot, err := h.ingestor.Snapshot(c.Request.Context())
	if err != nil {
		log.Errorf("Error fetching graph data: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: ingest.ErrMsgInternal})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// SubmitReport stores a report and answers with the counts after the write
func (h *Handlers) SubmitReport(c *gin.Context) {
	var args api.ReportArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		log.Warnf("Failed to parse report body: %v", err)
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	snapshot, err := h.ingestor.SubmitReport(c.Request.Context(), args.Category, args.Description)
	if err != nil {
		status, message := ingest.ErrorStatus(err)
		if status >= http.StatusInternalServerError {
			log.Errorf("Error submitting report: %v", err)
		} else {
			log.WithField("category", args.Category).Infof("Rejected report: %v", err)
		}
		c.JSON(status, api.ErrorResponse{Error: message})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// ListenReports upgrades to a WebSocket session that receives updateGraph events
func (h *Handlers) ListenReports(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	client := h.hub.Connect(conn, h.ingestor.Snapshot)
	log.WithField("session", client.ID).Info("WebSocket connection established")
}

// HealthCheck returns the service health status, 503 when the store cannot be reached
func (h *Handlers) HealthCheck(c *gin.Context) {
	connectedClients, broadcasts := h.hub.GetStats()

	status, storeStatus, code := "healthy", "ok", http.StatusOK
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		log.Errorf("Store health check failed: %v", err)
		status, storeStatus, code = "unhealthy", "unreachable", http.StatusServiceUnavailable
	}

	c.JSON(code, models.HealthResponse{
		Status:           status,
		Service:          serviceName,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		Store:            h.storeName,
		StoreStatus:      storeStatus,
		ConnectedClients: connectedClients,
		Broadcasts:       broadcasts,
	})
}
