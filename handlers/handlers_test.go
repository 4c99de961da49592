package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"incident-board/ingest"
	"incident-board/models"
	ws "incident-board/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeIngestor struct {
	snapshot  models.CountSnapshot
	submitErr error
	readErr   error

	gotCategory    string
	gotDescription string
}

func (f *fakeIngestor) SubmitReport(ctx context.Context, category, description string) (models.CountSnapshot, error) {
	f.gotCategory, f.gotDescription = category, description
	if f.submitErr != nil {
		return models.CountSnapshot{}, f.submitErr
	}
	return f.snapshot, nil
}

func (f *fakeIngestor) Snapshot(ctx context.Context) (models.CountSnapshot, error) {
	if f.readErr != nil {
		return models.CountSnapshot{}, f.readErr
	}
	return f.snapshot, nil
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}

func newTestContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	var resp struct {
		Error string `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestSubmitReport_Success(t *testing.T) {
	fake := &fakeIngestor{snapshot: models.CountSnapshot{Violation: 1}}
	h := NewHandlers(fake, ws.NewHub(), fakePinger{}, "sqlite", "")

	c, w := newTestContext(http.MethodPost, "/report", []byte(`{"category":"violation","description":"x","name":"Sam"}`))
	h.SubmitReport(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"violation":1,"criminal":0,"threat":0}`, w.Body.String())
	assert.Equal(t, "violation", fake.gotCategory)
	assert.Equal(t, "x", fake.gotDescription)
}

func TestSubmitReport_InvalidBody(t *testing.T) {
	h := NewHandlers(&fakeIngestor{}, ws.NewHub(), fakePinger{}, "sqlite", "")

	c, w := newTestContext(http.MethodPost, "/report", []byte("invalid json"))
	h.SubmitReport(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, w))
}

func TestSubmitReport_ValidationError(t *testing.T) {
	fake := &fakeIngestor{submitErr: &models.ValidationError{Field: "category", Message: models.ErrMsgInvalidCategory}}
	h := NewHandlers(fake, ws.NewHub(), fakePinger{}, "sqlite", "")

	c, w := newTestContext(http.MethodPost, "/report", []byte(`{"category":"unknown","description":"x"}`))
	h.SubmitReport(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid category", decodeError(t, w))
}

func TestSubmitReport_StorageError(t *testing.T) {
	fake := &fakeIngestor{submitErr: &ingest.StorageError{Op: "save report", Err: errors.New("connection refused")}}
	h := NewHandlers(fake, ws.NewHub(), fakePinger{}, "sqlite", "")

	c, w := newTestContext(http.MethodPost, "/report", []byte(`{"category":"threat","description":"x"}`))
	h.SubmitReport(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeError(t, w))
}

func TestGetGraph(t *testing.T) {
	fake := &fakeIngestor{snapshot: models.CountSnapshot{Criminal: 4}}
	h := NewHandlers(fake, ws.NewHub(), fakePinger{}, "sqlite", "")

	c, w := newTestContext(http.MethodGet, "/graph", nil)
	h.GetGraph(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"violation":0,"criminal":4,"threat":0}`, w.Body.String())
}

func TestGetGraph_StorageError(t *testing.T) {
	fake := &fakeIngestor{readErr: errors.New("store down")}
	h := NewHandlers(fake, ws.NewHub(), fakePinger{}, "sqlite", "")

	c, w := newTestContext(http.MethodGet, "/graph", nil)
	h.GetGraph(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeError(t, w))
}

func TestRoot(t *testing.T) {
	h := NewHandlers(&fakeIngestor{}, ws.NewHub(), fakePinger{}, "mysql", "")

	c, w := newTestContext(http.MethodGet, "/", nil)
	h.Root(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Server is running! Use /report to submit data.", w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	h := NewHandlers(&fakeIngestor{}, ws.NewHub(), fakePinger{}, "mysql", "")

	c, w := newTestContext(http.MethodGet, "/health", nil)
	h.HealthCheck(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.HealthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "mysql", resp.Store)
	assert.Equal(t, "ok", resp.StoreStatus)
	assert.Equal(t, 0, resp.ConnectedClients)
}

func TestHealthCheck_StoreUnreachable(t *testing.T) {
	h := NewHandlers(&fakeIngestor{}, ws.NewHub(), fakePinger{err: errors.New("connection refused")}, "mysql", "")

	c, w := newTestContext(http.MethodGet, "/health", nil)
	h.HealthCheck(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp models.HealthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "unreachable", resp.StoreStatus)
}

func TestCheckOrigin(t *testing.T) {
	allow := checkOrigin("http://localhost:5173")

	req := httptest.NewRequest(http.MethodGet, "http://board.example/ws", nil)
	assert.True(t, allow(req), "requests without Origin are allowed")

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, allow(req))

	req.Header.Set("Origin", "http://board.example")
	assert.True(t, allow(req), "same origin is allowed")

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, allow(req))

	assert.True(t, checkOrigin("")(req), "no restriction configured")
}
