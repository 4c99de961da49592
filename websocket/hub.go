package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"incident-board/metrics"
	"incident-board/models"

	"github.com/apex/log"
	gorilla "github.com/gorilla/websocket"
)

const snapshotTimeout = 5 * time.Second

// SnapshotFunc computes the counts a new session starts from
type SnapshotFunc func(ctx context.Context) (models.CountSnapshot, error)

// frame is an encoded updateGraph message with the report total it carries.
// Reports are never deleted, so totals only grow and order frames.
type frame struct {
	total int
	data  []byte
}

type catchUp struct {
	client *Client
	frame  frame
}

// Hub manages WebSocket sessions and broadcasting
type Hub struct {
	// Registered clients, only mutated by the Run goroutine
	clients map[*Client]bool

	// Outbound frames for every client
	broadcast chan frame

	// Initial snapshots for single clients
	catchUp chan catchUp

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Mutex guarding clients and statistics for readers outside Run
	mutex sync.RWMutex

	// Statistics
	broadcasts       int
	connectedClients int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan frame, 256),
		catchUp:    make(chan catchUp),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns after Stop.
// It never touches the store; snapshots are computed by the connecting goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			metrics.WSSessions.Set(float64(h.connectedClients))
			log.WithField("session", client.ID).Infof("Client connected. Total clients: %d", h.connectedClients)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			metrics.WSSessions.Set(float64(h.connectedClients))
			log.WithField("session", client.ID).Infof("Client disconnected. Total clients: %d", h.connectedClients)

		case cu := <-h.catchUp:
			h.mutex.Lock()
			// A broadcast at or above the snapshot already got there first
			if h.clients[cu.client] && cu.frame.total > cu.client.lastTotal {
				h.sendLocked(cu.client, cu.frame)
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			metrics.WSSessions.Set(float64(h.connectedClients))

		case f := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				// Skip frames older than what the session already shows
				if f.total < client.lastTotal {
					continue
				}
				h.sendLocked(client, f)
			}
			h.connectedClients = len(h.clients)
			h.broadcasts++
			h.mutex.Unlock()
			metrics.WSSessions.Set(float64(h.connectedClients))
			metrics.BroadcastsTotal.Inc()

		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.connectedClients = 0
			h.mutex.Unlock()
			metrics.WSSessions.Set(0)
			return
		}
	}
}

// sendLocked queues f on client or drops a client whose buffer is full
func (h *Hub) sendLocked(client *Client, f frame) {
	select {
	case client.send <- f.data:
		client.lastTotal = f.total
	default:
		log.WithField("session", client.ID).Warn("Dropping client that is not keeping up")
		close(client.send)
		delete(h.clients, client)
		metrics.DroppedSessionsTotal.Inc()
	}
}

// Connect registers a new session on conn, starts its pumps and sends it the counts from snapshot.
// The session joins the broadcast set before the snapshot is read, so no report is missed;
// frames reaching it never carry a lower total than one it already received.
func (h *Hub) Connect(conn *gorilla.Conn, snapshot SnapshotFunc) *Client {
	client := NewClient(h, conn)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return client
	}

	go client.WritePump()
	go client.ReadPump()

	if snapshot != nil {
		h.sendSnapshot(client, snapshot)
	}
	return client
}

func (h *Hub) sendSnapshot(client *Client, snapshot SnapshotFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	counts, err := snapshot(ctx)
	cancel()
	if err != nil {
		log.WithField("session", client.ID).Errorf("Failed to compute initial snapshot: %v", err)
		return
	}

	f, err := encodeSnapshot(counts)
	if err != nil {
		return
	}
	select {
	case h.catchUp <- catchUp{client: client, frame: f}:
	case <-h.done:
	}
}

// Broadcast sends the snapshot to every connected session, including the one that triggered it
func (h *Hub) Broadcast(snapshot models.CountSnapshot) {
	f, err := encodeSnapshot(snapshot)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- f:
	case <-h.done:
		return
	}
	log.Debugf("Broadcasted snapshot %+v", snapshot)
}

// Stop closes every session and ends Run
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// GetStats returns the number of connected clients and broadcasts sent
func (h *Hub) GetStats() (int, int) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients, h.broadcasts
}

func encodeSnapshot(snapshot models.CountSnapshot) (frame, error) {
	message := models.BroadcastMessage{
		Type:      models.EventUpdateGraph,
		Data:      snapshot,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Failed to marshal broadcast message: %v", err)
		return frame{}, err
	}
	return frame{total: snapshot.Total(), data: data}, nil
}
