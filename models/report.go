package models

import (
	"time"
)

// Category classifies an incident report
type Category string

const (
	CategoryViolation Category = "violation"
	CategoryCriminal  Category = "criminal"
	CategoryThreat    Category = "threat"
)

// EventUpdateGraph is the realtime event carrying a CountSnapshot
const EventUpdateGraph = "updateGraph"

// Categories returns every category in display order
func Categories() []Category {
	return []Category{CategoryViolation, CategoryCriminal, CategoryThreat}
}

// ParseCategory returns the category named by s and whether it is known.
// The match is exact: case and surrounding whitespace both count.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryViolation, CategoryCriminal, CategoryThreat:
		return true
	}
	return false
}

// Report represents a persisted incident report
type Report struct {
	ID          string    `json:"id" db:"seq" bson:"-"`
	Category    Category  `json:"category" db:"category" bson:"category"`
	Description string    `json:"description" db:"description" bson:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
}

// CountSnapshot is the number of reports per category at a point in time.
// Every category is always present, zero when there are no reports for it.
type CountSnapshot struct {
	Violation int `json:"violation"`
	Criminal  int `json:"criminal"`
	Threat    int `json:"threat"`
}

// NewCountSnapshot folds a sparse category->count mapping into a snapshot.
// Unknown categories are ignored.
func NewCountSnapshot(counts map[string]int) CountSnapshot {
	var s CountSnapshot
	for name, n := range counts {
		c, ok := ParseCategory(name)
		if !ok {
			continue
		}
		s.add(c, n)
	}
	return s
}

// Get returns the count for the given category
func (s CountSnapshot) Get(c Category) int {
	switch c {
	case CategoryViolation:
		return s.Violation
	case CategoryCriminal:
		return s.Criminal
	case CategoryThreat:
		return s.Threat
	}
	return 0
}

// Total returns the number of reports across all categories
func (s CountSnapshot) Total() int {
	return s.Violation + s.Criminal + s.Threat
}

func (s *CountSnapshot) add(c Category, n int) {
	switch c {
	case CategoryViolation:
		s.Violation += n
	case CategoryCriminal:
		s.Criminal += n
	case CategoryThreat:
		s.Threat += n
	}
}

// BroadcastMessage represents a message sent to WebSocket clients
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ReportEvent is published to the message broker after a report is stored
type ReportEvent struct {
	ID        string        `json:"id"`
	Category  Category      `json:"category"`
	CreatedAt time.Time     `json:"created_at"`
	Counts    CountSnapshot `json:"counts"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	Store            string `json:"store"`
	StoreStatus      string `json:"store_status"`
	ConnectedClients int    `json:"connected_clients"`
	Broadcasts       int    `json:"broadcasts"`
}
