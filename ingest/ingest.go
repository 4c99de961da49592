package ingest

import (
	"context"
	"time"

	"incident-board/metrics"
	"incident-board/models"

	"github.com/apex/log"
)

// Broadcaster pushes a snapshot to every connected session
type Broadcaster interface {
	Broadcast(snapshot models.CountSnapshot)
}

// EventPublisher forwards stored reports to downstream consumers
type EventPublisher interface {
	Publish(message interface{}) error
}

// Service runs the validate, persist, aggregate, broadcast sequence for new reports
type Service struct {
	store       ReportStore
	aggregator  *Aggregator
	broadcaster Broadcaster
	publisher   EventPublisher
}

// NewService creates an ingestion service. publisher may be nil.
func NewService(store ReportStore, broadcaster Broadcaster, publisher EventPublisher) *Service {
	return &Service{
		store:       store,
		aggregator:  NewAggregator(store),
		broadcaster: broadcaster,
		publisher:   publisher,
	}
}

// Snapshot returns the current counts
func (s *Service) Snapshot(ctx context.Context) (models.CountSnapshot, error) {
	return s.aggregator.Aggregate(ctx)
}

// SubmitReport stores a report and returns the counts computed after the write.
// The same snapshot is handed to the broadcaster, only once the write has succeeded.
func (s *Service) SubmitReport(ctx context.Context, category, description string) (models.CountSnapshot, error) {
	start := time.Now()

	c, desc, err := models.ValidateReport(category, description)
	if err != nil {
		metrics.ReportsSubmittedTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return models.CountSnapshot{}, err
	}

	report, err := s.store.SaveReport(ctx, string(c), desc)
	if err != nil {
		if models.IsValidationError(err) {
			metrics.ReportsSubmittedTotal.WithLabelValues(metrics.ResultInvalid).Inc()
			return models.CountSnapshot{}, err
		}
		metrics.ReportsSubmittedTotal.WithLabelValues(metrics.ResultError).Inc()
		return models.CountSnapshot{}, &StorageError{Op: "save report", Err: err}
	}

	snapshot, err := s.aggregator.Aggregate(ctx)
	if err != nil {
		metrics.ReportsSubmittedTotal.WithLabelValues(metrics.ResultError).Inc()
		return models.CountSnapshot{}, err
	}

	s.broadcaster.Broadcast(snapshot)
	s.publish(report, snapshot)

	metrics.ReportsSubmittedTotal.WithLabelValues(metrics.ResultOK).Inc()
	metrics.IngestDurationSeconds.Observe(time.Since(start).Seconds())

	log.WithFields(log.Fields{
		"id":       report.ID,
		"category": report.Category,
		"total":    snapshot.Total(),
	}).Info("Report stored")

	return snapshot, nil
}

func (s *Service) publish(report *models.Report, snapshot models.CountSnapshot) {
	if s.publisher == nil {
		return
	}
	event := models.ReportEvent{
		ID:        report.ID,
		Category:  report.Category,
		CreatedAt: report.CreatedAt,
		Counts:    snapshot,
	}
	if err := s.publisher.Publish(event); err != nil {
		log.Errorf("Failed to publish report %s: %v", report.ID, err)
	}
}
