package ingest

import (
	"context"

	"incident-board/models"
)

// ReportStore persists reports and counts them per category
type ReportStore interface {
	SaveReport(ctx context.Context, category, description string) (*models.Report, error)
	CountByCategory(ctx context.Context) (models.CountSnapshot, error)
}

// Aggregator derives count snapshots from the store.
// It holds no counters: every call re-reads the store so a snapshot reflects every prior save.
type Aggregator struct {
	store ReportStore
}

// NewAggregator creates an aggregator over store
func NewAggregator(store ReportStore) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate returns the current per-category counts
func (a *Aggregator) Aggregate(ctx context.Context) (models.CountSnapshot, error) {
	counts, err := a.store.CountByCategory(ctx)
	if err != nil {
		return models.CountSnapshot{}, &StorageError{Op: "count reports", Err: err}
	}
	return counts, nil
}
