package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"incident-board/models"

	"github.com/stretchr/testify/assert"
)

func TestFoldCounts(t *testing.T) {
	assert.Equal(t, models.CountSnapshot{}, foldCounts(nil))

	got := foldCounts([]categoryCount{
		{Category: "threat", Count: 4},
		{Category: "violation", Count: 1},
		{Category: "legacy", Count: 12},
	})
	assert.Equal(t, models.CountSnapshot{Violation: 1, Threat: 4}, got)
}

func TestStoreAgainstMongoDB(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set, skipping MongoDB integration test")
	}

	ctx := context.Background()
	dbName := fmt.Sprintf("incidents_test_%d", time.Now().UnixNano())
	s, err := Open(ctx, uri, dbName)
	if err != nil {
		t.Skipf("MongoDB connection failed (expected in test environment): %v", err)
	}
	defer func() {
		_ = s.reports.Database().Drop(ctx)
		s.Close()
	}()

	assert.NoError(t, s.Ping(ctx))

	counts, err := s.CountByCategory(ctx)
	assert.NoError(t, err)
	assert.Equal(t, models.CountSnapshot{}, counts)

	report, err := s.SaveReport(ctx, "criminal", "stolen bike")
	assert.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, models.CategoryCriminal, report.Category)

	_, err = s.SaveReport(ctx, "unknown", "x")
	assert.True(t, models.IsValidationError(err))

	counts, err = s.CountByCategory(ctx)
	assert.NoError(t, err)
	assert.Equal(t, models.CountSnapshot{Criminal: 1}, counts)
}
