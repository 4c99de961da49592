package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"incident-board/config"
	"incident-board/models"
)

const (
	createReportsTableMySQL = `
		CREATE TABLE IF NOT EXISTS incident_reports (
			seq INT NOT NULL AUTO_INCREMENT,
			category VARCHAR(32) NOT NULL,
			description TEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			PRIMARY KEY (seq),
			INDEX category_index (category)
		) CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`

	createReportsTableSQLite = `
		CREATE TABLE IF NOT EXISTS incident_reports (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`

	createCategoryIndexSQLite = `CREATE INDEX IF NOT EXISTS idx_incident_reports_category ON incident_reports(category)`

	insertReport = `INSERT INTO incident_reports (category, description, created_at) VALUES (?, ?, ?)`

	countByCategory = `SELECT category, COUNT(*) FROM incident_reports GROUP BY category`
)

// EnsureReportsTable creates the reports table if it does not exist
func (d *Database) EnsureReportsTable(ctx context.Context) error {
	stmts := []string{createReportsTableMySQL}
	if d.driver == config.DriverSQLite {
		stmts = []string{createReportsTableSQLite, createCategoryIndexSQLite}
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create incident_reports table: %w", err)
		}
	}
	return nil
}

// SaveReport validates and inserts a report, returning it with its store-assigned id and timestamp.
// Nothing is written when validation fails.
func (d *Database) SaveReport(ctx context.Context, category, description string) (*models.Report, error) {
	c, desc, err := models.ValidateReport(category, description)
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	res, err := d.db.ExecContext(ctx, insertReport, string(c), desc, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get report seq: %w", err)
	}

	return &models.Report{
		ID:          strconv.FormatInt(seq, 10),
		Category:    c,
		Description: desc,
		CreatedAt:   createdAt,
	}, nil
}

// CountByCategory returns the number of reports per category, every category present
func (d *Database) CountByCategory(ctx context.Context) (models.CountSnapshot, error) {
	rows, err := d.db.QueryContext(ctx, countByCategory)
	if err != nil {
		return models.CountSnapshot{}, fmt.Errorf("failed to count reports: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return models.CountSnapshot{}, fmt.Errorf("failed to scan report count: %w", err)
		}
		counts[category] += count
	}
	if err := rows.Err(); err != nil {
		return models.CountSnapshot{}, fmt.Errorf("error iterating report counts: %w", err)
	}

	return models.NewCountSnapshot(counts), nil
}
