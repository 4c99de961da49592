package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"incident-board/config"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Database handles all SQL database operations
type Database struct {
	db     *sql.DB
	driver string
}

// NewDatabase creates a new database connection for the configured driver
func NewDatabase(cfg *config.Config) (*Database, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		db, err := sql.Open(config.DriverMySQL, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := pingWithRetry(db, cfg.DBPingMaxWait); err != nil {
			db.Close()
			return nil, err
		}

		// Set connection pool settings
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		log.Infof("Database connected successfully to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
		return &Database{db: db, driver: config.DriverMySQL}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
}

// OpenSQLite opens an embedded SQLite database at path, ":memory:" included
func OpenSQLite(path string) (*Database, error) {
	db, err := sql.Open(config.DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Infof("Database opened successfully at %s", path)
	return &Database{db: db, driver: config.DriverSQLite}, nil
}

// New wraps an existing connection pool
func New(db *sql.DB, driver string) *Database {
	return &Database{db: db, driver: driver}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping verifies the database is reachable
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// pingWithRetry waits for the database to come up, backing off between attempts
func pingWithRetry(db *sql.DB, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	waitInterval := time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database ping timeout after %v: %w", maxWait, pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > 30*time.Second {
			waitInterval = 30 * time.Second
		}
	}
}
