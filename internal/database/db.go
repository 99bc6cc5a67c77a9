package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"terracurve/internal/metrics"
	"terracurve/internal/models"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a profile.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// DB is the profile snapshot and event archive.
type DB struct {
	conn *sqlx.DB
	log  *zap.Logger
}

// NewDB opens the archive and creates its tables.
// dsn format: "username:password@tcp(host:port)/dbname?parseTime=true"
func NewDB(ctx context.Context, dsn string, log *zap.Logger) (*DB, error) {
	conn, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, log: log}
	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// MySQL rejects multi-statement Exec, so each table is its own statement.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profile_snapshots (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		config_json MEDIUMTEXT NOT NULL,
		seasonal_blob MEDIUMBLOB NULL,
		saved_at DATETIME(6) NOT NULL,
		INDEX idx_snapshots_name (name, saved_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS curve_events (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		event_id CHAR(36) NOT NULL,
		type VARCHAR(32) NOT NULL,
		profile VARCHAR(64) NOT NULL DEFAULT '',
		day SMALLINT NULL,
		message TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_curve_events_event_id (event_id),
		INDEX idx_curve_events_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (db *DB) recordStats() {
	stats := db.conn.Stats()
	metrics.RecordArchivePool(stats.OpenConnections, stats.InUse, stats.Idle)
}

// SaveSnapshot archives a saved profile.
func (db *DB) SaveSnapshot(ctx context.Context, s *models.Snapshot) error {
	defer db.recordStats()

	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}

	start := time.Now()
	res, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO profile_snapshots (name, config_json, seasonal_blob, saved_at)
		 VALUES (:name, :config_json, :seasonal_blob, :saved_at)`, s)
	metrics.RecordDBQuery("INSERT", "profile_snapshots", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", s.Name, err)
	}

	if id, err := res.LastInsertId(); err == nil {
		s.ID = id
	}
	db.log.Debug("snapshot archived", zap.String("profile", s.Name), zap.Int64("id", s.ID))
	return nil
}

// LatestSnapshot returns the most recent snapshot of a profile.
func (db *DB) LatestSnapshot(ctx context.Context, name string) (*models.Snapshot, error) {
	var s models.Snapshot
	start := time.Now()
	err := db.conn.GetContext(ctx, &s,
		`SELECT id, name, config_json, seasonal_blob, saved_at FROM profile_snapshots
		 WHERE name = ? ORDER BY saved_at DESC LIMIT 1`, name)
	metrics.RecordDBQuery("SELECT", "profile_snapshots", time.Since(start), ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSnapshots returns snapshot headers, newest first, without the binary blob.
func (db *DB) ListSnapshots(ctx context.Context, name string, limit int) ([]models.Snapshot, error) {
	var out []models.Snapshot
	start := time.Now()
	err := db.conn.SelectContext(ctx, &out,
		`SELECT id, name, config_json, saved_at FROM profile_snapshots
		 WHERE name = ? ORDER BY saved_at DESC LIMIT ?`, name, clampLimit(limit))
	metrics.RecordDBQuery("SELECT", "profile_snapshots", time.Since(start), err)
	return out, err
}

// StoreEvent archives a single event. Replays of the same event ID are ignored.
func (db *DB) StoreEvent(ctx context.Context, e *models.Event) error {
	return db.StoreEvents(ctx, []models.Event{*e})
}

// StoreEvents archives a batch of events in one transaction.
func (db *DB) StoreEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	defer db.recordStats()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx,
		`INSERT IGNORE INTO curve_events (event_id, type, profile, day, message, created_at)
		 VALUES (:event_id, :type, :profile, :day, :message, :created_at)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	start := time.Now()
	for i := range events {
		if _, err = stmt.ExecContext(ctx, &events[i]); err != nil {
			metrics.RecordDBQuery("INSERT", "curve_events", time.Since(start), err)
			return fmt.Errorf("failed to insert event %s: %w", events[i].ID, err)
		}
	}

	err = tx.Commit()
	metrics.RecordDBQuery("INSERT", "curve_events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.log.Debug("events archived", zap.Int("count", len(events)))
	return nil
}

// RecentEvents returns the latest events, newest first.
func (db *DB) RecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	var out []models.Event
	start := time.Now()
	err := db.conn.SelectContext(ctx, &out,
		`SELECT event_id, type, profile, day, message, created_at FROM curve_events
		 ORDER BY created_at DESC LIMIT ?`, clampLimit(limit))
	metrics.RecordDBQuery("SELECT", "curve_events", time.Since(start), err)
	return out, err
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 1000:
		return 1000
	}
	return limit
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
