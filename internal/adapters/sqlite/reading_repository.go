package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// ReadingRepository implements domain.ReadingRepository with SQLite.
// Timestamps are stored as unix nanoseconds so range queries compare integers.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository creates a SQLite-backed repository
func NewReadingRepository(dbPath string) (*ReadingRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS light_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		lux REAL NOT NULL,
		accumulated REAL NOT NULL DEFAULT 0,
		supplementing INTEGER NOT NULL DEFAULT 0,
		taken_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_taken_at ON light_readings(taken_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &ReadingRepository{db: db}, nil
}

// SaveReading stores a reading in SQLite
func (r *ReadingRepository) SaveReading(ctx context.Context, reading *domain.LightReading) error {
	query := `INSERT INTO light_readings (lux, accumulated, supplementing, taken_at) VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		reading.Lux, reading.Accumulated, reading.Supplementing, reading.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}

	reading.ID = id
	return nil
}

const selectColumns = `SELECT id, lux, accumulated, supplementing, taken_at FROM light_readings`

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(s scanner) (*domain.LightReading, error) {
	var (
		reading domain.LightReading
		takenAt int64
	)
	if err := s.Scan(&reading.ID, &reading.Lux, &reading.Accumulated, &reading.Supplementing, &takenAt); err != nil {
		return nil, err
	}
	reading.Timestamp = time.Unix(0, takenAt)
	return &reading, nil
}

// GetReading retrieves a reading by ID
func (r *ReadingRepository) GetReading(ctx context.Context, id int64) (*domain.LightReading, error) {
	reading, err := scanReading(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReadingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reading: %w", err)
	}
	return reading, nil
}

// GetReadingsInRange returns all readings in [start, end), oldest first
func (r *ReadingRepository) GetReadingsInRange(ctx context.Context, start, end time.Time) ([]*domain.LightReading, error) {
	query := selectColumns + `
		WHERE taken_at >= ? AND taken_at < ?
		ORDER BY taken_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []*domain.LightReading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}

	return readings, nil
}

// GetLatestReading returns the most recent reading
func (r *ReadingRepository) GetLatestReading(ctx context.Context) (*domain.LightReading, error) {
	query := selectColumns + ` ORDER BY taken_at DESC, id DESC LIMIT 1`

	reading, err := scanReading(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReadingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}
	return reading, nil
}

// DeleteOldReadings removes readings taken before cutoff
func (r *ReadingRepository) DeleteOldReadings(ctx context.Context, cutoff time.Time) error {
	query := `DELETE FROM light_readings WHERE taken_at < ?`

	if _, err := r.db.ExecContext(ctx, query, cutoff.UnixNano()); err != nil {
		return fmt.Errorf("failed to delete old readings: %w", err)
	}

	return nil
}

// Close closes the database connection
func (r *ReadingRepository) Close() error {
	return r.db.Close()
}
