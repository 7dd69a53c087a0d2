package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the sqlite connection that backs the availability calendar and
// booking requests.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("already exists")
	ErrInvalidDate = errors.New("invalid date; expected YYYY-MM-DD")
	ErrInvalidTime = errors.New("invalid time; expected HH:MM")
)

// NewDB opens the database at path and creates tables if they don't exist.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and a busy timeout keep concurrent API reads cheap.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		// Dates staff have opened for booking. A date can exist with no
		// slots while staff are still filling it in.
		`CREATE TABLE IF NOT EXISTS availability_dates (
			date TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// Open start times per date. Times are stored zero-padded so
		// lexical and chronological order agree.
		`CREATE TABLE IF NOT EXISTS availability_slots (
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(date, time),
			FOREIGN KEY (date) REFERENCES availability_dates(date) ON DELETE CASCADE
		)`,
		// Customer booking requests with the quote snapshot they saw.
		`CREATE TABLE IF NOT EXISTS booking_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reference TEXT UNIQUE NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL,
			furniture_type TEXT NOT NULL,
			cost REAL NOT NULL,
			duration_hours REAL NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_availability_slots_date ON availability_slots(date)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_requests_date ON booking_requests(date)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_requests_status ON booking_requests(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}

// PingContext checks the connection.
func (db *DB) PingContext(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}
