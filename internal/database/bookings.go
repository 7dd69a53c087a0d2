package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"montafix/internal/models"
)

// CreateBookingRequest persists a new booking request and fills in its
// generated ID and timestamps.
func (db *DB) CreateBookingRequest(ctx context.Context, req *models.BookingRequest) error {
	now := time.Now().UTC()
	if req.Status == "" {
		req.Status = models.StatusPending
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO booking_requests
			(reference, date, time, name, phone, email, address,
			 furniture_type, cost, duration_hours, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Reference, req.Date, req.Time, req.Name, req.Phone, req.Email,
		req.Address, req.FurnitureType, req.Cost, req.DurationHours,
		req.Status, now, now)
	if err != nil {
		return fmt.Errorf("insert booking request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	req.ID = id
	req.CreatedAt = now
	req.UpdatedAt = now

	db.logger.Info().
		Int64("id", id).
		Str("reference", req.Reference).
		Str("date", req.Date).
		Str("time", req.Time).
		Msg("booking request created")
	return nil
}

// GetBookingRequestByReference returns a single request by its public
// reference.
func (db *DB) GetBookingRequestByReference(ctx context.Context, reference string) (*models.BookingRequest, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, reference, date, time, name, phone, email, address,
		       furniture_type, cost, duration_hours, status, created_at, updated_at
		FROM booking_requests WHERE reference = ?`, reference)

	req, err := scanBookingRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking request %s: %w", reference, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking request: %w", err)
	}
	return req, nil
}

// ListBookingRequests returns requests, newest first, optionally filtered
// by service date.
func (db *DB) ListBookingRequests(ctx context.Context, date string) ([]models.BookingRequest, error) {
	query := `
		SELECT id, reference, date, time, name, phone, email, address,
		       furniture_type, cost, duration_hours, status, created_at, updated_at
		FROM booking_requests`
	args := []any{}
	if date != "" {
		query += ` WHERE date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list booking requests: %w", err)
	}
	defer rows.Close()

	var requests []models.BookingRequest
	for rows.Next() {
		req, err := scanBookingRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking requests: %w", err)
	}
	return requests, nil
}

// UpdateBookingRequestStatus moves a request through its lifecycle.
func (db *DB) UpdateBookingRequestStatus(ctx context.Context, reference, status string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE booking_requests SET status = ?, updated_at = ?
		WHERE reference = ?`, status, time.Now().UTC(), reference)
	if err != nil {
		return fmt.Errorf("update booking request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking request status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("booking request %s: %w", reference, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookingRequest(row rowScanner) (*models.BookingRequest, error) {
	var req models.BookingRequest
	err := row.Scan(
		&req.ID, &req.Reference, &req.Date, &req.Time, &req.Name, &req.Phone,
		&req.Email, &req.Address, &req.FurnitureType, &req.Cost,
		&req.DurationHours, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
