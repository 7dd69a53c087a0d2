package database

import (
	"context"
	"database/sql"
	"fmt"

	"montafix/internal/models"
	"montafix/internal/slots"
)

// GetCalendar returns the full availability calendar. Slot lists come back
// sorted ascending by time; dates with no slots yet appear with an empty
// list so the admin surface can keep editing them.
func (db *DB) GetCalendar(ctx context.Context) (models.Calendar, error) {
	calendar := models.Calendar{}

	rows, err := db.QueryContext(ctx, `SELECT date FROM availability_dates`)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		calendar[date] = []string{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dates: %w", err)
	}

	slotRows, err := db.QueryContext(ctx,
		`SELECT date, time FROM availability_slots ORDER BY date, time`)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var date, t string
		if err := slotRows.Scan(&date, &t); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		calendar[date] = append(calendar[date], t)
	}
	if err := slotRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return calendar, nil
}

// ReplaceCalendar atomically replaces the whole calendar, the same
// contract the admin surface uses when it saves. Dates mapped to an empty
// slot set are dropped: an empty date is equivalent to an absent one.
func (db *DB) ReplaceCalendar(ctx context.Context, calendar models.Calendar) error {
	for date, times := range calendar {
		if !models.ValidDate(date) {
			return fmt.Errorf("%q: %w", date, ErrInvalidDate)
		}
		for _, t := range times {
			if !models.ValidTime(t) {
				return fmt.Errorf("%q: %w", t, ErrInvalidTime)
			}
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_slots`); err != nil {
		return fmt.Errorf("clear slots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_dates`); err != nil {
		return fmt.Errorf("clear dates: %w", err)
	}

	for date, times := range calendar {
		if len(times) == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO availability_dates (date) VALUES (?)`, date); err != nil {
			return fmt.Errorf("insert date %s: %w", date, err)
		}
		for _, t := range times {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO availability_slots (date, time) VALUES (?, ?)`,
				date, normalizeTime(t)); err != nil {
				return fmt.Errorf("insert slot %s %s: %w", date, t, err)
			}
		}
	}

	return tx.Commit()
}

// AddDate opens a new date for booking with no slots yet.
func (db *DB) AddDate(ctx context.Context, date string) error {
	if !models.ValidDate(date) {
		return fmt.Errorf("%q: %w", date, ErrInvalidDate)
	}

	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO availability_dates (date) VALUES (?)`, date)
	if err != nil {
		return fmt.Errorf("insert date: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert date: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("date %s: %w", date, ErrDuplicate)
	}
	return nil
}

// RemoveDate removes a date and all of its slots.
func (db *DB) RemoveDate(ctx context.Context, date string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM availability_dates WHERE date = ?`, date)
	if err != nil {
		return fmt.Errorf("delete date: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete date: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("date %s: %w", date, ErrNotFound)
	}
	return nil
}

// AddSlot opens a start time on a date, creating the date if needed.
// Duplicate times on the same date are rejected.
func (db *DB) AddSlot(ctx context.Context, date, t string) error {
	if !models.ValidDate(date) {
		return fmt.Errorf("%q: %w", date, ErrInvalidDate)
	}
	if !models.ValidTime(t) {
		return fmt.Errorf("%q: %w", t, ErrInvalidTime)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add slot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO availability_dates (date) VALUES (?)`, date); err != nil {
		return fmt.Errorf("ensure date: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO availability_slots (date, time) VALUES (?, ?)`,
		date, normalizeTime(t))
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("slot %s %s: %w", date, t, ErrDuplicate)
	}

	return tx.Commit()
}

// RemoveSlot removes a start time from a date. When the last slot of a
// date is removed, the date itself is removed too.
func (db *DB) RemoveSlot(ctx context.Context, date, t string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove slot: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM availability_slots WHERE date = ? AND time = ?`,
		date, normalizeTime(t))
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("slot %s %s: %w", date, t, ErrNotFound)
	}

	var remaining int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM availability_slots WHERE date = ?`, date).Scan(&remaining)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("count remaining slots: %w", err)
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM availability_dates WHERE date = ?`, date); err != nil {
			return fmt.Errorf("prune empty date: %w", err)
		}
	}

	return tx.Commit()
}

// normalizeTime zero-pads the hour so stored times sort correctly as text
// ("9:00" becomes "09:00"). Validation happens before this is called.
func normalizeTime(t string) string {
	m, err := slots.ParseMinutes(t)
	if err != nil {
		return t
	}
	return slots.FormatMinutes(m)
}
