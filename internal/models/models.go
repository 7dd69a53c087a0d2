package models

import (
	"regexp"
	"time"
)

// Calendar maps a calendar date (YYYY-MM-DD) to the open start times
// (HH:MM, 24-hour) staff have declared bookable on that date.
type Calendar map[string][]string

// Booking request lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// BookingRequest is a customer's request for an assembly appointment.
// It carries a snapshot of the quote that was shown when the request
// was submitted; it is not a confirmed appointment.
type BookingRequest struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Time          string    `json:"time"` // HH:MM
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address"`
	FurnitureType string    `json:"furniture_type"` // new, used
	Cost          float64   `json:"cost"`
	DurationHours float64   `json:"duration_hours"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsActive reports whether the request still needs staff attention.
func (b *BookingRequest) IsActive() bool {
	return b.Status != StatusCancelled
}

// timeRe accepts 24-hour HH:MM with an optional leading zero on the hour,
// matching what the admin surface lets staff type.
var timeRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidTime reports whether s is a well-formed HH:MM time of day.
func ValidTime(s string) bool {
	return timeRe.MatchString(s)
}

// Clone returns a deep copy of the calendar. Callers that hand a snapshot
// to concurrent readers should clone first; the store always returns
// fresh copies.
func (c Calendar) Clone() Calendar {
	if c == nil {
		return nil
	}
	out := make(Calendar, len(c))
	for date, times := range c {
		out[date] = append([]string(nil), times...)
	}
	return out
}
