// Package slots resolves which declared start times on a date can still
// fit a job of a given duration before the end of the working day.
package slots

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CutoffMinutes is the end of the working day in minutes since midnight.
// No job may still be running at 19:00.
const CutoffMinutes = 19 * 60

var (
	// ErrInvalidDuration is returned for a non-finite or negative duration.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidSlot is returned when a calendar entry is not a
	// well-formed HH:MM time. The store never writes one; seeing this
	// means the snapshot is corrupt.
	ErrInvalidSlot = errors.New("invalid slot time")
)

// Resolve returns the start times on date where a job of durationHours can
// begin and finish by the cutoff, sorted ascending. A date with no open
// slots (or absent from the calendar) resolves to an empty result; that is
// an expected outcome, not an error.
//
// The calendar is a read-only snapshot; Resolve never mutates it and does
// not check for conflicts with existing appointments, since the calendar
// is assumed to hold only currently open slots.
func Resolve(calendar map[string][]string, date string, durationHours float64) ([]string, error) {
	if math.IsNaN(durationHours) || math.IsInf(durationHours, 0) || durationHours < 0 {
		return nil, fmt.Errorf("duration %v hours: %w", durationHours, ErrInvalidDuration)
	}

	durationMinutes := int(math.Round(durationHours * 60))

	daySlots := calendar[date]
	if len(daySlots) == 0 {
		return []string{}, nil
	}

	type candidate struct {
		start   int
		literal string
	}

	admissible := make([]candidate, 0, len(daySlots))
	for _, slot := range daySlots {
		start, err := ParseMinutes(slot)
		if err != nil {
			return nil, err
		}
		if start+durationMinutes <= CutoffMinutes {
			admissible = append(admissible, candidate{start: start, literal: slot})
		}
	}

	// The store keeps each day sorted, but a snapshot may come from
	// anywhere; sort defensively rather than trusting the writer.
	sort.Slice(admissible, func(i, j int) bool {
		return admissible[i].start < admissible[j].start
	})

	result := make([]string, len(admissible))
	for i, c := range admissible {
		result[i] = c.literal
	}
	return result, nil
}

// ParseMinutes converts an HH:MM time of day to minutes since midnight.
func ParseMinutes(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidSlot)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidSlot)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || mm == "" || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidSlot)
	}
	return hour*60 + minute, nil
}

// FormatMinutes renders minutes since midnight as zero-padded HH:MM.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
