package export

import (
	"testing"
	"time"

	"montafix/internal/models"
)

func TestFilterActive(t *testing.T) {
	s := &SheetsService{}

	requests := []models.BookingRequest{
		{Reference: "a", Status: models.StatusPending},
		{Reference: "b", Status: models.StatusConfirmed},
		{Reference: "c", Status: models.StatusCancelled},
		{Reference: "d", Status: models.StatusCompleted},
	}

	active := s.filterActive(requests)

	if len(active) != 3 {
		t.Errorf("Expected 3 active requests, got %d", len(active))
	}

	for _, req := range active {
		if req.Status == models.StatusCancelled {
			t.Errorf("Cancelled request found in active list")
		}
	}
}

func TestBookingRowValues(t *testing.T) {
	createdAt := time.Date(2025, 5, 18, 10, 0, 0, 0, time.UTC)

	req := &models.BookingRequest{
		Reference:     "ref-123",
		Date:          "2025-05-20",
		Time:          "09:00",
		Name:          "Maria Silva",
		Phone:         "+351912345678",
		Email:         "maria@example.com",
		Address:       "Rua das Flores 12, Lisboa",
		FurnitureType: "used",
		Cost:          195,
		DurationHours: 3.5,
		Status:        models.StatusConfirmed,
		CreatedAt:     createdAt,
	}

	values := bookingRowValues(req)

	expected := []interface{}{
		"ref-123",
		"2025-05-20",
		"09:00",
		"Maria Silva",
		"+351912345678",
		"maria@example.com",
		"Rua das Flores 12, Lisboa",
		"used",
		float64(195),
		3.5,
		models.StatusConfirmed,
		"2025-05-18 10:00:00",
	}

	if len(values) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(values))
	}

	for i, v := range values {
		if v != expected[i] {
			t.Errorf("At index %d: expected %v, got %v", i, expected[i], v)
		}
	}
}

func TestCacheOperations(t *testing.T) {
	s := &SheetsService{
		rowCache: make(map[string]int),
	}

	s.setCachedRow("ref-1", 5)
	row, ok := s.getCachedRow("ref-1")
	if !ok || row != 5 {
		t.Errorf("Expected row 5, got %d (ok=%v)", row, ok)
	}

	s.deleteCachedRow("ref-1")
	_, ok = s.getCachedRow("ref-1")
	if ok {
		t.Errorf("Expected row to be deleted from cache")
	}

	s.setCachedRow("ref-2", 10)
	s.ClearCache()
	_, ok = s.getCachedRow("ref-2")
	if ok {
		t.Errorf("Expected cache to be cleared")
	}
}

func TestParseRowFromRange(t *testing.T) {
	tests := []struct {
		rng     string
		wantRow int
		wantOK  bool
	}{
		{"Bookings!A5:L5", 5, true},
		{"Bookings!A12:L12", 12, true},
		{"Bookings!A1", 1, true},
		{"Bookings", 0, false},
	}

	for _, tt := range tests {
		row, ok := parseRowFromRange(tt.rng)
		if ok != tt.wantOK || row != tt.wantRow {
			t.Errorf("parseRowFromRange(%q) = (%d, %v), want (%d, %v)", tt.rng, row, ok, tt.wantRow, tt.wantOK)
		}
	}
}
