package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"montafix/internal/models"
)

func TestHandleQuote_New(t *testing.T) {
	srv := setupTestServer(t)
	defer srv.Close()

	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantCost     float64
		wantDuration float64
	}{
		{
			name:         "small value flat rate",
			body:         `{"furniture_type":"new","value":500}`,
			wantStatus:   http.StatusOK,
			wantCost:     60,
			wantDuration: 2,
		},
		{
			name:         "boundary value still flat rate",
			body:         `{"furniture_type":"new","value":600}`,
			wantStatus:   http.StatusOK,
			wantCost:     60,
			wantDuration: 2,
		},
		{
			name:         "mid tier percentage",
			body:         `{"furniture_type":"new","value":800}`,
			wantStatus:   http.StatusOK,
			wantCost:     80,
			wantDuration: 2,
		},
		{
			name:         "high tier with mirror",
			body:         `{"furniture_type":"new","value":2000,"has_mirror":true}`,
			wantStatus:   http.StatusOK,
			wantCost:     312,
			wantDuration: 5,
		},
		{
			name:       "zero value rejected",
			body:       `{"furniture_type":"new","value":0}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative value rejected",
			body:       `{"furniture_type":"new","value":-100}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp QuoteResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Cost != tt.wantCost {
				t.Errorf("cost = %v, want %v", resp.Cost, tt.wantCost)
			}
			if resp.DurationHours != tt.wantDuration {
				t.Errorf("duration = %v, want %v", resp.DurationHours, tt.wantDuration)
			}
			if len(resp.LineItems) == 0 {
				t.Errorf("expected line items in response")
			}
		})
	}
}

func TestHandleQuote_Used(t *testing.T) {
	srv := setupTestServer(t)
	defer srv.Close()

	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantCost     float64
		wantDuration float64
	}{
		{
			name:         "large with disassembly",
			body:         `{"furniture_type":"used","size":"large","needs_disassembly":true}`,
			wantStatus:   http.StatusOK,
			wantCost:     195,
			wantDuration: 3.5,
		},
		{
			name:         "kitchen priced per piece",
			body:         `{"furniture_type":"used","size":"kitchen_or_pieces","number_of_pieces":3}`,
			wantStatus:   http.StatusOK,
			wantCost:     120,
			wantDuration: 3,
		},
		{
			name:       "kitchen without piece count",
			body:       `{"furniture_type":"used","size":"kitchen_or_pieces"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative piece count",
			body:       `{"furniture_type":"used","size":"kitchen_or_pieces","number_of_pieces":-1}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp QuoteResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Cost != tt.wantCost {
				t.Errorf("cost = %v, want %v", resp.Cost, tt.wantCost)
			}
			if resp.DurationHours != tt.wantDuration {
				t.Errorf("duration = %v, want %v", resp.DurationHours, tt.wantDuration)
			}
		})
	}
}

func TestHandleQuote_Validation(t *testing.T) {
	srv := setupTestServer(t)
	defer srv.Close()

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{
			name:       "wrong method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "invalid JSON",
			method:     http.MethodPost,
			body:       "not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown furniture type",
			method:     http.MethodPost,
			body:       `{"furniture_type":"antique"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field rejected",
			method:     http.MethodPost,
			body:       `{"furniture_type":"new","value":500,"bogus":true}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/quote", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleSlots(t *testing.T) {
	srv := setupTestServer(t)
	defer srv.Close()

	seedCalendar(t, srv.DB, models.Calendar{
		"2025-05-20": {"09:00", "17:30", "18:01"},
	})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantSlots  []string
	}{
		{
			name:       "one hour job drops late start",
			target:     "/api/v1/slots?date=2025-05-20&duration_hours=1",
			wantStatus: http.StatusOK,
			wantSlots:  []string{"09:00", "17:30"},
		},
		{
			name:       "long job keeps morning only",
			target:     "/api/v1/slots?date=2025-05-20&duration_hours=9",
			wantStatus: http.StatusOK,
			wantSlots:  []string{"09:00"},
		},
		{
			name:       "unknown date yields empty list",
			target:     "/api/v1/slots?date=2025-05-21&duration_hours=1",
			wantStatus: http.StatusOK,
			wantSlots:  []string{},
		},
		{
			name:       "invalid date",
			target:     "/api/v1/slots?date=20-05-2025&duration_hours=1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing duration",
			target:     "/api/v1/slots?date=2025-05-20",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative duration",
			target:     "/api/v1/slots?date=2025-05-20&duration_hours=-1",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp SlotsResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if len(resp.Slots) != len(tt.wantSlots) {
				t.Fatalf("slots = %v, want %v", resp.Slots, tt.wantSlots)
			}
			for i := range tt.wantSlots {
				if resp.Slots[i] != tt.wantSlots[i] {
					t.Errorf("slots[%d] = %q, want %q", i, resp.Slots[i], tt.wantSlots[i])
				}
			}
		})
	}
}
