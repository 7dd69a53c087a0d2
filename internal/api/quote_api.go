package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"montafix/internal/metrics"
	"montafix/internal/models"
	"montafix/internal/pricing"
	"montafix/internal/slots"
)

// QuoteRequest is the request body for POST /api/v1/quote. The condition
// fields that apply depend on furniture_type.
type QuoteRequest struct {
	FurnitureType string `json:"furniture_type"` // new, used

	// New furniture
	Value     float64 `json:"value,omitempty"`
	HasMirror bool    `json:"has_mirror,omitempty"`

	// Used furniture
	Size             pricing.Size `json:"size,omitempty"`
	NeedsDisassembly bool         `json:"needs_disassembly,omitempty"`
	NumberOfPieces   int          `json:"number_of_pieces,omitempty"`
}

// QuoteResponse is the response for POST /api/v1/quote.
type QuoteResponse struct {
	Cost          float64  `json:"cost"`
	DurationHours float64  `json:"duration_hours"`
	LineItems     []string `json:"line_items"`
}

// SlotsResponse is the response for GET /api/v1/slots.
type SlotsResponse struct {
	Date          string   `json:"date"`
	DurationHours float64  `json:"duration_hours"`
	Slots         []string `json:"slots"`
}

// handleQuote computes a price and duration estimate.
// POST /api/v1/quote
func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("quote")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req QuoteRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		quote pricing.Quote
		err   error
	)
	switch req.FurnitureType {
	case "new":
		quote, err = pricing.EstimateNew(req.Value, req.HasMirror)
	case "used":
		quote, err = pricing.EstimateUsed(req.Size, req.NeedsDisassembly, req.NumberOfPieces)
	default:
		writeError(w, http.StatusBadRequest, "furniture_type must be \"new\" or \"used\"")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrInvalidMagnitude), errors.Is(err, pricing.ErrIncompleteRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.log.Error().Err(err).Str("furniture_type", req.FurnitureType).Msg("quote estimation failed")
			writeError(w, http.StatusInternalServerError, "failed to compute quote")
		}
		return
	}

	metrics.IncQuote(req.FurnitureType)
	writeJSON(w, http.StatusOK, QuoteResponse{
		Cost:          quote.Cost,
		DurationHours: quote.DurationHours,
		LineItems:     quote.LineItems,
	})
}

// handleSlots returns the admissible start times for a date and job length.
// GET /api/v1/slots?date=YYYY-MM-DD&duration_hours=2.5
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if !models.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	durationStr := r.URL.Query().Get("duration_hours")
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid duration_hours")
		return
	}

	calendar, err := s.calendar.GetCalendar(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load calendar")
		metrics.IncSlotResolution("error")
		writeError(w, http.StatusInternalServerError, "failed to load availability")
		return
	}

	admissible, err := slots.Resolve(calendar, date, duration)
	if err != nil {
		metrics.IncSlotResolution("invalid")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(admissible) == 0 {
		metrics.IncSlotResolution("empty")
	} else {
		metrics.IncSlotResolution("ok")
	}
	writeJSON(w, http.StatusOK, SlotsResponse{
		Date:          date,
		DurationHours: duration,
		Slots:         admissible,
	})
}
