package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"montafix/internal/database"
	"montafix/internal/metrics"
	"montafix/internal/models"
)

// CalendarResponse is the response for GET /api/v1/availability.
type CalendarResponse struct {
	Dates models.Calendar `json:"dates"`
}

// DateRequest is the request body for POST /api/v1/availability/dates.
type DateRequest struct {
	Date string `json:"date"` // Format: YYYY-MM-DD
}

// SlotRequest is the request body for slot add and remove.
type SlotRequest struct {
	Date string `json:"date"` // Format: YYYY-MM-DD
	Time string `json:"time"` // Format: HH:MM
}

// handleAvailability serves the calendar and full calendar replacement.
// GET /api/v1/availability
// PUT /api/v1/availability (staff)
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")

	switch r.Method {
	case http.MethodGet:
		s.getAvailability(w, r)
	case http.MethodPut:
		s.requireAPIKey(s.putAvailability)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getAvailability(w http.ResponseWriter, r *http.Request) {
	calendar, err := s.calendar.GetCalendar(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load calendar")
		writeError(w, http.StatusInternalServerError, "failed to load availability")
		return
	}
	writeJSON(w, http.StatusOK, CalendarResponse{Dates: calendar})
}

func (s *HTTPServer) putAvailability(w http.ResponseWriter, r *http.Request) {
	var req CalendarResponse
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.db.ReplaceCalendar(r.Context(), req.Dates); err != nil {
		switch {
		case errors.Is(err, database.ErrInvalidDate), errors.Is(err, database.ErrInvalidTime):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.log.Error().Err(err).Msg("failed to replace calendar")
			writeError(w, http.StatusInternalServerError, "failed to update availability")
		}
		return
	}

	s.calendar.Invalidate(r.Context())
	metrics.IncAvailabilityUpdate("replace")
	s.log.Info().Int("dates", len(req.Dates)).Msg("availability calendar replaced")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAvailabilityDates adds or removes bookable dates.
// POST /api/v1/availability/dates
// DELETE /api/v1/availability/dates?date=YYYY-MM-DD
func (s *HTTPServer) handleAvailabilityDates(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability_dates")

	switch r.Method {
	case http.MethodPost:
		s.addDate(w, r)
	case http.MethodDelete:
		s.removeDate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) addDate(w http.ResponseWriter, r *http.Request) {
	var req DateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !models.ValidDate(req.Date) {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	if err := s.db.AddDate(r.Context(), req.Date); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			writeError(w, http.StatusConflict, "date already exists")
			return
		}
		s.log.Error().Err(err).Str("date", req.Date).Msg("failed to add date")
		writeError(w, http.StatusInternalServerError, "failed to add date")
		return
	}

	s.calendar.Invalidate(r.Context())
	metrics.IncAvailabilityUpdate("add_date")
	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (s *HTTPServer) removeDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !models.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	if err := s.db.RemoveDate(r.Context(), date); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "date not found")
			return
		}
		s.log.Error().Err(err).Str("date", date).Msg("failed to remove date")
		writeError(w, http.StatusInternalServerError, "failed to remove date")
		return
	}

	s.calendar.Invalidate(r.Context())
	metrics.IncAvailabilityUpdate("remove_date")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAvailabilitySlots adds or removes individual start times.
// POST /api/v1/availability/slots
// DELETE /api/v1/availability/slots
func (s *HTTPServer) handleAvailabilitySlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability_slots")

	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SlotRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !models.ValidDate(req.Date) {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	if !models.ValidTime(req.Time) {
		writeError(w, http.StatusBadRequest, "invalid time format; expected HH:MM")
		return
	}

	var err error
	if r.Method == http.MethodPost {
		err = s.db.AddSlot(r.Context(), req.Date, req.Time)
	} else {
		err = s.db.RemoveSlot(r.Context(), req.Date, req.Time)
	}
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicate):
			writeError(w, http.StatusConflict, "slot already exists")
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, "slot not found")
		default:
			s.log.Error().Err(err).Str("date", req.Date).Str("time", req.Time).Msg("failed to update slot")
			writeError(w, http.StatusInternalServerError, "failed to update slot")
		}
		return
	}

	s.calendar.Invalidate(r.Context())
	if r.Method == http.MethodPost {
		metrics.IncAvailabilityUpdate("add_slot")
		writeJSON(w, http.StatusCreated, map[string]any{"success": true})
		return
	}
	metrics.IncAvailabilityUpdate("remove_slot")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
