package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"montafix/internal/database"
	"montafix/internal/export"
	"montafix/internal/metrics"
	"montafix/internal/models"
	"montafix/internal/pricing"
	"montafix/internal/slots"
)

// BookingRequestBody is the request body for POST /api/v1/bookings. The
// furniture answers are re-estimated server side so the stored quote can
// not be tampered with.
type BookingRequestBody struct {
	Date    string `json:"date"` // Format: YYYY-MM-DD
	Time    string `json:"time"` // Format: HH:MM
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`

	Furniture QuoteRequest `json:"furniture"`
}

// BookingResponse is the response for POST /api/v1/bookings.
type BookingResponse struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleBookings creates booking requests and lists them for staff.
// POST /api/v1/bookings
// GET /api/v1/bookings?date=YYYY-MM-DD (staff)
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings")

	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.requireAPIKey(s.listBookings)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	var req BookingRequestBody
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, BookingResponse{Success: false, Error: "invalid JSON body"})
		return
	}

	if msg := validateBookingBody(&req); msg != "" {
		metrics.IncBookingRequest("invalid")
		writeJSON(w, http.StatusBadRequest, BookingResponse{Success: false, Error: msg})
		return
	}

	var (
		quote pricing.Quote
		err   error
	)
	switch req.Furniture.FurnitureType {
	case "new":
		quote, err = pricing.EstimateNew(req.Furniture.Value, req.Furniture.HasMirror)
	case "used":
		quote, err = pricing.EstimateUsed(req.Furniture.Size, req.Furniture.NeedsDisassembly, req.Furniture.NumberOfPieces)
	default:
		metrics.IncBookingRequest("invalid")
		writeJSON(w, http.StatusBadRequest, BookingResponse{Success: false, Error: "furniture.furniture_type must be \"new\" or \"used\""})
		return
	}
	if err != nil {
		metrics.IncBookingRequest("invalid")
		writeJSON(w, http.StatusBadRequest, BookingResponse{Success: false, Error: err.Error()})
		return
	}

	// The requested time must still be admissible for this job length.
	calendar, err := s.calendar.GetCalendar(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load calendar")
		writeJSON(w, http.StatusInternalServerError, BookingResponse{Success: false, Error: "failed to check availability"})
		return
	}
	admissible, err := slots.Resolve(calendar, req.Date, quote.DurationHours)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, BookingResponse{Success: false, Error: err.Error()})
		return
	}
	if !containsSlot(admissible, req.Time) {
		metrics.IncBookingRequest("conflict")
		writeJSON(w, http.StatusConflict, BookingResponse{
			Success: false,
			Error:   fmt.Sprintf("time %s is not available on %s for a %.1fh job", req.Time, req.Date, quote.DurationHours),
		})
		return
	}

	booking := &models.BookingRequest{
		Reference:     uuid.NewString(),
		Date:          req.Date,
		Time:          req.Time,
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		FurnitureType: req.Furniture.FurnitureType,
		Cost:          quote.Cost,
		DurationHours: quote.DurationHours,
	}
	if err := s.db.CreateBookingRequest(r.Context(), booking); err != nil {
		s.log.Error().Err(err).Msg("failed to create booking request")
		metrics.IncBookingRequest("error")
		writeJSON(w, http.StatusInternalServerError, BookingResponse{Success: false, Error: "failed to create booking"})
		return
	}

	if err := s.notifier.BookingCreated(r.Context(), booking); err != nil {
		// The booking is already stored. Staff notification failure is not
		// surfaced to the customer.
		s.log.Error().Err(err).Str("reference", booking.Reference).Msg("booking notification failed")
	}

	metrics.IncBookingRequest("created")
	writeJSON(w, http.StatusCreated, BookingResponse{Success: true, Reference: booking.Reference})
}

func validateBookingBody(req *BookingRequestBody) string {
	if !models.ValidDate(req.Date) {
		return "invalid date format; expected YYYY-MM-DD"
	}
	if !models.ValidTime(req.Time) {
		return "invalid time format; expected HH:MM"
	}
	if req.Name == "" {
		return "name is required"
	}
	if req.Phone == "" {
		return "phone is required"
	}
	if req.Address == "" {
		return "address is required"
	}
	return ""
}

func containsSlot(admissible []string, t string) bool {
	want, err := slots.ParseMinutes(t)
	if err != nil {
		return false
	}
	for _, s := range admissible {
		if m, err := slots.ParseMinutes(s); err == nil && m == want {
			return true
		}
	}
	return false
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" && !models.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	requests, err := s.db.ListBookingRequests(r.Context(), date)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list booking requests")
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": requests})
}

// handleBookingsExport streams an xlsx workbook of booking requests.
// GET /api/v1/bookings/export?date=YYYY-MM-DD (staff)
func (s *HTTPServer) handleBookingsExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_export")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if date != "" && !models.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteBookingWorkbook(r.Context(), s.db, date, w); err != nil {
		s.log.Error().Err(err).Msg("failed to export bookings")
	}
}

// StatusUpdateRequest is the request body for the status endpoint.
type StatusUpdateRequest struct {
	Status string `json:"status"` // pending, confirmed, cancelled, completed
}

// handleBookingStatus moves a request through its lifecycle.
// PATCH /api/v1/bookings/{reference}/status (staff)
func (s *HTTPServer) handleBookingStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_status")

	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	reference, tail, _ := strings.Cut(rest, "/")
	if reference == "" || tail != "status" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req StatusUpdateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.Status {
	case models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted:
	default:
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	if err := s.db.UpdateBookingRequestStatus(r.Context(), reference, req.Status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		s.log.Error().Err(err).Str("reference", reference).Msg("failed to update booking status")
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}

	s.log.Info().Str("reference", reference).Str("status", req.Status).Msg("booking status updated")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
