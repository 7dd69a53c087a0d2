package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"montafix/internal/metrics"
	"montafix/internal/models"
	"montafix/internal/pricing"
	"montafix/internal/slots"
	"montafix/internal/wizard"
)

// SessionView is the wire representation of a wizard session.
type SessionView struct {
	Token string          `json:"token"`
	State wizard.State    `json:"state"`
	Data  wizard.FormData `json:"data"`
	Quote *pricing.Quote  `json:"quote,omitempty"`
}

// AdvanceRequest is the request body for advancing the wizard. Data fields
// are merged into the session only if the transition is accepted.
type AdvanceRequest struct {
	State wizard.State `json:"state"`
	Data  *FormPatch   `json:"data,omitempty"`
}

// FormPatch is a partial update of the wizard answers. Boolean and numeric
// fields are pointers so that an omitted answer and an explicit revision to
// false or zero are distinct; a visitor who steps back can retract a mirror
// or disassembly answer, not only assert one. Date is deliberately absent:
// date changes go through the date endpoint, which clears the selected time.
type FormPatch struct {
	FurnitureType    string       `json:"furniture_type,omitempty"` // new, used
	FurnitureValue   *float64     `json:"furniture_value,omitempty"`
	HasMirror        *bool        `json:"has_mirror,omitempty"`
	Size             pricing.Size `json:"size,omitempty"`
	NeedsDisassembly *bool        `json:"needs_disassembly,omitempty"`
	NumberOfPieces   *int         `json:"number_of_pieces,omitempty"`

	Time string `json:"time,omitempty"` // HH:MM

	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// apply copies the supplied fields onto the answers on record.
func (p *FormPatch) apply(dst *wizard.FormData) {
	if p.FurnitureType != "" {
		dst.FurnitureType = p.FurnitureType
	}
	if p.FurnitureValue != nil {
		dst.FurnitureValue = *p.FurnitureValue
	}
	if p.HasMirror != nil {
		dst.HasMirror = *p.HasMirror
	}
	if p.Size != "" {
		dst.Size = p.Size
	}
	if p.NeedsDisassembly != nil {
		dst.NeedsDisassembly = *p.NeedsDisassembly
	}
	if p.NumberOfPieces != nil {
		dst.NumberOfPieces = *p.NumberOfPieces
	}
	if p.Time != "" {
		dst.Time = p.Time
	}
	if p.Name != "" {
		dst.Name = p.Name
	}
	if p.Phone != "" {
		dst.Phone = p.Phone
	}
	if p.Email != "" {
		dst.Email = p.Email
	}
	if p.Address != "" {
		dst.Address = p.Address
	}
}

// DateSelectRequest is the request body for the date selection endpoint.
type DateSelectRequest struct {
	Date string `json:"date"` // Format: YYYY-MM-DD
}

// DateSelectResponse carries the updated session plus the start times that
// fit the quoted job on the chosen date.
type DateSelectResponse struct {
	SessionView
	BookableTimes []string `json:"bookable_times"`
}

func sessionView(session *wizard.Session) SessionView {
	return SessionView{
		Token: session.Token,
		State: session.GetState(),
		Data:  session.Snapshot(),
		Quote: session.GetQuote(),
	}
}

// handleSessions starts a wizard session.
// POST /api/v1/sessions
func (s *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("sessions")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	session := s.sessions.Create()
	s.log.Debug().Str("token", session.Token).Msg("wizard session started")
	writeJSON(w, http.StatusCreated, sessionView(session))
}

// handleSessionByToken routes /api/v1/sessions/{token}[/action].
func (s *HTTPServer) handleSessionByToken(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("session")

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	token, action, _ := strings.Cut(rest, "/")
	if token == "" {
		writeError(w, http.StatusBadRequest, "session token is required")
		return
	}

	session := s.sessions.Get(token)
	if session == nil {
		writeError(w, http.StatusNotFound, "session not found or expired")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, sessionView(session))
	case action == "" && r.Method == http.MethodDelete:
		s.sessions.Delete(token)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case action == "advance" && r.Method == http.MethodPost:
		s.advanceSession(w, r, session)
	case action == "date" && r.Method == http.MethodPost:
		s.selectSessionDate(w, r, session)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) advanceSession(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	var req AdvanceRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Stage the merged answers and, entering the budget step, the quote
	// recomputed from them, never from client-supplied numbers. Nothing is
	// written back until the transition is accepted, so a rejected advance
	// leaves the session exactly as it was.
	staged := session.Snapshot()
	if req.Data != nil {
		req.Data.apply(&staged)
	}

	var quote *pricing.Quote
	if req.State == wizard.StateBudgetDisplay {
		var (
			q   pricing.Quote
			err error
		)
		switch staged.FurnitureType {
		case "new":
			q, err = pricing.EstimateNew(staged.FurnitureValue, staged.HasMirror)
		case "used":
			q, err = pricing.EstimateUsed(staged.Size, staged.NeedsDisassembly, staged.NumberOfPieces)
		default:
			writeError(w, http.StatusBadRequest, "furniture_type must be set before the budget step")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		quote = &q
	}

	ok := session.TransitionTo(s.fsm, req.State, func(data *wizard.FormData) {
		*data = staged
	})
	if !ok {
		writeError(w, http.StatusConflict, "invalid wizard transition")
		return
	}
	if quote != nil {
		session.SetQuote(*quote)
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

func (s *HTTPServer) selectSessionDate(w http.ResponseWriter, r *http.Request, session *wizard.Session) {
	var req DateSelectRequest
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

	session.SelectDate(req.Date)

	resp := DateSelectResponse{SessionView: sessionView(session), BookableTimes: []string{}}
	if quote := session.GetQuote(); quote != nil {
		calendar, err := s.calendar.GetCalendar(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("failed to load calendar")
			writeError(w, http.StatusInternalServerError, "failed to load availability")
			return
		}
		times, err := slots.Resolve(calendar, req.Date, quote.DurationHours)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.BookableTimes = times
	}
	writeJSON(w, http.StatusOK, resp)
}
