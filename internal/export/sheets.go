package export

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"montafix/internal/models"
)

// SheetsService mirrors booking requests into a Google spreadsheet.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *zerolog.Logger

	// rowCache maps booking reference to its spreadsheet row number.
	rowCache map[string]int
	cacheMu  sync.RWMutex
}

// NewSheetsService creates a service authenticated with a service account
// credentials file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
		rowCache:      make(map[string]int),
	}, nil
}

var sheetHeader = []interface{}{
	"Reference", "Date", "Time", "Customer", "Phone", "Email",
	"Address", "Furniture", "Cost", "Duration (h)", "Status", "Created",
}

func bookingRowValues(req *models.BookingRequest) []interface{} {
	return []interface{}{
		req.Reference,
		req.Date,
		req.Time,
		req.Name,
		req.Phone,
		req.Email,
		req.Address,
		req.FurnitureType,
		req.Cost,
		req.DurationHours,
		req.Status,
		req.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (s *SheetsService) filterActive(requests []models.BookingRequest) []models.BookingRequest {
	active := make([]models.BookingRequest, 0, len(requests))
	for i := range requests {
		if requests[i].IsActive() {
			active = append(active, requests[i])
		}
	}
	return active
}

// SyncBookingRequests rewrites the sheet with the current set of active
// booking requests. Cancelled requests are excluded.
func (s *SheetsService) SyncBookingRequests(ctx context.Context, requests []models.BookingRequest) error {
	active := s.filterActive(requests)

	values := make([][]interface{}, 0, len(active)+1)
	values = append(values, sheetHeader)
	for i := range active {
		values = append(values, bookingRowValues(&active[i]))
	}

	clearRange := fmt.Sprintf("%s!A:L", s.sheetName)
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	writeRange := fmt.Sprintf("%s!A1", s.sheetName)
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, writeRange, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	s.ClearCache()
	// Header occupies row 1.
	for i := range active {
		s.setCachedRow(active[i].Reference, i+2)
	}

	s.logger.Info().Int("count", len(active)).Msg("Synced booking requests to Google Sheets")
	return nil
}

// AppendBookingRequest appends a single request to the sheet and caches
// its row number.
func (s *SheetsService) AppendBookingRequest(ctx context.Context, req *models.BookingRequest) error {
	appendRange := fmt.Sprintf("%s!A:L", s.sheetName)
	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, appendRange, &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(req)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append booking request: %w", err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		if row, ok := parseRowFromRange(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(req.Reference, row)
		}
	}
	return nil
}

// parseRowFromRange extracts the starting row from a range like
// "Bookings!A5:L5".
func parseRowFromRange(rng string) (int, bool) {
	row := 0
	found := false
	for i := 0; i < len(rng); i++ {
		c := rng[i]
		if c >= '0' && c <= '9' {
			row = row*10 + int(c-'0')
			found = true
		} else if found {
			break
		}
	}
	return row, found
}

func (s *SheetsService) getCachedRow(reference string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[reference]
	return row, ok
}

func (s *SheetsService) setCachedRow(reference string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[reference] = row
}

func (s *SheetsService) deleteCachedRow(reference string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, reference)
}

// ClearCache drops all cached row positions.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)
}
