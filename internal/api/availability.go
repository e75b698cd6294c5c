package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"turista/internal/capacity"
	"turista/internal/models"
)

// AvailabilityResponse is the body returned by GET /api/availability.
type AvailabilityResponse struct {
	capacity.DayAvailability
	// NextAvailable is set when party_size was given: the day a booking would land on now.
	NextAvailable *models.Date `json:"next_available,omitempty"`
	Exhausted     bool         `json:"exhausted,omitempty"`
}

// handleAvailability reports remaining capacity for a date.
// GET /api/availability?date=YYYY-MM-DD[&party_size=N&vehicle_kind=car]
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date := s.service.Today()
	if raw := q.Get("date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		date = d
	}

	resp := AvailabilityResponse{DayAvailability: s.service.Availability(date)}

	if raw := q.Get("party_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "party_size must be a number")
			return
		}
		kind, err := models.ParseVehicleKind(q.Get("vehicle_kind"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		next, err := s.service.NextAvailable(date, size, kind.NeedsParking())
		var verr *models.ValidationError
		switch {
		case err == nil:
			resp.NextAvailable = &next
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
			return
		case errors.Is(err, capacity.ErrExhausted):
			resp.Exhausted = true
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleSummary returns per-day totals for operators.
// GET /api/summary
func (s *HTTPServer) handleSummary(w http.ResponseWriter, _ *http.Request) {
	limits := s.service.Limits()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days":              s.service.Summary(),
		"daily_visitor_cap": limits.DailyVisitorCap,
		"daily_parking_cap": limits.DailyParkingCap,
	})
}

// GET /api/config
func (s *HTTPServer) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"limits":        s.service.Limits(),
		"vehicle_kinds": models.VehicleKinds,
		"today":         s.service.Today(),
	})
}

// handleExport streams the reservation workbook.
// GET /api/export.xlsx
func (s *HTTPServer) handleExport(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := s.export.Write(&buf); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
