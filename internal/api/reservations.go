package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"turista/internal/capacity"
	"turista/internal/models"
	"turista/internal/qrcode"
	"turista/internal/repository"
	"turista/internal/service"

	"github.com/gorilla/mux"
)

const maxRequestBody = 64 << 10

// ReservationResponse is the body returned by POST /api/reservations.
type ReservationResponse struct {
	Reservation       models.Reservation `json:"reservation"`
	Moved             bool               `json:"moved"`
	VisitorsRemaining int                `json:"visitors_remaining"`
	ParkingRemaining  int                `json:"parking_remaining"`
	Message           string             `json:"message"`
	ParkingMessage    string             `json:"parking_message"`
	QRCodeURL         string             `json:"qr_code_url"`
}

// handleCreateReservation books a visit on the first day that fits.
// POST /api/reservations
func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req models.ReservationRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conf, err := s.service.Reserve(r.Context(), &req)
	if err != nil {
		s.writeReserveError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newReservationResponse(conf))
}

func (s *HTTPServer) writeReserveError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, capacity.ErrExhausted):
		writeError(w, http.StatusConflict, "No available dates within the next year.")
	case repository.IsPersistence(err):
		writeError(w, http.StatusInternalServerError, "reservation could not be saved; please try again")
	default:
		s.logger.Error().Err(err).Msg("reserve failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func newReservationResponse(c *service.Confirmation) ReservationResponse {
	res := c.Reservation
	resp := ReservationResponse{
		Reservation:       res,
		Moved:             c.Moved,
		VisitorsRemaining: c.VisitorsRemaining,
		ParkingRemaining:  c.ParkingRemaining,
		QRCodeURL:         fmt.Sprintf("/api/reservations/%s/qr.png", res.ID),
	}

	if c.Moved {
		resp.Message = fmt.Sprintf("We moved you from %s to %s to keep within daily capacity.",
			res.RequestedDate, res.AssignedDate)
	} else {
		resp.Message = fmt.Sprintf("You're confirmed for %s.", res.AssignedDate)
	}

	if res.NeedsParking() {
		resp.ParkingMessage = fmt.Sprintf("Free parking reserved. Slots left for %s: %d",
			res.AssignedDate, c.ParkingRemaining)
	} else {
		resp.ParkingMessage = "No vehicle noted. Free parking remains available for those who book with a vehicle."
	}
	return resp
}

// handleListReservations returns every reservation ordered by assigned date.
// GET /api/reservations
func (s *HTTPServer) handleListReservations(w http.ResponseWriter, _ *http.Request) {
	list := s.service.Reservations()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": list,
		"count":        len(list),
	})
}

// GET /api/reservations/{id}
func (s *HTTPServer) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	res, ok := s.service.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "reservation not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleReservationQR renders the check-in QR code as PNG.
// GET /api/reservations/{id}/qr.png?size=N
func (s *HTTPServer) handleReservationQR(w http.ResponseWriter, r *http.Request) {
	res, ok := s.service.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "reservation not found")
		return
	}

	size := qrcode.DefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 1024 {
			writeError(w, http.StatusBadRequest, "size must be between 64 and 1024")
			return
		}
		size = n
	}

	png, err := qrcode.RenderReservation(&res, size)
	if err != nil {
		s.logger.Error().Err(err).Str("id", res.ID).Msg("qr render failed")
		writeError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
