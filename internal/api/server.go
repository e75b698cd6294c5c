package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"turista/internal/capacity"
	"turista/internal/models"
	"turista/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ReservationService is what the HTTP layer needs from the booking core.
type ReservationService interface {
	Reserve(ctx context.Context, req *models.ReservationRequest) (*service.Confirmation, error)
	Reservations() []models.Reservation
	Get(id string) (models.Reservation, bool)
	Availability(date models.Date) capacity.DayAvailability
	NextAvailable(date models.Date, partySize int, needsParking bool) (models.Date, error)
	Summary() []capacity.DaySummary
	Limits() capacity.Limits
	Today() models.Date
}

// WorkbookWriter renders the reservation workbook.
type WorkbookWriter interface {
	Write(out io.Writer) error
}

// Config holds the HTTP listener settings.
type Config struct {
	Port           int
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// HTTPServer serves the public booking API.
type HTTPServer struct {
	service ReservationService
	export  WorkbookWriter
	logger  *zerolog.Logger
	server  *http.Server
}

// NewHTTPServer builds the router. export may be nil, which disables the workbook route.
func NewHTTPServer(cfg Config, svc ReservationService, export WorkbookWriter, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		service: svc,
		export:  export,
		logger:  logger,
	}

	r := mux.NewRouter()
	r.Use(s.requestLogger)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/reservations", newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).
		Middleware(http.HandlerFunc(s.handleCreateReservation))).Methods(http.MethodPost)
	api.HandleFunc("/reservations", s.handleListReservations).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}", s.handleGetReservation).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}/qr.png", s.handleReservationQR).Methods(http.MethodGet)
	api.HandleFunc("/availability", s.handleAvailability).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	if export != nil {
		api.HandleFunc("/export.xlsx", s.handleExport).Methods(http.MethodGet)
	}

	var handler http.Handler = r
	handler = handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins(cfg.AllowedOrigins)),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger}),
		handlers.PrintRecoveryStack(false),
	)(handler)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Handler exposes the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type recoveryLogger struct {
	logger *zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error().Str("panic", fmt.Sprint(v...)).Msg("recovered from panic in HTTP handler")
}
