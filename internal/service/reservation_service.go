package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"turista/internal/capacity"
	"turista/internal/events"
	"turista/internal/metrics"
	"turista/internal/models"
	"turista/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventPublisher is the subset of the event bus the service needs.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Options tune a ReservationService. Zero values fall back to defaults.
type Options struct {
	Limits          capacity.Limits
	RejectPastDates bool
	Location        *time.Location   // calendar used for "today"; time.Local when nil
	Now             func() time.Time // clock; time.Now when nil
	NewID           func() string
}

// Confirmation is returned after a successful reservation.
type Confirmation struct {
	Reservation       models.Reservation `json:"reservation"`
	Moved             bool               `json:"moved"`
	VisitorsRemaining int                `json:"visitors_remaining"`
	ParkingRemaining  int                `json:"parking_remaining"`
}

// ExhaustedEvent is published when no day in the horizon could take a request.
type ExhaustedEvent struct {
	RequestedDate models.Date `json:"requested_date"`
	PartySize     int         `json:"party_size"`
	NeedsParking  bool        `json:"needs_parking"`
	HorizonDays   int         `json:"horizon_days"`
}

// ReservationService owns the in-memory reservation set and the store behind it.
//
// Allocation and commit run under one mutex, so requests handled by this
// process never double-book a day. Another process writing to the same store
// is not coordinated with: both may pick the same last slot.
type ReservationService struct {
	store  repository.ReservationStore
	events EventPublisher
	opts   Options
	logger *zerolog.Logger

	mu       sync.RWMutex
	records  []models.Reservation
	degraded bool
}

// NewReservationService loads the existing reservations from store. A load
// failure is logged and the service starts with an empty set.
func NewReservationService(
	ctx context.Context,
	store repository.ReservationStore,
	publisher EventPublisher,
	opts Options,
	logger *zerolog.Logger,
) *ReservationService {
	if opts.Limits == (capacity.Limits{}) {
		opts.Limits = capacity.DefaultLimits()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = newReservationID
	}

	s := &ReservationService{
		store:  store,
		events: publisher,
		opts:   opts,
		logger: logger,
	}

	records, err := store.Load(ctx)
	if err != nil {
		s.degraded = true
		logger.Warn().Err(err).Msg("failed to load reservations; starting with an empty set")
		return s
	}
	s.records = records
	logger.Info().Int("count", len(records)).Msg("reservations loaded")
	return s
}

func newReservationID() string {
	return "RES-" + uuid.Must(uuid.NewV7()).String()
}

// Limits returns the caps in force.
func (s *ReservationService) Limits() capacity.Limits {
	return s.opts.Limits
}

// Degraded reports whether the initial load failed.
func (s *ReservationService) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Today returns the current calendar day in the service location.
func (s *ReservationService) Today() models.Date {
	return models.Today(s.opts.Now(), s.opts.Location)
}

// Reserve validates req, finds the first feasible day and commits a reservation for it.
// Event handlers run after the service lock is released.
func (s *ReservationService) Reserve(ctx context.Context, req *models.ReservationRequest) (*Confirmation, error) {
	if req == nil {
		return nil, &models.ValidationError{Message: "request is required"}
	}
	normalized, err := req.Normalize(models.RequestRules{
		MaxPartySize: s.opts.Limits.MaxPartySize,
		Today:        s.Today(),
		RejectPast:   s.opts.RejectPastDates,
	})
	if err != nil {
		metrics.IncReservationRejected(metrics.ReasonValidation)
		return nil, err
	}

	conf, pending, err := s.reserveLocked(ctx, normalized)
	s.publish(pending)
	return conf, err
}

func (s *ReservationService) reserveLocked(ctx context.Context, req *models.NormalizedRequest) (*Confirmation, *pendingEvent, error) {
	needsParking := req.VehicleKind.NeedsParking()

	s.mu.Lock()
	defer s.mu.Unlock()

	assigned, err := capacity.NewAccessor(s.records, s.opts.Limits).
		Allocate(req.RequestedDate, req.PartySize, needsParking)
	if err != nil {
		if !errors.Is(err, capacity.ErrExhausted) {
			metrics.IncReservationRejected(metrics.ReasonValidation)
			return nil, nil, err
		}
		metrics.IncReservationRejected(metrics.ReasonExhausted)
		s.logger.Warn().
			Str("requested_date", req.RequestedDate.String()).
			Int("party_size", req.PartySize).
			Bool("needs_parking", needsParking).
			Msg("no availability within horizon")
		return nil, &pendingEvent{eventType: events.ReservationExhausted, payload: ExhaustedEvent{
			RequestedDate: req.RequestedDate,
			PartySize:     req.PartySize,
			NeedsParking:  needsParking,
			HorizonDays:   s.opts.Limits.HorizonDays,
		}}, err
	}

	r, err := s.commitLocked(ctx, req, assigned)
	if err != nil {
		return nil, nil, err
	}

	day := capacity.NewAccessor(s.records, s.opts.Limits).Day(assigned)
	return &Confirmation{
		Reservation:       *r,
		Moved:             r.Moved(),
		VisitorsRemaining: day.VisitorsRemaining,
		ParkingRemaining:  day.ParkingRemaining,
	}, createdEvent(r), nil
}

// Commit persists a reservation for an already allocated date. Capacity is not re-checked.
func (s *ReservationService) Commit(ctx context.Context, req *models.NormalizedRequest, assigned models.Date) (*models.Reservation, error) {
	if req == nil {
		return nil, &models.ValidationError{Message: "request is required"}
	}
	if assigned.Before(req.RequestedDate) {
		return nil, &models.ValidationError{Field: "assigned_date", Message: "must not be before the requested date"}
	}

	s.mu.Lock()
	r, err := s.commitLocked(ctx, req, assigned)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.publish(createdEvent(r))
	return r, nil
}

func (s *ReservationService) commitLocked(ctx context.Context, req *models.NormalizedRequest, assigned models.Date) (*models.Reservation, error) {
	r := &models.Reservation{
		ID:            s.opts.NewID(),
		Name:          req.Name,
		RequestedDate: req.RequestedDate,
		AssignedDate:  assigned,
		PartySize:     req.PartySize,
		VehicleKind:   req.VehicleKind,
		Plate:         req.Plate,
		Notes:         req.Notes,
		CreatedAt:     s.opts.Now().UTC(),
	}

	if err := s.store.Append(ctx, r); err != nil {
		metrics.IncReservationRejected(metrics.ReasonPersistence)
		s.logger.Error().Err(err).Str("id", r.ID).Msg("failed to persist reservation")
		return nil, err
	}
	s.records = append(s.records, *r)

	metrics.IncReservationCreated(r.Moved(), r.NeedsParking(), r.PartySize)
	s.logger.Info().
		Str("id", r.ID).
		Str("requested_date", r.RequestedDate.String()).
		Str("assigned_date", r.AssignedDate.String()).
		Int("party_size", r.PartySize).
		Str("vehicle", string(r.VehicleKind)).
		Bool("moved", r.Moved()).
		Msg("reservation committed")
	return r, nil
}

// pendingEvent is an event recorded under the lock and published after it.
type pendingEvent struct {
	eventType string
	payload   interface{}
}

func createdEvent(r *models.Reservation) *pendingEvent {
	cp := *r
	return &pendingEvent{eventType: events.ReservationCreated, payload: &cp}
}

func (s *ReservationService) publish(e *pendingEvent) {
	if e == nil || s.events == nil {
		return
	}
	if err := s.events.PublishJSON(e.eventType, e.payload); err != nil {
		s.logger.Error().Err(err).Str("event", e.eventType).Msg("failed to publish event")
	}
}

// Availability reports capacity for date against the current set.
func (s *ReservationService) Availability(date models.Date) capacity.DayAvailability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capacity.NewAccessor(s.records, s.opts.Limits).Day(date)
}

// NextAvailable previews the date a request would get without committing anything.
func (s *ReservationService) NextAvailable(date models.Date, partySize int, needsParking bool) (models.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capacity.NewAccessor(s.records, s.opts.Limits).Allocate(date, partySize, needsParking)
}

// Summary returns per-day rollups recomputed from every record.
func (s *ReservationService) Summary() []capacity.DaySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capacity.Summarize(s.records)
}

// Snapshot returns a copy of the records in insertion order.
func (s *ReservationService) Snapshot() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Reservation, len(s.records))
	copy(out, s.records)
	return out
}

// Reservations returns the records ordered by assigned date for display.
func (s *ReservationService) Reservations() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capacity.SortByAssignedDate(s.records)
}

// Get looks a reservation up by id.
func (s *ReservationService) Get(id string) (models.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].ID == id {
			return s.records[i], true
		}
	}
	return models.Reservation{}, false
}
