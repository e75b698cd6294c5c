package repository

import (
	"context"
	"errors"
	"fmt"

	"turista/internal/models"
)

// ReservationStore is the persistence boundary: an append-only, insertion-ordered log.
type ReservationStore interface {
	// Load returns every stored reservation in insertion order.
	Load(ctx context.Context) ([]models.Reservation, error)

	// Append durably adds one reservation. A nil error means the record is committed.
	Append(ctx context.Context, r *models.Reservation) error
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ErrDuplicateID is returned when a reservation id is already stored.
var ErrDuplicateID = errors.New("duplicate reservation id")

// PersistenceError wraps a failed read or write of the underlying store.
type PersistenceError struct {
	Op  string // "load" or "append"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err came from the store.
func IsPersistence(err error) bool {
	var perr *PersistenceError
	return errors.As(err, &perr)
}
