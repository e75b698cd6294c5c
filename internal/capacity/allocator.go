package capacity

import (
	"errors"
	"fmt"

	"turista/internal/models"
)

// ErrExhausted means no date inside the horizon can take the request.
var ErrExhausted = errors.New("no availability within the search horizon")

// Fits reports whether date can take partySize more visitors and, if asked, one more vehicle.
func (a *Accessor) Fits(date models.Date, partySize int, needsParking bool) bool {
	if a.VisitorCapacityRemaining(date) < partySize {
		return false
	}
	return !needsParking || a.ParkingCapacityRemaining(date) > 0
}

// Allocate returns the earliest date on or after requested that fits the request.
// The scan covers HorizonDays consecutive days starting at requested, requested included.
// Nothing is reserved: the result is only valid against the snapshot it was computed from.
func (a *Accessor) Allocate(requested models.Date, partySize int, needsParking bool) (models.Date, error) {
	if partySize < 1 {
		return models.Date{}, &models.ValidationError{Field: "party_size", Message: "must be at least 1"}
	}
	if a.limits.MaxPartySize > 0 && partySize > a.limits.MaxPartySize {
		return models.Date{}, &models.ValidationError{Field: "party_size", Message: "exceeds the per-reservation maximum"}
	}

	horizon := a.limits.HorizonDays
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}

	cursor := requested
	for i := 0; i < horizon; i++ {
		if a.Fits(cursor, partySize, needsParking) {
			return cursor, nil
		}
		cursor = cursor.AddDays(1)
	}
	return models.Date{}, fmt.Errorf("%w: %d days from %s", ErrExhausted, horizon, requested)
}
