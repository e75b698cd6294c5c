package capacity

import (
	"turista/internal/models"
)

const (
	DefaultDailyVisitorCap = 80
	DefaultDailyParkingCap = 30
	DefaultHorizonDays     = 365
	DefaultMaxPartySize    = 20
)

// Limits are the operational caps the allocator works against.
type Limits struct {
	DailyVisitorCap int `json:"daily_visitor_cap"`
	DailyParkingCap int `json:"daily_parking_cap"`
	HorizonDays     int `json:"horizon_days"`
	MaxPartySize    int `json:"max_party_size"`
}

// DefaultLimits returns the stock caps.
func DefaultLimits() Limits {
	return Limits{
		DailyVisitorCap: DefaultDailyVisitorCap,
		DailyParkingCap: DefaultDailyParkingCap,
		HorizonDays:     DefaultHorizonDays,
		MaxPartySize:    DefaultMaxPartySize,
	}
}

// DayAvailability is the capacity picture for one date.
type DayAvailability struct {
	Date              models.Date `json:"date"`
	VisitorsUsed      int         `json:"visitors_used"`
	VisitorsRemaining int         `json:"visitors_remaining"`
	ParkingUsed       int         `json:"parking_used"`
	ParkingRemaining  int         `json:"parking_remaining"`
}

// Accessor derives capacity from a fixed snapshot of reservations.
// Every figure is recomputed from the raw records on each call.
type Accessor struct {
	records []models.Reservation
	limits  Limits
}

// NewAccessor wraps records. The slice must not be mutated while the accessor is in use.
func NewAccessor(records []models.Reservation, limits Limits) *Accessor {
	return &Accessor{records: records, limits: limits}
}

// Limits returns the caps the accessor was built with.
func (a *Accessor) Limits() Limits {
	return a.limits
}

// VisitorsUsed sums party sizes assigned to date.
func (a *Accessor) VisitorsUsed(date models.Date) int {
	total := 0
	for i := range a.records {
		if a.records[i].AssignedDate == date {
			total += a.records[i].PartySize
		}
	}
	return total
}

// ParkingUsed counts vehicle-bearing reservations assigned to date.
func (a *Accessor) ParkingUsed(date models.Date) int {
	count := 0
	for i := range a.records {
		if a.records[i].AssignedDate == date && a.records[i].NeedsParking() {
			count++
		}
	}
	return count
}

// VisitorCapacityRemaining is the daily visitor cap minus usage, never below zero.
// Usage can exceed the cap only if the cap was lowered after bookings were taken.
func (a *Accessor) VisitorCapacityRemaining(date models.Date) int {
	return floor(a.limits.DailyVisitorCap - a.VisitorsUsed(date))
}

// ParkingCapacityRemaining is the daily parking cap minus usage, never below zero.
func (a *Accessor) ParkingCapacityRemaining(date models.Date) int {
	return floor(a.limits.DailyParkingCap - a.ParkingUsed(date))
}

// Day collects all four figures for date.
func (a *Accessor) Day(date models.Date) DayAvailability {
	return DayAvailability{
		Date:              date,
		VisitorsUsed:      a.VisitorsUsed(date),
		VisitorsRemaining: a.VisitorCapacityRemaining(date),
		ParkingUsed:       a.ParkingUsed(date),
		ParkingRemaining:  a.ParkingCapacityRemaining(date),
	}
}

func floor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
