package models

import (
	"fmt"
	"strings"
	"time"
)

// VehicleKind determines whether a reservation consumes a parking slot.
type VehicleKind string

const (
	VehicleNone       VehicleKind = "none"
	VehicleCar        VehicleKind = "car"
	VehicleVan        VehicleKind = "van"
	VehicleMotorcycle VehicleKind = "motorcycle"
)

// VehicleKinds lists the accepted kinds in display order.
var VehicleKinds = []VehicleKind{VehicleNone, VehicleCar, VehicleVan, VehicleMotorcycle}

// ParseVehicleKind maps user input to a VehicleKind. Empty input means no vehicle.
func ParseVehicleKind(s string) (VehicleKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return VehicleNone, nil
	}
	for _, k := range VehicleKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown vehicle kind %q", s)
}

// NeedsParking reports whether the kind occupies a parking slot.
func (k VehicleKind) NeedsParking() bool {
	return k != "" && k != VehicleNone
}

// Reservation is an immutable visit booking.
type Reservation struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	RequestedDate Date        `json:"requested_date"`
	AssignedDate  Date        `json:"assigned_date"` // >= RequestedDate
	PartySize     int         `json:"party_size"`
	VehicleKind   VehicleKind `json:"vehicle_kind"`
	Plate         string      `json:"plate,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Moved reports whether the reservation rolled over past the requested day.
func (r *Reservation) Moved() bool {
	return r.AssignedDate != r.RequestedDate
}

// NeedsParking reports whether the reservation holds a parking slot.
func (r *Reservation) NeedsParking() bool {
	return r.VehicleKind.NeedsParking()
}
