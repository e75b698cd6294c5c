package models

import (
	"strings"
)

// ValidationError is returned for caller input that can be fixed by re-prompting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ReservationRequest is the caller-facing request shape.
type ReservationRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"` // Format: YYYY-MM-DD
	PartySize   int    `json:"party_size"`
	VehicleKind string `json:"vehicle_kind,omitempty"`
	Plate       string `json:"plate,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// NormalizedRequest is a request that passed validation.
type NormalizedRequest struct {
	Name          string
	RequestedDate Date
	PartySize     int
	VehicleKind   VehicleKind
	Plate         string
	Notes         string
}

// RequestRules bounds what Normalize accepts.
type RequestRules struct {
	MaxPartySize int
	// Today is the earliest accepted date when RejectPast is set.
	Today      Date
	RejectPast bool
}

// Normalize trims and validates the request.
func (r *ReservationRequest) Normalize(rules RequestRules) (*NormalizedRequest, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}

	if strings.TrimSpace(r.Date) == "" {
		return nil, &ValidationError{Field: "date", Message: "is required"}
	}
	date, err := ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	if rules.RejectPast && date.Before(rules.Today) {
		return nil, &ValidationError{Field: "date", Message: "must not be in the past"}
	}

	if r.PartySize < 1 {
		return nil, &ValidationError{Field: "party_size", Message: "must be at least 1"}
	}
	if rules.MaxPartySize > 0 && r.PartySize > rules.MaxPartySize {
		return nil, &ValidationError{Field: "party_size", Message: "exceeds the per-reservation maximum"}
	}

	kind, err := ParseVehicleKind(r.VehicleKind)
	if err != nil {
		return nil, &ValidationError{Field: "vehicle_kind", Message: err.Error()}
	}

	plate := strings.TrimSpace(r.Plate)
	if !kind.NeedsParking() {
		plate = ""
	}

	return &NormalizedRequest{
		Name:          name,
		RequestedDate: date,
		PartySize:     r.PartySize,
		VehicleKind:   kind,
		Plate:         plate,
		Notes:         strings.TrimSpace(r.Notes),
	}, nil
}
