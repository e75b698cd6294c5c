// Package qrcode renders the confirmation code handed to visitors.
package qrcode

import (
	"encoding/json"
	"fmt"

	"turista/internal/models"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered PNG edge length in pixels.
const DefaultSize = 180

// Payload is the scanned content. Field order is fixed by the struct and is
// part of the contract with whatever reads the codes at the gate.
type Payload struct {
	Reservation string             `json:"reservation"`
	Name        string             `json:"name"`
	Date        string             `json:"date"`
	People      int                `json:"people"`
	Vehicle     models.VehicleKind `json:"vehicle"`
}

// PayloadFor builds the payload for r. The date is the assigned one.
func PayloadFor(r *models.Reservation) Payload {
	return Payload{
		Reservation: r.ID,
		Name:        r.Name,
		Date:        r.AssignedDate.String(),
		People:      r.PartySize,
		Vehicle:     r.VehicleKind,
	}
}

// Encode serializes p deterministically.
func (p Payload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Render returns a PNG of the QR code for payload.
func Render(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := goqrcode.Encode(payload, goqrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}

// RenderReservation encodes and renders the code for r.
func RenderReservation(r *models.Reservation, size int) ([]byte, error) {
	payload, err := PayloadFor(r).Encode()
	if err != nil {
		return nil, err
	}
	return Render(payload, size)
}
