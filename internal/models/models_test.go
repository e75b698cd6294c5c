package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_Helpers(t *testing.T) {
	t.Run("ParseDate", func(t *testing.T) {
		d, err := ParseDate("2024-12-05")
		require.NoError(t, err)
		assert.Equal(t, Date{Year: 2024, Month: time.December, Day: 5}, d)
		assert.Equal(t, "2024-12-05", d.String())

		_, err = ParseDate("05-12-2024")
		assert.Error(t, err)
		_, err = ParseDate("2024-02-30")
		assert.Error(t, err)
	})

	t.Run("AddDays", func(t *testing.T) {
		d, _ := ParseDate("2024-12-31")
		assert.Equal(t, "2025-01-01", d.AddDays(1).String())

		leap, _ := ParseDate("2024-02-28")
		assert.Equal(t, "2024-02-29", leap.AddDays(1).String())
		assert.Equal(t, "2024-03-01", leap.AddDays(2).String())
		assert.Equal(t, "2025-02-27", leap.AddDays(365).String())
	})

	t.Run("Compare", func(t *testing.T) {
		a, _ := ParseDate("2024-06-01")
		b, _ := ParseDate("2024-06-02")
		assert.True(t, a.Before(b))
		assert.True(t, b.After(a))
		assert.Equal(t, 0, a.Compare(a))
		assert.Equal(t, -1, a.Compare(b))
	})

	t.Run("TodayNearMidnight", func(t *testing.T) {
		// 2024-12-04 23:30 UTC is already Dec 5 in UTC+13.
		instant := time.Date(2024, 12, 4, 23, 30, 0, 0, time.UTC)
		tonga := time.FixedZone("UTC+13", 13*60*60)
		assert.Equal(t, "2024-12-05", Today(instant, tonga).String())
		assert.Equal(t, "2024-12-04", Today(instant, time.UTC).String())
	})

	t.Run("JSONAndSQL", func(t *testing.T) {
		d, _ := ParseDate("2024-07-04")
		data, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, `"2024-07-04"`, string(data))

		var back Date
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, d, back)

		v, err := d.Value()
		require.NoError(t, err)
		assert.Equal(t, "2024-07-04", v)

		var scanned Date
		require.NoError(t, scanned.Scan([]byte("2024-07-04")))
		assert.Equal(t, d, scanned)
		assert.Error(t, scanned.Scan(42))
	})
}

func TestParseVehicleKind(t *testing.T) {
	k, err := ParseVehicleKind("")
	require.NoError(t, err)
	assert.Equal(t, VehicleNone, k)
	assert.False(t, k.NeedsParking())

	k, err = ParseVehicleKind(" Van ")
	require.NoError(t, err)
	assert.Equal(t, VehicleVan, k)
	assert.True(t, k.NeedsParking())

	_, err = ParseVehicleKind("bus")
	assert.Error(t, err)
}

func TestReservationRequest_Normalize(t *testing.T) {
	today, _ := ParseDate("2024-06-01")
	rules := RequestRules{MaxPartySize: 20, Today: today, RejectPast: true}

	tests := []struct {
		name      string
		req       ReservationRequest
		wantField string
	}{
		{name: "missing name", req: ReservationRequest{Name: "  ", Date: "2024-06-01", PartySize: 1}, wantField: "name"},
		{name: "missing date", req: ReservationRequest{Name: "Ana", PartySize: 1}, wantField: "date"},
		{name: "bad date", req: ReservationRequest{Name: "Ana", Date: "06/01/2024", PartySize: 1}, wantField: "date"},
		{name: "past date", req: ReservationRequest{Name: "Ana", Date: "2024-05-31", PartySize: 1}, wantField: "date"},
		{name: "zero party", req: ReservationRequest{Name: "Ana", Date: "2024-06-01", PartySize: 0}, wantField: "party_size"},
		{name: "party over max", req: ReservationRequest{Name: "Ana", Date: "2024-06-01", PartySize: 21}, wantField: "party_size"},
		{name: "unknown vehicle", req: ReservationRequest{Name: "Ana", Date: "2024-06-01", PartySize: 2, VehicleKind: "truck"}, wantField: "vehicle_kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Normalize(rules)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}

	t.Run("trims and drops plate without vehicle", func(t *testing.T) {
		req := ReservationRequest{Name: " Ana ", Date: "2024-06-03", PartySize: 20, Plate: "AB123", Notes: " hi "}
		n, err := req.Normalize(rules)
		require.NoError(t, err)
		assert.Equal(t, "Ana", n.Name)
		assert.Equal(t, VehicleNone, n.VehicleKind)
		assert.Empty(t, n.Plate)
		assert.Equal(t, "hi", n.Notes)
	})

	t.Run("keeps plate with vehicle", func(t *testing.T) {
		req := ReservationRequest{Name: "Ana", Date: "2024-06-03", PartySize: 1, VehicleKind: "car", Plate: " AB123 "}
		n, err := req.Normalize(rules)
		require.NoError(t, err)
		assert.Equal(t, VehicleCar, n.VehicleKind)
		assert.Equal(t, "AB123", n.Plate)
	})

	t.Run("past allowed when not rejected", func(t *testing.T) {
		req := ReservationRequest{Name: "Ana", Date: "2020-01-01", PartySize: 1}
		_, err := req.Normalize(RequestRules{MaxPartySize: 20})
		assert.NoError(t, err)
	})
}

func TestReservation_Moved(t *testing.T) {
	d1, _ := ParseDate("2024-06-01")
	r := Reservation{RequestedDate: d1, AssignedDate: d1}
	assert.False(t, r.Moved())
	r.AssignedDate = d1.AddDays(1)
	assert.True(t, r.Moved())
}
