package capacity

import (
	"sort"

	"turista/internal/models"
)

// DaySummary is a per-date rollup for operators.
type DaySummary struct {
	Date             models.Date `json:"date"`
	TotalPeople      int         `json:"total_people"`
	ReservationCount int         `json:"reservation_count"`
	ParkingUsed      int         `json:"parking_used"`
}

// Summarize groups records by assigned date, ascending. It keeps no state between calls.
func Summarize(records []models.Reservation) []DaySummary {
	byDate := make(map[models.Date]*DaySummary)
	for i := range records {
		r := &records[i]
		row, ok := byDate[r.AssignedDate]
		if !ok {
			row = &DaySummary{Date: r.AssignedDate}
			byDate[r.AssignedDate] = row
		}
		row.TotalPeople += r.PartySize
		row.ReservationCount++
		if r.NeedsParking() {
			row.ParkingUsed++
		}
	}

	out := make([]DaySummary, 0, len(byDate))
	for _, row := range byDate {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// SortByAssignedDate returns a copy of records ordered for display.
// Ties keep insertion order.
func SortByAssignedDate(records []models.Reservation) []models.Reservation {
	out := make([]models.Reservation, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AssignedDate.Before(out[j].AssignedDate)
	})
	return out
}
