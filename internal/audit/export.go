package audit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"turista/internal/capacity"
	"turista/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	SummarySheet      = "Summary"
	ReservationsSheet = "Reservations"
)

var (
	summaryColumns     = []string{"Date", "People", "Reservations", "Parking used", "Visitors left", "Parking left"}
	reservationColumns = []string{"ID", "Name", "Assigned date", "Requested date", "People", "Vehicle", "Plate", "Notes", "Created at"}
)

// Source supplies the data for an export.
type Source interface {
	Snapshot() []models.Reservation
	Limits() capacity.Limits
}

// Notifier delivers a finished workbook to operators.
type Notifier interface {
	SendDocument(ctx context.Context, filename string, data io.Reader, caption string) error
}

// WriteWorkbook renders the per-day summary and the reservation list into w.
func WriteWorkbook(w ExcelWriter, records []models.Reservation, limits capacity.Limits) error {
	acc := capacity.NewAccessor(records, limits)

	if err := w.AddSheet(SummarySheet); err != nil {
		return err
	}
	if err := w.WriteHeader(summaryColumns); err != nil {
		return err
	}
	for _, day := range capacity.Summarize(records) {
		row := []interface{}{
			day.Date.String(),
			day.TotalPeople,
			day.ReservationCount,
			day.ParkingUsed,
			acc.VisitorCapacityRemaining(day.Date),
			acc.ParkingCapacityRemaining(day.Date),
		}
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}

	if err := w.AddSheet(ReservationsSheet); err != nil {
		return err
	}
	if err := w.WriteHeader(reservationColumns); err != nil {
		return err
	}
	for _, r := range capacity.SortByAssignedDate(records) {
		row := []interface{}{
			r.ID,
			r.Name,
			r.AssignedDate.String(),
			r.RequestedDate.String(),
			r.PartySize,
			string(r.VehicleKind),
			r.Plate,
			r.Notes,
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Exporter writes the workbook on demand or on a cron schedule.
type Exporter struct {
	source   Source
	writer   func() ExcelWriter // factory for creating new Excel writers
	notifier Notifier
	dir      string
	now      func() time.Time
	logger   *zerolog.Logger
}

// NewExporter builds an exporter writing into dir. notifier may be nil.
func NewExporter(source Source, writerFactory func() ExcelWriter, notifier Notifier, dir string, logger *zerolog.Logger) *Exporter {
	if writerFactory == nil {
		writerFactory = NewExcelizeWriter
	}
	return &Exporter{
		source:   source,
		writer:   writerFactory,
		notifier: notifier,
		dir:      dir,
		now:      time.Now,
		logger:   logger,
	}
}

// Filename is the export name for t, e.g. reservations_2024-06-01.xlsx.
func Filename(t time.Time) string {
	return fmt.Sprintf("reservations_%s.xlsx", models.DateOf(t))
}

// Write renders the current snapshot into out.
func (e *Exporter) Write(out io.Writer) error {
	w := e.writer()
	defer w.Close()

	if err := WriteWorkbook(w, e.source.Snapshot(), e.source.Limits()); err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	return w.Save(out)
}

// Run writes the workbook to disk, forwards it to the notifier and returns the file path.
func (e *Exporter) Run(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf); err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	name := Filename(e.now())
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	e.logger.Info().Str("path", path).Msg("Reservation export written")

	if e.notifier != nil {
		caption := fmt.Sprintf("Reservations export %s", models.DateOf(e.now()))
		if err := e.notifier.SendDocument(ctx, name, bytes.NewReader(buf.Bytes()), caption); err != nil {
			return path, fmt.Errorf("send export: %w", err)
		}
	}
	return path, nil
}

// Register schedules Run on c.
func (e *Exporter) Register(c *cron.Cron, schedule string) error {
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := e.Run(ctx); err != nil {
			e.logger.Error().Err(err).Msg("Scheduled export failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", schedule, err)
	}
	e.logger.Info().Str("schedule", schedule).Msg("Export scheduled")
	return nil
}
