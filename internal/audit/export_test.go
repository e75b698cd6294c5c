package audit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"turista/internal/capacity"
	"turista/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type staticSource struct {
	records []models.Reservation
}

func (s staticSource) Snapshot() []models.Reservation { return s.records }
func (s staticSource) Limits() capacity.Limits        { return capacity.DefaultLimits() }

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendDocument(ctx context.Context, filename string, data io.Reader, caption string) error {
	return m.Called(ctx, filename, data, caption).Error(0)
}

func testRecords() []models.Reservation {
	d1, _ := models.ParseDate("2024-06-02")
	d0, _ := models.ParseDate("2024-06-01")
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []models.Reservation{
		{ID: "RES-2", Name: "Ben", RequestedDate: d0, AssignedDate: d1, PartySize: 10, VehicleKind: models.VehicleVan, Plate: "V-1", CreatedAt: created},
		{ID: "RES-1", Name: "Ana", RequestedDate: d0, AssignedDate: d0, PartySize: 4, VehicleKind: models.VehicleNone, Notes: "early", CreatedAt: created},
	}
}

func TestWriteWorkbook(t *testing.T) {
	logger := zerolog.New(io.Discard)
	exp := NewExporter(staticSource{records: testRecords()}, nil, nil, t.TempDir(), &logger)

	var buf bytes.Buffer
	require.NoError(t, exp.Write(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, ReservationsSheet}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, summaryColumns, summary[0])
	assert.Equal(t, []string{"2024-06-01", "4", "1", "0", "76", "30"}, summary[1])
	assert.Equal(t, []string{"2024-06-02", "10", "1", "1", "70", "29"}, summary[2])

	rows, err := f.GetRows(ReservationsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "RES-1", rows[1][0])
	assert.Equal(t, "RES-2", rows[2][0])
	assert.Equal(t, "2024-06-01", rows[2][3])
}

func TestExporter_Run(t *testing.T) {
	logger := zerolog.New(io.Discard)
	dir := t.TempDir()
	notifier := new(mockNotifier)
	exp := NewExporter(staticSource{records: testRecords()}, nil, notifier, dir, &logger)
	exp.now = func() time.Time { return time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	notifier.On("SendDocument", ctx, "reservations_2024-06-01.xlsx", mock.Anything, "Reservations export 2024-06-01").Return(nil).Once()
	path, err := exp.Run(ctx)
	require.NoError(t, err)
	assert.FileExists(t, path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	notifier.AssertExpectations(t)

	notifier.On("SendDocument", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("offline")).Once()
	path, err = exp.Run(ctx)
	assert.Error(t, err)
	assert.FileExists(t, path)
}

func TestExporter_Register(t *testing.T) {
	logger := zerolog.New(io.Discard)
	exp := NewExporter(staticSource{}, nil, nil, t.TempDir(), &logger)
	c := cron.New()
	require.NoError(t, exp.Register(c, "0 20 * * *"))
	assert.Len(t, c.Entries(), 1)
	assert.Error(t, exp.Register(c, "every day"))
}
