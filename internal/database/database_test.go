package database

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"turista/internal/config"
	"turista/internal/models"
	"turista/internal/repository"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "data", "turista.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func reservation(id, requested, assigned string, people int, kind models.VehicleKind) models.Reservation {
	req, _ := models.ParseDate(requested)
	asg, _ := models.ParseDate(assigned)
	return models.Reservation{
		ID:            id,
		Name:          "Visitor " + id,
		RequestedDate: req,
		AssignedDate:  asg,
		PartySize:     people,
		VehicleKind:   kind,
		CreatedAt:     time.Date(2024, 5, 1, 8, 0, 0, 42, time.UTC),
	}
}

func TestDB_AppendLoad(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	empty, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	moved := reservation("RES-2", "2024-06-01", "2024-06-02", 10, models.VehicleVan)
	moved.Plate = "XY-987"
	moved.Notes = "school group"
	first := reservation("RES-1", "2024-06-01", "2024-06-01", 3, models.VehicleNone)

	require.NoError(t, db.Append(ctx, &first))
	require.NoError(t, db.Append(ctx, &moved))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "RES-1", got[0].ID)

	back := got[1]
	assert.Equal(t, moved.ID, back.ID)
	assert.Equal(t, moved.Name, back.Name)
	assert.Equal(t, "2024-06-01", back.RequestedDate.String())
	assert.Equal(t, "2024-06-02", back.AssignedDate.String())
	assert.Equal(t, 10, back.PartySize)
	assert.Equal(t, models.VehicleVan, back.VehicleKind)
	assert.Equal(t, "XY-987", back.Plate)
	assert.Equal(t, "school group", back.Notes)
	assert.True(t, moved.CreatedAt.Equal(back.CreatedAt))
}

func TestDB_DuplicateID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	r := reservation("RES-1", "2024-06-01", "2024-06-01", 1, models.VehicleNone)
	require.NoError(t, db.Append(ctx, &r))

	err := db.Append(ctx, &r)
	assert.True(t, repository.IsPersistence(err))
	assert.True(t, errors.Is(err, repository.ErrDuplicateID))
}

func TestDB_ClosedFails(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "closed.db"), &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Load(context.Background())
	assert.True(t, repository.IsPersistence(err))

	r := reservation("RES-1", "2024-06-01", "2024-06-01", 1, models.VehicleNone)
	assert.True(t, repository.IsPersistence(db.Append(context.Background(), &r)))
}

func TestBackupService(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := reservation("RES-1", "2024-06-01", "2024-06-01", 2, models.VehicleCar)
	require.NoError(t, db.Append(ctx, &r))

	logger := zerolog.New(io.Discard)
	dir := filepath.Join(t.TempDir(), "backups")
	svc := NewBackupService(db, config.BackupConfig{
		Enabled:       true,
		Schedule:      "0 3 * * *",
		StoragePath:   dir,
		RetentionDays: 7,
	}, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := svc.PerformBackup(ctx)
		require.NoError(t, err)
		assert.FileExists(t, path)

		copyDB, err := NewDB(path, &logger)
		require.NoError(t, err)
		defer copyDB.Close()
		got, err := copyDB.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "RES-1", got[0].ID)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		old := filepath.Join(dir, "backup_20000101_000000.db")
		require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
		past := time.Now().AddDate(0, 0, -30)
		require.NoError(t, os.Chtimes(old, past, past))

		assert.Equal(t, 1, svc.CleanupOldBackups())
		assert.NoFileExists(t, old)
	})

	t.Run("Register", func(t *testing.T) {
		c := cron.New()
		require.NoError(t, svc.Register(c))
		assert.Len(t, c.Entries(), 1)

		bad := NewBackupService(db, config.BackupConfig{Enabled: true, Schedule: "not cron"}, &logger)
		assert.Error(t, bad.Register(c))

		disabled := NewBackupService(db, config.BackupConfig{}, &logger)
		assert.NoError(t, disabled.Register(c))
		assert.Len(t, c.Entries(), 1)
	})
}
