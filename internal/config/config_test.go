package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("storage:\n  driver: memory\n"))
	require.NoError(t, err)

	limits := cfg.Limits()
	assert.Equal(t, 80, limits.DailyVisitorCap)
	assert.Equal(t, 30, limits.DailyParkingCap)
	assert.Equal(t, 365, limits.HorizonDays)
	assert.Equal(t, 20, limits.MaxPartySize)
	assert.True(t, cfg.RejectPastDates())
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.False(t, cfg.TelegramEnabled())
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("TURISTA_TEST_REDIS", "localhost:6390")
	t.Setenv("TURISTA_TEST_CAP", "120")

	data := []byte(`
capacity:
  daily_visitor_cap: ${TURISTA_TEST_CAP}
  daily_parking_cap: 12
booking:
  reject_past_dates: false
storage:
  driver: redis
redis:
  address: ${TURISTA_TEST_REDIS}
telegram:
  bot_token: token
  chat_ids: [1, 2]
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Limits().DailyVisitorCap)
	assert.Equal(t, 12, cfg.Limits().DailyParkingCap)
	assert.Equal(t, "localhost:6390", cfg.Redis.Address)
	assert.False(t, cfg.RejectPastDates())
	assert.True(t, cfg.TelegramEnabled())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown driver", data: "storage:\n  driver: mongo\n"},
		{name: "redis without address", data: "storage:\n  driver: redis\n"},
		{name: "negative cap", data: "capacity:\n  daily_visitor_cap: -1\nstorage:\n  driver: memory\n"},
		{name: "zero visitor cap", data: "capacity:\n  daily_visitor_cap: 0\nstorage:\n  driver: memory\n"},
		{name: "negative parking cap", data: "capacity:\n  daily_parking_cap: -3\nstorage:\n  driver: memory\n"},
		{name: "zero horizon", data: "capacity:\n  horizon_days: 0\nstorage:\n  driver: memory\n"},
		{name: "party larger than a day", data: "capacity:\n  daily_visitor_cap: 10\n  max_party_size: 11\nstorage:\n  driver: memory\n"},
		{name: "party larger than default day", data: "capacity:\n  max_party_size: 81\nstorage:\n  driver: memory\n"},
		{name: "bad yaml", data: "capacity: [\n"},
		{name: "unknown timezone", data: "booking:\n  timezone: Mars/Olympus\nstorage:\n  driver: memory\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParse_ExplicitZeroParkingCap(t *testing.T) {
	cfg, err := Parse([]byte("capacity:\n  daily_parking_cap: 0\n  daily_visitor_cap: 20\nstorage:\n  driver: memory\n"))
	require.NoError(t, err)

	limits := cfg.Limits()
	assert.Equal(t, 0, limits.DailyParkingCap)
	assert.Equal(t, 20, limits.DailyVisitorCap)
	assert.Equal(t, 20, limits.MaxPartySize)
	assert.Equal(t, 365, limits.HorizonDays)
}

func TestLocation(t *testing.T) {
	cfg, err := Parse([]byte("booking:\n  timezone: America/Mexico_City\nstorage:\n  driver: memory\n"))
	require.NoError(t, err)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Mexico_City", loc.String())

	loc, err = Default().Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "nested", "turista.db")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  path: "+dbPath+"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.DirExists(t, filepath.Join(dir, "nested"))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_SampleConfig(t *testing.T) {
	sample, err := filepath.Abs(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(sample)
	require.NoError(t, err)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Manila", loc.String())
	assert.True(t, cfg.Telegram.NotifyReservations)
	assert.Equal(t, 30, cfg.Limits().DailyParkingCap)
}
