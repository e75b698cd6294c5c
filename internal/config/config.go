package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"turista/internal/capacity"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no config path is given.
const DefaultPath = "configs/config.yaml"

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	// Pointers so an explicit 0 is kept and only omitted keys get defaults.
	Capacity struct {
		DailyVisitorCap *int `yaml:"daily_visitor_cap"`
		DailyParkingCap *int `yaml:"daily_parking_cap"`
		HorizonDays     *int `yaml:"horizon_days"`
		MaxPartySize    *int `yaml:"max_party_size"`
	} `yaml:"capacity"`

	Booking struct {
		// Pointer so an omitted key keeps the default of true.
		RejectPastDates *bool `yaml:"reject_past_dates"`
		// IANA zone name deciding what "today" is; empty means the host zone.
		Timezone string `yaml:"timezone"`
	} `yaml:"booking"`

	Storage struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"storage"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Key      string `yaml:"key"`
	} `yaml:"redis"`

	HTTP struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		RateLimitRPS   float64  `yaml:"rate_limit_rps"`
		RateLimitBurst int      `yaml:"rate_limit_burst"`
	} `yaml:"http"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Backup BackupConfig `yaml:"backup"`

	Export ExportConfig `yaml:"export"`

	Telegram struct {
		BotToken           string  `yaml:"bot_token"`
		ChatIDs            []int64 `yaml:"chat_ids"`
		NotifyReservations bool    `yaml:"notify_reservations"`
	} `yaml:"telegram"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"` // cron expression
	StoragePath   string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type ExportConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron expression
	Path     string `yaml:"path"`
}

// Load reads the YAML file at path, expanding ${ENV_VAR} placeholders.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data and applies defaults.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	setDefault(&c.Capacity.DailyVisitorCap, capacity.DefaultDailyVisitorCap)
	setDefault(&c.Capacity.DailyParkingCap, capacity.DefaultDailyParkingCap)
	setDefault(&c.Capacity.HorizonDays, capacity.DefaultHorizonDays)
	setDefault(&c.Capacity.MaxPartySize, capacity.DefaultMaxPartySize)
	if c.Booking.RejectPastDates == nil {
		v := true
		c.Booking.RejectPastDates = &v
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/turista.db"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.RateLimitRPS == 0 {
		c.HTTP.RateLimitRPS = 5
	}
	if c.HTTP.RateLimitBurst == 0 {
		c.HTTP.RateLimitBurst = 10
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "0 3 * * *"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "data/backups"
	}
	if c.Export.Schedule == "" {
		c.Export.Schedule = "0 20 * * *"
	}
	if c.Export.Path == "" {
		c.Export.Path = "data/exports"
	}
}

// Validate rejects configs the service cannot run with.
func (c *Config) Validate() error {
	limits := c.Limits()
	if limits.DailyVisitorCap < 1 {
		return fmt.Errorf("capacity.daily_visitor_cap must be at least 1")
	}
	if limits.DailyParkingCap < 0 {
		return fmt.Errorf("capacity.daily_parking_cap must not be negative")
	}
	if limits.HorizonDays < 1 {
		return fmt.Errorf("capacity.horizon_days must be at least 1")
	}
	if limits.MaxPartySize < 1 {
		return fmt.Errorf("capacity.max_party_size must be at least 1")
	}
	if limits.MaxPartySize > limits.DailyVisitorCap {
		return fmt.Errorf("capacity.max_party_size (%d) exceeds daily_visitor_cap (%d)",
			limits.MaxPartySize, limits.DailyVisitorCap)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("booking.timezone: %w", err)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Limits converts the capacity section for the allocator.
func (c *Config) Limits() capacity.Limits {
	return capacity.Limits{
		DailyVisitorCap: intValue(c.Capacity.DailyVisitorCap),
		DailyParkingCap: intValue(c.Capacity.DailyParkingCap),
		HorizonDays:     intValue(c.Capacity.HorizonDays),
		MaxPartySize:    intValue(c.Capacity.MaxPartySize),
	}
}

func setDefault(p **int, v int) {
	if *p == nil {
		*p = &v
	}
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// RejectPastDates reports whether requests for days before today are refused.
func (c *Config) RejectPastDates() bool {
	return c.Booking.RejectPastDates == nil || *c.Booking.RejectPastDates
}

// Location resolves booking.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Booking.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Booking.Timezone)
}

// TelegramEnabled reports whether operator notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && len(c.Telegram.ChatIDs) > 0
}
