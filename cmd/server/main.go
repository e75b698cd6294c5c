package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"turista/internal/api"
	"turista/internal/audit"
	"turista/internal/config"
	"turista/internal/database"
	"turista/internal/events"
	"turista/internal/metrics"
	"turista/internal/notify"
	"turista/internal/repository"
	"turista/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type store interface {
	repository.ReservationStore
	repository.Pinger
	Close() error
}

func main() {
	_ = godotenv.Load()

	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(os.Getenv("TURISTA_LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	cfg, err := config.Load(os.Getenv("TURISTA_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, db, err := openStore(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("open store error")
	}
	defer st.Close()

	bus := events.NewEventBus()
	bus.OnError(func(e events.Event, err error) {
		logger.Error().Err(err).Str("event", e.Type).Msg("event handler failed")
	})

	var notifier audit.Notifier
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("telegram disabled")
		} else {
			notifier = tg
			defer tg.Wait()
			bus.Subscribe(events.ReservationExhausted, tg.ExhaustionAlert(ctx))
			if cfg.Telegram.NotifyReservations {
				bus.Subscribe(events.ReservationCreated, tg.ReservationNotice(ctx))
			}
		}
	}

	svc := service.NewReservationService(ctx, st, bus, service.Options{
		Limits:          cfg.Limits(),
		RejectPastDates: cfg.RejectPastDates(),
		Location:        loc,
	}, &logger)

	exporter := audit.NewExporter(svc, nil, notifier, cfg.Export.Path, &logger)

	scheduler := cron.New(cron.WithLocation(loc))
	if cfg.Backup.Enabled && db != nil {
		if err := database.NewBackupService(db, cfg.Backup, &logger).Register(scheduler); err != nil {
			logger.Fatal().Err(err).Msg("schedule backups")
		}
	}
	if cfg.Export.Enabled {
		if err := exporter.Register(scheduler, cfg.Export.Schedule); err != nil {
			logger.Fatal().Err(err).Msg("schedule export")
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, st, svc, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(api.Config{
		Port:           cfg.HTTP.Port,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
	}, svc, exporter, &logger)

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			logger.Error().Err(err).Msg("HTTP shutdown error")
		}
	}()

	logger.Info().
		Str("driver", cfg.Storage.Driver).
		Int("daily_visitor_cap", cfg.Limits().DailyVisitorCap).
		Int("daily_parking_cap", cfg.Limits().DailyParkingCap).
		Msg("turista started")
	if err := server.Start(); err != nil {
		logger.Error().Err(err).Msg("HTTP server error")
	}
	logger.Info().Msg("turista stopped")
}

// openStore returns the configured reservation store. db is set only for the sqlite driver.
func openStore(cfg *config.Config, logger *zerolog.Logger) (store, *database.DB, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := database.NewDB(cfg.Storage.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return repository.NewRedisStore(rdb, cfg.Redis.Key, logger), nil, nil
	case config.DriverMemory:
		logger.Warn().Msg("memory store: reservations are lost on restart")
		return memoryStore{repository.NewMemoryStore()}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

type memoryStore struct {
	*repository.MemoryStore
}

func (memoryStore) Close() error { return nil }

func startHealthServer(ctx context.Context, port int, pinger repository.Pinger, svc *service.ReservationService, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := pinger.PingContext(ctxPing); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		if svc.Degraded() {
			_, _ = w.Write([]byte("ready (degraded: existing reservations not loaded)"))
			return
		}
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
