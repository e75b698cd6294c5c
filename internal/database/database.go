package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"turista/internal/models"
	"turista/internal/repository"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the SQLite-backed reservation store.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// NewDB opens (or creates) the database at path and makes sure the schema exists.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, path: path, logger: logger}
	if err := instance.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		// Dates are TEXT so the driver never converts them into instants.
		`CREATE TABLE IF NOT EXISTS reservations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			requested_date TEXT NOT NULL,
			assigned_date TEXT NOT NULL,
			party_size INTEGER NOT NULL CHECK (party_size > 0),
			vehicle_kind TEXT NOT NULL DEFAULT 'none',
			plate TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_assigned_date ON reservations(assigned_date)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// Load returns all reservations in insertion order.
func (db *DB) Load(ctx context.Context) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, requested_date, assigned_date, party_size,
		       vehicle_kind, plate, notes, created_at
		FROM reservations ORDER BY seq`)
	if err != nil {
		return nil, &repository.PersistenceError{Op: "load", Err: err}
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		var (
			r         models.Reservation
			kind      string
			createdAt string
		)
		if err := rows.Scan(
			&r.ID, &r.Name, &r.RequestedDate, &r.AssignedDate, &r.PartySize,
			&kind, &r.Plate, &r.Notes, &createdAt,
		); err != nil {
			return nil, &repository.PersistenceError{Op: "load", Err: err}
		}
		r.VehicleKind = models.VehicleKind(kind)
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, &repository.PersistenceError{Op: "load", Err: fmt.Errorf("reservation %s created_at: %w", r.ID, err)}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &repository.PersistenceError{Op: "load", Err: err}
	}
	return out, nil
}

// Append inserts one reservation.
func (db *DB) Append(ctx context.Context, r *models.Reservation) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO reservations (
			id, name, requested_date, assigned_date, party_size,
			vehicle_kind, plate, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Name,
		r.RequestedDate,
		r.AssignedDate,
		r.PartySize,
		string(r.VehicleKind),
		r.Plate,
		r.Notes,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &repository.PersistenceError{Op: "append", Err: repository.ErrDuplicateID}
		}
		return &repository.PersistenceError{Op: "append", Err: err}
	}
	return nil
}

// Backup writes a consistent copy of the database to dest.
func (db *DB) Backup(ctx context.Context, dest string) error {
	_, err := db.ExecContext(ctx, `VACUUM INTO ?`, dest)
	return err
}

func (db *DB) Close() error {
	return db.DB.Close()
}
