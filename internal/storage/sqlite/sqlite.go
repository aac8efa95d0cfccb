// Package sqlite provides a SQLite-backed storage.Store.
//
// Punch timestamps are stored twice: as RFC 3339 text with the original
// offset (returned to callers unchanged) and as Unix milliseconds, which is
// what range queries filter and order on.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/storage"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

const defaultDBName = "ponto.db"

const schema = `
CREATE TABLE IF NOT EXISTS punches (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	kind        TEXT NOT NULL,
	ts          TEXT NOT NULL,
	ts_ms       INTEGER NOT NULL,
	latitude    REAL,
	longitude   REAL,
	source      TEXT NOT NULL DEFAULT '',
	external_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_punches_user_ts ON punches(user_id, ts_ms);

CREATE TABLE IF NOT EXISTS employees (
	id         TEXT PRIMARY KEY,
	full_name  TEXT NOT NULL,
	work_email TEXT NOT NULL,
	role       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

func init() {
	storage.Register("sqlite", func(path string, logger *zap.Logger) (storage.Store, error) {
		return New(path, logger)
	})
}

// Store is a storage.Store backed by a single SQLite file.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (creating if needed) the database. A directory path gets the
// default file name appended.
func New(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, defaultDBName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	logger.Debug("sqlite store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// SavePunch implements storage.Store.
func (s *Store) SavePunch(ctx context.Context, p model.Punch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO punches (id, user_id, kind, ts, ts_ms, latitude, longitude, source, external_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			kind = excluded.kind,
			ts = excluded.ts,
			ts_ms = excluded.ts_ms,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			source = excluded.source,
			external_id = excluded.external_id`,
		p.ID, p.UserID, string(p.Kind), p.Timestamp.Format(time.RFC3339Nano), p.Timestamp.UnixMilli(),
		nullFloat(p.Latitude), nullFloat(p.Longitude), p.Source, p.ExternalID)
	if err != nil {
		return fmt.Errorf("saving punch %s: %w", p.ID, err)
	}
	return nil
}

// DeletePunch implements storage.Store.
func (s *Store) DeletePunch(ctx context.Context, p model.Punch) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM punches WHERE id = ?`, p.ID); err != nil {
		return fmt.Errorf("deleting punch %s: %w", p.ID, err)
	}
	return nil
}

// Punches implements storage.Store.
func (s *Store) Punches(ctx context.Context, userID string, from, to time.Time) ([]model.Punch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, kind, ts, latitude, longitude, source, external_id
		FROM punches
		WHERE user_id = ? AND ts_ms >= ? AND ts_ms <= ?
		ORDER BY ts_ms ASC, rowid ASC`,
		userID, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("querying punches: %w", err)
	}
	defer rows.Close()

	var out []model.Punch
	for rows.Next() {
		p, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LastPunch implements storage.Store.
func (s *Store) LastPunch(ctx context.Context, userID string, day time.Time) (*model.Punch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, ts, latitude, longitude, source, external_id
		FROM punches
		WHERE user_id = ? AND ts_ms >= ? AND ts_ms <= ?
		ORDER BY ts_ms DESC, rowid DESC
		LIMIT 1`,
		userID, timecalc.StartOfDay(day).UnixMilli(), timecalc.EndOfDay(day).UnixMilli())
	p, err := scanPunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveEmployee implements storage.Store.
func (s *Store) SaveEmployee(ctx context.Context, e model.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, full_name, work_email, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			work_email = excluded.work_email,
			role = excluded.role`,
		e.ID, e.FullName, e.WorkEmail, string(e.Role), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving employee %s: %w", e.ID, err)
	}
	return nil
}

// Employee implements storage.Store.
func (s *Store) Employee(ctx context.Context, id string) (model.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, work_email, role, created_at FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Employee{}, fmt.Errorf("employee %q: %w", id, storage.ErrNotFound)
	}
	return e, err
}

// Employees implements storage.Store.
func (s *Store) Employees(ctx context.Context, role model.Role) ([]model.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, work_email, role, created_at
		FROM employees
		WHERE ? = '' OR role = ?
		ORDER BY full_name ASC`, string(role), string(role))
	if err != nil {
		return nil, fmt.Errorf("querying employees: %w", err)
	}
	defer rows.Close()

	out := []model.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close implements storage.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPunch(sc scanner) (model.Punch, error) {
	var (
		p         model.Punch
		kind, ts  string
		lat, long sql.NullFloat64
	)
	if err := sc.Scan(&p.ID, &p.UserID, &kind, &ts, &lat, &long, &p.Source, &p.ExternalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Punch{}, err
		}
		return model.Punch{}, fmt.Errorf("scanning punch: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return model.Punch{}, fmt.Errorf("punch %s has invalid timestamp %q: %w", p.ID, ts, err)
	}
	p.Kind = model.Kind(kind)
	p.Timestamp = t
	if lat.Valid {
		p.Latitude = &lat.Float64
	}
	if long.Valid {
		p.Longitude = &long.Float64
	}
	return p, nil
}

func scanEmployee(sc scanner) (model.Employee, error) {
	var (
		e        model.Employee
		role, ts string
	)
	if err := sc.Scan(&e.ID, &e.FullName, &e.WorkEmail, &role, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Employee{}, err
		}
		return model.Employee{}, fmt.Errorf("scanning employee: %w", err)
	}
	e.Role = model.Role(role)
	created, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return model.Employee{}, fmt.Errorf("employee %s has invalid created_at %q: %w", e.ID, ts, err)
	}
	e.CreatedAt = created
	return e, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
