package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/ponto/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the punch history source and employee registry.
type Store interface {
	// SavePunch inserts p, or replaces the punch with the same ID on p's day.
	SavePunch(ctx context.Context, p model.Punch) error
	// DeletePunch removes the punch with p's ID. Missing punches are not an error.
	DeletePunch(ctx context.Context, p model.Punch) error
	// Punches returns the user's punches with from <= Timestamp <= to, oldest first.
	Punches(ctx context.Context, userID string, from, to time.Time) ([]model.Punch, error)
	// LastPunch returns the most recent punch on the calendar day of day, or nil.
	LastPunch(ctx context.Context, userID string, day time.Time) (*model.Punch, error)
	SaveEmployee(ctx context.Context, e model.Employee) error
	Employee(ctx context.Context, id string) (model.Employee, error)
	// Employees lists employees with the given role (all when empty), by name.
	Employees(ctx context.Context, role model.Role) ([]model.Employee, error)
	Close() error
}

// Opener builds a Store for a driver other than "json". It is set by
// driver packages so this package does not import them.
type Opener func(path string, logger *zap.Logger) (Store, error)

var openers = map[string]Opener{}

// Register makes a driver available to Open.
func Register(driver string, open Opener) {
	openers[driver] = open
}

// Open returns the Store for driver rooted at path.
func Open(driver, path string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if driver == "" || driver == "json" {
		return NewFileStore(path, logger), nil
	}
	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	return open(path, logger)
}

// BaseDir returns the root data directory (~/.ponto).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".ponto"), nil
}
