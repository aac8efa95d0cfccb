package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

// FileStore keeps one JSON file per user and calendar day under
// <base>/punches/<user>/YYYY/MM/DD.json and employees in <base>/employees.json.
// A punch is filed under its date in its own timestamp's location; reads
// open one extra day file on each side so any reader location finds it.
type FileStore struct {
	base   string
	logger *zap.Logger
}

// NewFileStore returns a FileStore rooted at base.
func NewFileStore(base string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{base: base, logger: logger}
}

// dayFilePath returns the path for the given user's and date's JSON file.
func (s *FileStore) dayFilePath(userID string, t time.Time) string {
	return filepath.Join(s.base, "punches", safeName(userID), t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// safeName keeps user ids from escaping the punches directory.
func safeName(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	if id == "" {
		return "_"
	}
	return r.Replace(id)
}

// LoadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func (s *FileStore) LoadDay(userID string, t time.Time) (model.DayFile, error) {
	path := s.dayFilePath(userID, t)
	var df model.DayFile
	found, err := s.readJSON(path, &df)
	if err != nil {
		return model.DayFile{}, err
	}
	if !found {
		return model.DayFile{Date: t.Format("2006-01-02"), Punches: []model.Punch{}}, nil
	}
	return df, nil
}

// SaveDay atomically writes a DayFile for the given date.
func (s *FileStore) SaveDay(userID string, t time.Time, df model.DayFile) error {
	return writeJSON(s.dayFilePath(userID, t), df)
}

// SavePunch implements Store.
func (s *FileStore) SavePunch(_ context.Context, p model.Punch) error {
	df, err := s.LoadDay(p.UserID, p.Timestamp)
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range df.Punches {
		if existing.ID == p.ID {
			df.Punches[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		df.Punches = append(df.Punches, p)
	}
	timecalc.SortPunches(df.Punches)
	return s.SaveDay(p.UserID, p.Timestamp, df)
}

// DeletePunch implements Store.
func (s *FileStore) DeletePunch(_ context.Context, p model.Punch) error {
	df, err := s.LoadDay(p.UserID, p.Timestamp)
	if err != nil {
		return err
	}
	kept := df.Punches[:0]
	for _, existing := range df.Punches {
		if existing.ID != p.ID {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(df.Punches) {
		return nil
	}
	df.Punches = kept
	return s.SaveDay(p.UserID, p.Timestamp, df)
}

// Punches implements Store. Day files are walked in UTC with a one-day margin,
// which covers every zone offset a punch may have been filed under.
func (s *FileStore) Punches(_ context.Context, userID string, from, to time.Time) ([]model.Punch, error) {
	var out []model.Punch
	seen := map[string]bool{}
	last := timecalc.StartOfDay(to.UTC()).AddDate(0, 0, 1)
	for d := timecalc.StartOfDay(from.UTC()).AddDate(0, 0, -1); !d.After(last); d = d.AddDate(0, 0, 1) {
		df, err := s.LoadDay(userID, d)
		if err != nil {
			return nil, err
		}
		for _, p := range df.Punches {
			if p.Timestamp.Before(from) || p.Timestamp.After(to) || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	timecalc.SortPunches(out)
	return out, nil
}

// LastPunch implements Store. The day is taken in day's location.
func (s *FileStore) LastPunch(ctx context.Context, userID string, day time.Time) (*model.Punch, error) {
	punches, err := s.Punches(ctx, userID, timecalc.StartOfDay(day), timecalc.EndOfDay(day))
	if err != nil {
		return nil, err
	}
	if len(punches) == 0 {
		return nil, nil
	}
	last := punches[len(punches)-1]
	return &last, nil
}

func (s *FileStore) employeesPath() string {
	return filepath.Join(s.base, "employees.json")
}

func (s *FileStore) loadEmployees() ([]model.Employee, error) {
	var list []model.Employee
	if _, err := s.readJSON(s.employeesPath(), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveEmployee implements Store.
func (s *FileStore) SaveEmployee(_ context.Context, e model.Employee) error {
	list, err := s.loadEmployees()
	if err != nil {
		return err
	}
	for i, existing := range list {
		if existing.ID == e.ID {
			list[i] = e
			return writeJSON(s.employeesPath(), list)
		}
	}
	return writeJSON(s.employeesPath(), append(list, e))
}

// Employee implements Store.
func (s *FileStore) Employee(_ context.Context, id string) (model.Employee, error) {
	list, err := s.loadEmployees()
	if err != nil {
		return model.Employee{}, err
	}
	for _, e := range list {
		if e.ID == id {
			return e, nil
		}
	}
	return model.Employee{}, fmt.Errorf("employee %q: %w", id, ErrNotFound)
}

// Employees implements Store.
func (s *FileStore) Employees(_ context.Context, role model.Role) ([]model.Employee, error) {
	list, err := s.loadEmployees()
	if err != nil {
		return nil, err
	}
	out := []model.Employee{}
	for _, e := range list {
		if role == "" || e.Role == role {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// readJSON decodes path into v. A missing file is not an error (found=false).
func (s *FileStore) readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		s.logger.Warn("corrupt storage file backed up",
			zap.String("path", path), zap.String("backup", backupPath), zap.Error(err))
		return false, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return true, nil
}

// writeJSON writes v to path atomically.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}
