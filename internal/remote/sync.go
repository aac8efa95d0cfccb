package remote

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/punch"
	"github.com/Tiliavir/ponto/internal/storage"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	UserID string
	// Location defines the calendar day each punch is filed under.
	Location *time.Location
	// From and To bound the local punches matched by external id. When both
	// are zero the span of the rows' timestamps is used.
	From, To time.Time
	DryRun   bool
	Logger   *zap.Logger
}

// parseTimestamp parses a backend ISO-8601 timestamp. Values without an
// offset are read in loc.
func parseTimestamp(ts string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, nil
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999Z07",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
	} {
		if t, err := time.ParseInLocation(layout, ts, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", ts)
}

// MapRow converts a backend row into a local punch. It is the validation
// boundary for remote data: unknown kinds and bad timestamps are errors.
func MapRow(row PunchRow, userID string, loc *time.Location) (model.Punch, error) {
	if loc == nil {
		loc = time.Local
	}
	kind, err := punch.Parse(row.Type)
	if err != nil {
		return model.Punch{}, err
	}
	ts, err := parseTimestamp(row.Timestamp, loc)
	if err != nil {
		return model.Punch{}, err
	}
	if row.UserID != "" {
		userID = row.UserID
	}
	ts = ts.In(loc)
	return model.Punch{
		ID:         timecalc.GenerateID(ts),
		UserID:     userID,
		Kind:       kind,
		Timestamp:  ts,
		Latitude:   row.Latitude,
		Longitude:  row.Longitude,
		Source:     "remote",
		ExternalID: string(row.ID),
	}, nil
}

// samePunch reports whether a stored punch already reflects the remote one.
func samePunch(a, b model.Punch) bool {
	return a.Kind == b.Kind && a.Timestamp.Equal(b.Timestamp) &&
		sameCoord(a.Latitude, b.Latitude) && sameCoord(a.Longitude, b.Longitude)
}

func sameCoord(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// SyncPunches merges backend rows into the local store. Rows are matched to
// local punches by external id across the whole synced range, so a row whose
// timestamp moved to another day replaces its old local copy.
func SyncPunches(ctx context.Context, store storage.Store, rows []PunchRow, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var incoming []model.Punch
	for _, row := range rows {
		p, err := MapRow(row, opts.UserID, opts.Location)
		if err != nil {
			logger.Warn("skipping remote punch", zap.String("id", string(row.ID)), zap.Error(err))
			result.Errors++
			continue
		}
		if p.ExternalID == "" {
			logger.Warn("skipping remote punch without id", zap.String("timestamp", row.Timestamp))
			result.Errors++
			continue
		}
		incoming = append(incoming, p)
	}
	if len(incoming) == 0 {
		return result, nil
	}

	from, to := opts.From, opts.To
	if from.IsZero() && to.IsZero() {
		from, to = incoming[0].Timestamp, incoming[0].Timestamp
		for _, p := range incoming[1:] {
			if p.Timestamp.Before(from) {
				from = p.Timestamp
			}
			if p.Timestamp.After(to) {
				to = p.Timestamp
			}
		}
	}

	known := map[string]model.Punch{}
	for _, userID := range userIDs(incoming) {
		existing, err := store.Punches(ctx, userID, from, to)
		if err != nil {
			return result, fmt.Errorf("loading local punches: %w", err)
		}
		for _, p := range existing {
			if p.ExternalID != "" {
				known[p.UserID+"\x00"+p.ExternalID] = p
			}
		}
	}

	for _, p := range incoming {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key := p.UserID + "\x00" + p.ExternalID

		if found, ok := known[key]; ok {
			if samePunch(found, p) {
				result.Skipped++
				continue
			}
			// Update: preserve the local ID but take the remote content.
			p.ID = found.ID
			if !opts.DryRun {
				if !found.Timestamp.Equal(p.Timestamp) {
					if err := store.DeletePunch(ctx, found); err != nil {
						return result, fmt.Errorf("moving punch %s: %w", p.ID, err)
					}
				}
				if err := store.SavePunch(ctx, p); err != nil {
					return result, fmt.Errorf("updating punch %s: %w", p.ID, err)
				}
			}
			known[key] = p
			logger.Debug("updated punch", zap.String("external_id", p.ExternalID))
			result.Updated++
			continue
		}

		if !opts.DryRun {
			if err := store.SavePunch(ctx, p); err != nil {
				return result, fmt.Errorf("saving punch %s: %w", p.ID, err)
			}
		}
		known[key] = p
		logger.Debug("imported punch", zap.String("external_id", p.ExternalID), zap.String("type", string(p.Kind)))
		result.Imported++
	}

	return result, nil
}

func userIDs(punches []model.Punch) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range punches {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			out = append(out, p.UserID)
		}
	}
	return out
}
