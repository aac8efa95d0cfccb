package timecalc

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateID creates a unique punch ID based on timestamp and random suffix.
func GenerateID(t time.Time) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 5)
	for i := range suffix {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		suffix[i] = chars[n.Int64()]
	}
	return fmt.Sprintf("%s-%s", t.Format("20060102-150405"), string(suffix))
}

// FormatDuration formats milliseconds as a compact string like "7h 40m", "45m" or "30s".
// Negative values get a leading "-".
func FormatDuration(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
	}
	seconds := int64(absMillis(ms) / 1000)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%s%dh %dm", sign, h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%s%dm", sign, m)
	}
	return fmt.Sprintf("%s%ds", sign, s)
}

// FormatDurationHMS formats a signed millisecond duration as [-]HH:MM:SS.
// Hours are elapsed time and may exceed 24 or 99; sub-second remainders are truncated.
func FormatDurationHMS(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
	}
	total := absMillis(ms) / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

// absMillis returns |ms| without overflowing on math.MinInt64.
func absMillis(ms int64) uint64 {
	if ms < 0 {
		return uint64(-(ms + 1)) + 1
	}
	return uint64(ms)
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = StartOfDay(monday)
	sunday := EndOfDay(monday.AddDate(0, 0, 6))
	return monday, sunday
}

// MonthRange returns the first and the last nanosecond of the calendar
// month containing t, in t's location.
func MonthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first, EndOfDay(last)
}

// MonthLabel returns a label like "2026-10".
func MonthLabel(t time.Time) string {
	return t.Format("2006-01")
}

// ParseMonth parses "YYYY-MM" in loc and returns noon of the first day, a
// reference instant that is unambiguous for that month.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	m, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", s, err)
	}
	return time.Date(m.Year(), m.Month(), 1, 12, 0, 0, 0, loc), nil
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-1), t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
