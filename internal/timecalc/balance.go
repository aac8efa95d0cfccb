package timecalc

import (
	"sort"
	"time"

	"github.com/Tiliavir/ponto/internal/model"
)

// ExpectedPerDayMs is the quota for every calendar day that has a punch (8h).
const ExpectedPerDayMs int64 = 8 * 60 * 60 * 1000

// State is the position of the replay automaton within a day.
type State string

const (
	StateOff     State = "off"
	StateWorking State = "working"
	StateBreak   State = "break"
)

// MonthlySummary is the worked-time balance for one calendar month.
// BalanceMs = TotalWorkedMs - ExpectedMs and ExpectedMs = WorkDays * ExpectedPerDayMs.
type MonthlySummary struct {
	TotalWorkedMs int64 `json:"total_worked_ms"`
	ExpectedMs    int64 `json:"expected_ms"`
	BalanceMs     int64 `json:"balance_ms"`
	WorkDays      int   `json:"work_days"`
}

// DaySummary is the replay result for one day bucket.
type DaySummary struct {
	Date     string `json:"date"`
	WorkedMs int64  `json:"worked_ms"`
	Punches  int    `json:"punches"`
	State    State  `json:"state"`
}

// ComputeMonthlySummary computes the balance for the calendar month of ref.
// Month and day boundaries are taken in ref's location. Events from other
// months are ignored. Malformed sequences never fail; they only contribute
// the well-formed work spans they contain.
func ComputeMonthlySummary(events []model.Punch, ref time.Time) MonthlySummary {
	var s MonthlySummary
	for _, d := range SummarizeDays(events, ref) {
		s.TotalWorkedMs += d.WorkedMs
		s.WorkDays++
	}
	s.ExpectedMs = int64(s.WorkDays) * ExpectedPerDayMs
	s.BalanceMs = s.TotalWorkedMs - s.ExpectedMs
	return s
}

// SummarizeDays buckets the events of ref's calendar month by local date and
// replays each bucket. The result is ordered by date.
func SummarizeDays(events []model.Punch, ref time.Time) []DaySummary {
	loc := ref.Location()
	year, month, _ := ref.Date()

	byDay := map[string][]model.Punch{}
	for _, e := range events {
		local := e.Timestamp.In(loc)
		if y, m, _ := local.Date(); y != year || m != month {
			continue
		}
		key := local.Format("2006-01-02")
		byDay[key] = append(byDay[key], e)
	}

	days := make([]DaySummary, 0, len(byDay))
	for key, list := range byDay {
		SortPunches(list)
		worked, state := ReplayDay(list)
		days = append(days, DaySummary{
			Date:     key,
			WorkedMs: worked,
			Punches:  len(list),
			State:    state,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// SortPunches sorts punches ascending by timestamp, keeping the input order of ties.
func SortPunches(list []model.Punch) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.Before(list[j].Timestamp)
	})
}

// ReplayDay runs one day's punches, already sorted, through the off/working/break
// automaton and returns the worked milliseconds and the final state.
//
// Only spans opened by in or end-break and closed by start-break or out count.
// A start-break or out outside working still moves the state; an end-break
// outside a break and unknown kinds are ignored.
func ReplayDay(sorted []model.Punch) (int64, State) {
	state := StateOff
	var open time.Time
	var worked int64

	for _, p := range sorted {
		t := p.Timestamp
		switch p.Kind {
		case model.KindIn:
			state = StateWorking
			open = t
		case model.KindStartBreak:
			if state == StateWorking {
				worked += t.Sub(open).Milliseconds()
			}
			state = StateBreak
			open = t
		case model.KindEndBreak:
			if state == StateBreak {
				state = StateWorking
				open = t
			}
		case model.KindOut:
			if state == StateWorking {
				worked += t.Sub(open).Milliseconds()
			}
			state = StateOff
			open = t
		}
	}
	return worked, state
}
