package timecalc_test

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

const hourMs = int64(time.Hour / time.Millisecond)

var brt = time.FixedZone("BRT", -3*3600)

// at builds a punch on 2026-10-<day> at hh:mm in BRT.
func at(kind model.Kind, day, hh, mm int) model.Punch {
	return model.Punch{Kind: kind, Timestamp: time.Date(2026, 10, day, hh, mm, 0, 0, brt)}
}

var ref = time.Date(2026, 10, 19, 15, 0, 0, 0, brt)

func TestComputeMonthlySummaryEmpty(t *testing.T) {
	got := timecalc.ComputeMonthlySummary(nil, ref)
	if got != (timecalc.MonthlySummary{}) {
		t.Errorf("empty input summary = %+v, want zero", got)
	}
}

func TestComputeMonthlySummary(t *testing.T) {
	tests := []struct {
		name     string
		events   []model.Punch
		worked   int64
		workDays int
	}{
		{
			name:     "single full day",
			events:   []model.Punch{at(model.KindIn, 5, 9, 0), at(model.KindOut, 5, 17, 0)},
			worked:   8 * hourMs,
			workDays: 1,
		},
		{
			name: "break excluded",
			events: []model.Punch{
				at(model.KindIn, 5, 9, 0),
				at(model.KindStartBreak, 5, 12, 0),
				at(model.KindEndBreak, 5, 13, 0),
				at(model.KindOut, 5, 18, 0),
			},
			worked:   8 * hourMs,
			workDays: 1,
		},
		{
			name:     "lone start-break",
			events:   []model.Punch{at(model.KindStartBreak, 6, 12, 0)},
			worked:   0,
			workDays: 1,
		},
		{
			name:     "missing out",
			events:   []model.Punch{at(model.KindIn, 6, 9, 0)},
			worked:   0,
			workDays: 1,
		},
		{
			name: "end-break without break is ignored",
			events: []model.Punch{
				at(model.KindIn, 7, 9, 0),
				at(model.KindEndBreak, 7, 10, 0),
				at(model.KindOut, 7, 11, 0),
			},
			worked:   2 * hourMs,
			workDays: 1,
		},
		{
			name: "duplicate in restarts the span",
			events: []model.Punch{
				at(model.KindIn, 7, 9, 0),
				at(model.KindIn, 7, 10, 0),
				at(model.KindOut, 7, 12, 0),
			},
			worked:   2 * hourMs,
			workDays: 1,
		},
		{
			name: "out while on break counts nothing",
			events: []model.Punch{
				at(model.KindIn, 8, 9, 0),
				at(model.KindStartBreak, 8, 12, 0),
				at(model.KindOut, 8, 13, 0),
			},
			worked:   3 * hourMs,
			workDays: 1,
		},
		{
			name: "unknown kind is a no-op but counts the day",
			events: []model.Punch{
				{Kind: "lunch", Timestamp: time.Date(2026, 10, 9, 12, 0, 0, 0, brt)},
			},
			worked:   0,
			workDays: 1,
		},
		{
			name: "two days",
			events: []model.Punch{
				at(model.KindIn, 1, 8, 0), at(model.KindOut, 1, 18, 0),
				at(model.KindIn, 2, 9, 0), at(model.KindOut, 2, 15, 0),
			},
			worked:   16 * hourMs,
			workDays: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timecalc.ComputeMonthlySummary(tt.events, ref)
			if got.TotalWorkedMs != tt.worked {
				t.Errorf("TotalWorkedMs = %d, want %d", got.TotalWorkedMs, tt.worked)
			}
			if got.WorkDays != tt.workDays {
				t.Errorf("WorkDays = %d, want %d", got.WorkDays, tt.workDays)
			}
			if got.ExpectedMs != int64(tt.workDays)*timecalc.ExpectedPerDayMs {
				t.Errorf("ExpectedMs = %d, want %d", got.ExpectedMs, int64(tt.workDays)*timecalc.ExpectedPerDayMs)
			}
			if got.BalanceMs != got.TotalWorkedMs-got.ExpectedMs {
				t.Errorf("BalanceMs = %d, want %d", got.BalanceMs, got.TotalWorkedMs-got.ExpectedMs)
			}
		})
	}
}

func TestComputeMonthlySummaryExcludesOtherMonths(t *testing.T) {
	events := []model.Punch{
		at(model.KindIn, 5, 9, 0), at(model.KindOut, 5, 17, 0),
		// September, same year.
		{Kind: model.KindIn, Timestamp: time.Date(2026, 9, 30, 9, 0, 0, 0, brt)},
		{Kind: model.KindOut, Timestamp: time.Date(2026, 9, 30, 19, 0, 0, 0, brt)},
		// October, previous year.
		{Kind: model.KindIn, Timestamp: time.Date(2025, 10, 5, 9, 0, 0, 0, brt)},
		{Kind: model.KindOut, Timestamp: time.Date(2025, 10, 5, 19, 0, 0, 0, brt)},
	}
	got := timecalc.ComputeMonthlySummary(events, ref)
	want := timecalc.MonthlySummary{
		TotalWorkedMs: 8 * hourMs,
		ExpectedMs:    8 * hourMs,
		BalanceMs:     0,
		WorkDays:      1,
	}
	if got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
}

func TestComputeMonthlySummaryUsesReferenceLocation(t *testing.T) {
	// 2026-11-01 01:00 UTC is still 2026-10-31 22:00 in BRT.
	events := []model.Punch{
		{Kind: model.KindIn, Timestamp: time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC)},
		{Kind: model.KindOut, Timestamp: time.Date(2026, 11, 1, 1, 0, 0, 0, time.UTC)},
	}

	got := timecalc.ComputeMonthlySummary(events, ref)
	if got.WorkDays != 1 || got.TotalWorkedMs != 5*hourMs {
		t.Errorf("BRT summary = %+v, want one day with 5h", got)
	}

	utcRef := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	got = timecalc.ComputeMonthlySummary(events, utcRef)
	if got.WorkDays != 1 || got.TotalWorkedMs != 0 {
		t.Errorf("UTC summary = %+v, want one day with 0h", got)
	}
}

func TestComputeMonthlySummaryIdempotent(t *testing.T) {
	events := []model.Punch{
		at(model.KindIn, 5, 9, 0), at(model.KindStartBreak, 5, 12, 0),
		at(model.KindEndBreak, 5, 13, 0), at(model.KindOut, 5, 18, 30),
		at(model.KindIn, 6, 9, 0),
	}
	first := timecalc.ComputeMonthlySummary(events, ref)
	second := timecalc.ComputeMonthlySummary(events, ref)
	if first != second {
		t.Errorf("repeated runs differ: %+v vs %+v", first, second)
	}
}

func TestComputeMonthlySummaryOrderIndependent(t *testing.T) {
	base := []model.Punch{
		at(model.KindIn, 12, 8, 0),
		at(model.KindStartBreak, 12, 11, 45),
		at(model.KindEndBreak, 12, 12, 30),
		at(model.KindStartBreak, 12, 15, 0),
		at(model.KindEndBreak, 12, 15, 10),
		at(model.KindOut, 12, 17, 20),
	}
	want := timecalc.ComputeMonthlySummary(base, ref)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]model.Punch(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := timecalc.ComputeMonthlySummary(shuffled, ref); got != want {
			t.Fatalf("permutation %d: summary = %+v, want %+v", i, got, want)
		}
	}
}

func TestComputeMonthlySummaryDoesNotReorderInput(t *testing.T) {
	events := []model.Punch{at(model.KindOut, 5, 17, 0), at(model.KindIn, 5, 9, 0)}
	snapshot := append([]model.Punch(nil), events...)
	timecalc.ComputeMonthlySummary(events, ref)
	if !reflect.DeepEqual(events, snapshot) {
		t.Error("ComputeMonthlySummary reordered the caller's slice")
	}
}

func TestSummarizeDays(t *testing.T) {
	events := []model.Punch{
		at(model.KindIn, 3, 9, 0),
		at(model.KindIn, 2, 9, 0), at(model.KindOut, 2, 17, 0),
		at(model.KindIn, 3, 10, 0), at(model.KindStartBreak, 3, 12, 0),
	}
	days := timecalc.SummarizeDays(events, ref)
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	if days[0].Date != "2026-10-02" || days[0].WorkedMs != 8*hourMs || days[0].State != timecalc.StateOff {
		t.Errorf("day 0 = %+v", days[0])
	}
	if days[1].Date != "2026-10-03" || days[1].WorkedMs != 2*hourMs || days[1].Punches != 3 || days[1].State != timecalc.StateBreak {
		t.Errorf("day 1 = %+v", days[1])
	}
}

func TestReplayDayState(t *testing.T) {
	worked, state := timecalc.ReplayDay([]model.Punch{
		at(model.KindIn, 4, 9, 0),
		at(model.KindStartBreak, 4, 12, 0),
		at(model.KindEndBreak, 4, 12, 30),
	})
	if worked != 3*hourMs {
		t.Errorf("worked = %d, want %d", worked, 3*hourMs)
	}
	if state != timecalc.StateWorking {
		t.Errorf("state = %q, want %q", state, timecalc.StateWorking)
	}

	worked, state = timecalc.ReplayDay(nil)
	if worked != 0 || state != timecalc.StateOff {
		t.Errorf("ReplayDay(nil) = %d, %q", worked, state)
	}
}
