package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/punch"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's punches and time worked so far",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var stateLabels = map[timecalc.State]string{
	timecalc.StateOff:     "Fora do expediente",
	timecalc.StateWorking: "Trabalhando",
	timecalc.StateBreak:   "Em intervalo",
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	now := a.now()
	today, err := a.store.Punches(cmd.Context(), a.cfg.UserID, timecalc.StartOfDay(now), timecalc.EndOfDay(now))
	if err != nil {
		return systemError(err)
	}

	if viper.GetBool("json") {
		return printJSON(cmd.OutOrStdout(), newStatusReport(today, now))
	}
	printStatus(cmd.OutOrStdout(), today, now)
	return nil
}

// statusReport is the --json form of status.
type statusReport struct {
	Date     string         `json:"date"`
	State    timecalc.State `json:"state"`
	WorkedMs int64          `json:"worked_ms"`
	Next     []string       `json:"next"`
	Punches  []model.Punch  `json:"punches"`
}

func newStatusReport(today []model.Punch, now time.Time) statusReport {
	worked, state := workedSoFar(today, now)
	var last model.Kind
	if len(today) > 0 {
		last = today[len(today)-1].Kind
	}
	if today == nil {
		today = []model.Punch{}
	}
	return statusReport{
		Date:     now.Format("2006-01-02"),
		State:    state,
		WorkedMs: worked,
		Next:     nextAllowed(last),
		Punches:  today,
	}
}

// workedSoFar replays today's punches and, while working, counts up to now.
func workedSoFar(today []model.Punch, now time.Time) (int64, timecalc.State) {
	_, state := timecalc.ReplayDay(today)
	if state != timecalc.StateWorking {
		return timecalc.ReplayDay(today)
	}
	closed := append(append([]model.Punch(nil), today...), model.Punch{Kind: model.KindOut, Timestamp: now})
	timecalc.SortPunches(closed)
	worked, _ := timecalc.ReplayDay(closed)
	return worked, state
}

// nextAllowed lists the punch kinds the guard accepts after last.
func nextAllowed(last model.Kind) []string {
	var out []string
	for _, k := range punch.Kinds() {
		if punch.ValidateTransition(last, k).OK {
			out = append(out, string(k))
		}
	}
	return out
}

func printStatus(w io.Writer, today []model.Punch, now time.Time) {
	if len(today) == 0 {
		fmt.Fprintln(w, "No punches today.")
		fmt.Fprintf(w, "Next: %s\n", strings.Join(nextAllowed(""), ", "))
		return
	}

	fmt.Fprintln(w, now.Format("2006-01-02"))
	for _, p := range today {
		fmt.Fprintf(w, "  %s  %s\n", p.Timestamp.In(now.Location()).Format("15:04"), punch.Label(p.Kind))
	}

	worked, state := workedSoFar(today, now)
	fmt.Fprintf(w, "Status: %s\n", stateLabels[state])
	fmt.Fprintf(w, "Worked: %s\n", timecalc.FormatDurationHMS(worked))
	fmt.Fprintf(w, "Next: %s\n", strings.Join(nextAllowed(today[len(today)-1].Kind), ", "))
}
