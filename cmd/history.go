package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/punch"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

var (
	historyToday bool
	historyWeek  bool
	historyMonth string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List punches (use --user to browse another employee)",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyToday, "today", false, "Show today's punches (default)")
	historyCmd.Flags().BoolVar(&historyWeek, "week", false, "Show this week's punches")
	historyCmd.Flags().StringVar(&historyMonth, "month", "", "Show a month's punches (YYYY-MM)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	now := a.now()
	var from, to time.Time
	switch {
	case historyMonth != "":
		ref, err := timecalc.ParseMonth(historyMonth, a.loc)
		if err != nil {
			return userError("%v", err)
		}
		from, to = timecalc.MonthRange(ref)
	case historyWeek:
		from, to = timecalc.WeekRange(now)
	default:
		// Default to today (covers --today and the bare command).
		from = timecalc.StartOfDay(now)
		to = timecalc.EndOfDay(now)
	}

	punches, err := a.store.Punches(cmd.Context(), a.cfg.UserID, from, to)
	if err != nil {
		return systemError(err)
	}

	if viper.GetBool("json") {
		return printJSON(cmd.OutOrStdout(), punches)
	}
	printHistory(cmd.OutOrStdout(), punches, a.loc)
	return nil
}

// printHistory prints punches as a table, one row per punch, newest day last.
func printHistory(w io.Writer, punches []model.Punch, loc *time.Location) {
	if len(punches) == 0 {
		fmt.Fprintln(w, "No punches found.")
		return
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Date", "Time", "Type", "Location", "Source"})
	var currentDay string
	for _, p := range punches {
		ts := p.Timestamp.In(loc)
		day := ts.Format("2006-01-02")
		if day != currentDay && currentDay != "" {
			tw.AppendSeparator()
		}
		currentDay = day
		tw.AppendRow(table.Row{day, ts.Format("15:04:05"), punch.Label(p.Kind), coords(p.Latitude, p.Longitude), p.Source})
	}
	tw.Render()
}
