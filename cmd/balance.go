package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tiliavir/ponto/internal/timecalc"
)

var (
	balanceMonth  string
	balanceFormat string
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the monthly worked-hours balance",
	Args:  cobra.NoArgs,
	RunE:  runBalance,
}

func init() {
	balanceCmd.Flags().StringVar(&balanceMonth, "month", "", "Month to report (YYYY-MM, default current)")
	balanceCmd.Flags().StringVar(&balanceFormat, "format", "md", "Output format: md, csv, json")
}

// balanceReport is the JSON shape of the balance command.
type balanceReport struct {
	Month   string                  `json:"month"`
	Summary timecalc.MonthlySummary `json:"summary"`
	Days    []timecalc.DaySummary   `json:"days"`
}

func runBalance(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	ref := a.now()
	if balanceMonth != "" {
		ref, err = timecalc.ParseMonth(balanceMonth, a.loc)
		if err != nil {
			return userError("%v", err)
		}
	}

	from, to := timecalc.MonthRange(ref)
	punches, err := a.store.Punches(cmd.Context(), a.cfg.UserID, from, to)
	if err != nil {
		return systemError(err)
	}

	report := balanceReport{
		Month:   timecalc.MonthLabel(ref),
		Summary: timecalc.ComputeMonthlySummary(punches, ref),
		Days:    timecalc.SummarizeDays(punches, ref),
	}

	format := balanceFormat
	if viper.GetBool("json") {
		format = "json"
	}
	return printBalance(cmd.OutOrStdout(), report, format)
}

// hours converts milliseconds to decimal hours rounded to two places.
func hours(ms int64) decimal.Decimal {
	return decimal.NewFromInt(ms).Div(decimal.NewFromInt(int64(time.Hour / time.Millisecond))).Round(2)
}

func printBalance(w io.Writer, r balanceReport, format string) error {
	switch format {
	case "json":
		return printJSON(w, r)
	case "csv":
		fmt.Fprintln(w, "date,punches,worked_hours,balance_hours")
		for _, d := range r.Days {
			fmt.Fprintf(w, "%s,%d,%s,%s\n", d.Date, d.Punches,
				hours(d.WorkedMs).StringFixed(2), hours(d.WorkedMs-timecalc.ExpectedPerDayMs).StringFixed(2))
		}
		fmt.Fprintf(w, "total,,%s,%s\n", hours(r.Summary.TotalWorkedMs).StringFixed(2), hours(r.Summary.BalanceMs).StringFixed(2))
		return nil
	case "md", "":
		fmt.Fprintf(w, "Month %s\n", r.Month)
		if len(r.Days) > 0 {
			tw := newTable(w)
			tw.AppendHeader(table.Row{"Date", "Punches", "Worked", "Balance"})
			for _, d := range r.Days {
				tw.AppendRow(table.Row{d.Date, d.Punches,
					timecalc.FormatDurationHMS(d.WorkedMs),
					timecalc.FormatDurationHMS(d.WorkedMs - timecalc.ExpectedPerDayMs)})
			}
			tw.Render()
		}
		fmt.Fprintf(w, "%-10s%d\n", "Days", r.Summary.WorkDays)
		fmt.Fprintf(w, "%-10s%s\n", "Worked", timecalc.FormatDurationHMS(r.Summary.TotalWorkedMs))
		fmt.Fprintf(w, "%-10s%s\n", "Expected", timecalc.FormatDurationHMS(r.Summary.ExpectedMs))
		fmt.Fprintf(w, "%-10s%s\n", "Balance", timecalc.FormatDurationHMS(r.Summary.BalanceMs))
		return nil
	default:
		return userError("unknown format %q (want md, csv or json)", format)
	}
}
