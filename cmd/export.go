package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/punch"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

var (
	exportFormat string
	exportMonth  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a month of punches to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json")
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "Month to export (YYYY-MM, default current)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	ref := a.now()
	if exportMonth != "" {
		if ref, err = timecalc.ParseMonth(exportMonth, a.loc); err != nil {
			return userError("%v", err)
		}
	}
	from, to := timecalc.MonthRange(ref)

	punches, err := a.store.Punches(cmd.Context(), a.cfg.UserID, from, to)
	if err != nil {
		return systemError(err)
	}

	switch exportFormat {
	case "json":
		return printJSON(cmd.OutOrStdout(), punches)
	case "csv":
		printCSV(cmd.OutOrStdout(), punches, a.loc)
		return nil
	default:
		return userError("unknown format %q (want csv or json)", exportFormat)
	}
}

func printCSV(w io.Writer, punches []model.Punch, loc *time.Location) {
	fmt.Fprintln(w, "date,time,type,label,latitude,longitude,source,id,external_id")
	for _, p := range punches {
		ts := p.Timestamp.In(loc)
		lat, lng := "", ""
		if p.HasLocation() {
			lat = fmt.Sprintf("%.6f", *p.Latitude)
			lng = fmt.Sprintf("%.6f", *p.Longitude)
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			csvEscape(ts.Format("2006-01-02")),
			csvEscape(ts.Format(time.RFC3339)),
			csvEscape(string(p.Kind)),
			csvEscape(punch.Label(p.Kind)),
			lat,
			lng,
			csvEscape(p.Source),
			csvEscape(p.ID),
			csvEscape(p.ExternalID),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
