// Package presenter renders a lateness report as a text table or as bar charts.
package presenter

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/terminus-adherence/pkg/terminus/models"
)

// NoDataMessage is shown instead of a table or charts for an empty report
const NoDataMessage = "No matching terminus pairs found for selected filters."

// ErrNoData is returned by renderers that have nothing to draw for an empty report
var ErrNoData = errors.New("presenter: report has no data")

// WriteText writes one row per line with the three late percentages
func WriteText(w io.Writer, report *models.Report) error {
	if _, err := fmt.Fprintf(w, "Category: %s | Dates: %s to %s | Late above %.1f min\n",
		report.Category,
		formatDate(report.From),
		formatDate(report.To),
		report.LateThresholdMinutes); err != nil {
		return err
	}

	if report.NoData {
		_, err := fmt.Fprintln(w, NoDataMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Line\tPairs\tArrival late %\tDeparture late %\tBoth late %\t")
	for _, id := range report.LineIDs() {
		s := report.Lines[id]
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%.1f\t\n", id, s.Pairs, s.PctArrivalLate, s.PctDepartureLate, s.PctBothLate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Shared axis max: %.0f%%\n", report.SharedAxisMax)
	return err
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format(models.DateLayout)
}
