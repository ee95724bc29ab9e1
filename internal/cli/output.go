package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rohmanhakim/cfcli/internal/apiclient"
	"github.com/rohmanhakim/cfcli/internal/poller"
	"github.com/rohmanhakim/cfcli/internal/scraper"
	"github.com/rohmanhakim/cfcli/internal/websession"
)

var (
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	pendingColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

const (
	maxContestNameWidth = 50
	startTimeLayout     = "2006-01-02 15:04:05"
	inQueue             = "IN QUEUE"
)

// verdictColor is green for an accepted solution, yellow while judging and
// red for every other verdict.
func verdictColor(verdict string) *color.Color {
	switch {
	case verdict == "OK":
		return successColor
	case poller.IsQueued(verdict) || strings.EqualFold(verdict, inQueue):
		return pendingColor
	default:
		return failureColor
	}
}

func writeContestTable(w io.Writer, contests []apiclient.Contest) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Name", "Start Time", "Duration"})

	var data [][]string
	for _, c := range contests {
		data = append(data, []string{
			strconv.Itoa(c.ID),
			truncate(c.Name, maxContestNameWidth),
			time.Unix(c.StartTimeSeconds, 0).Local().Format(startTimeLayout),
			formatDuration(c.DurationSeconds),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeSubmissionTable(w io.Writer, rows []scraper.SubmissionRow) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Problem", "Verdict", "Time", "Memory"})

	var data [][]string
	for _, r := range rows {
		verdict := strings.TrimSpace(r.Verdict)
		if verdict == "" || verdict == scraper.UnknownField {
			verdict = inQueue
		}
		data = append(data, []string{
			r.RawID,
			r.ProblemIndex,
			verdictColor(verdict).Sprint(verdict),
			r.Time,
			r.Memory,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeVerdict(w io.Writer, outcome poller.Outcome) {
	if outcome.State != poller.StateTerminal {
		pendingColor.Fprintln(w, outcome.Message())
		return
	}
	st := outcome.Status
	verdictColor(st.Verdict).Fprintf(w, "Verdict: %s\n", st.Verdict)
	fmt.Fprintf(w, "Time: %s ms\n", st.TimeConsumedMillis)
	fmt.Fprintf(w, "Memory: %s KB\n", kilobytes(st.MemoryConsumedBytes))
	if st.TestCount.Known {
		fmt.Fprintf(w, "Tests: %s/%d\n", st.PassedTestCount, st.TestCount.Value)
	}
}

func kilobytes(m websession.Metric) websession.Metric {
	if !m.Known {
		return m
	}
	return websession.KnownMetric(m.Value / 1024)
}

func formatDuration(seconds int64) string {
	minutes := seconds / 60
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
