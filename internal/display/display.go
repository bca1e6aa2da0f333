// Package display writes the human-readable stage summary and chain log.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/candle-hpc/upfchain/internal/submit"
	"github.com/candle-hpc/upfchain/internal/upf"
)

// Styles groups the styles used for one writer. Colors are dropped
// automatically when the writer is not a terminal.
type Styles struct {
	Header  lipgloss.Style
	Subtle  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles creates styles rendered for w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFAF")),
		Subtle:  r.NewStyle().Foreground(lipgloss.Color("#666666")),
		Success: r.NewStyle().Foreground(lipgloss.Color("#87AF87")),
		Error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#AF5F5F")),
	}
}

// Summary prints the banner and one line per generated stage. The banner
// announces a submission unless generateOnly is set, as for dry runs.
func Summary(w io.Writer, res upf.Result, nodes int, generateOnly bool) {
	st := NewStyles(w)
	banner := "Submitting %d jobs for stages: %d, nodes: %d"
	if generateOnly {
		banner = "Generated %d stage files for stages: %d, nodes: %d"
	}
	fmt.Fprintln(w, st.Header.Render(fmt.Sprintf(banner, res.Stages(), res.Stages(), nodes)))
	for i, c := range res.Counts {
		fmt.Fprintf(w, "\tStage: %d, UPF: %s, Model Runs: %d\n", i+1, res.Files[i], c)
	}
	if res.Stages() > 1 {
		fmt.Fprintln(w, st.Subtle.Render(fmt.Sprintf("\tTotal model runs: %s", humanize.Comma(int64(res.Total())))))
	}
}

// ChainLog prints chain progress as it happens. It implements submit.Observer.
type ChainLog struct {
	w         io.Writer
	styles    Styles
	startTime time.Time
}

// NewChainLog creates a ChainLog writing to w.
func NewChainLog(w io.Writer) *ChainLog {
	return &ChainLog{w: w, styles: NewStyles(w)}
}

// StageStarted implements submit.Observer.
func (c *ChainLog) StageStarted(index, total int, inv submit.Invocation) {
	if index == 0 {
		c.startTime = time.Now()
	}
}

// StageSubmitted prints the stage block: header, invocation, raw output and
// the resolved values.
func (c *ChainLog) StageSubmitted(res submit.StageResult) {
	header := fmt.Sprintf("########### JOB %d - %s - %s ##############",
		res.Index, res.State.ExperimentID(), res.State.JobID)

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.styles.Header.Render(header))
	fmt.Fprintf(c.w, "Running: %s\n", res.Invocation)
	fmt.Fprintln(c.w, res.Output)
	fmt.Fprintf(c.w, "TURBINE_OUTPUT: %s\n", res.State.TurbineOutput)
	fmt.Fprintf(c.w, "JOB_ID: %s\n\n", res.State.JobID)
}

// ChainAborted prints the abort notice.
func (c *ChainLog) ChainAborted(res submit.StageResult) {
	fmt.Fprintln(c.w, c.styles.Error.Render("JOB_ID NOT FOUND - ABORTING RUNS"))
	if res.Err != nil {
		fmt.Fprintln(c.w, c.styles.Subtle.Render(fmt.Sprintf("submission program: %v", res.Err)))
	}
}

// ChainCompleted prints a one-line completion message.
func (c *ChainLog) ChainCompleted(rep submit.Report) {
	ids := make([]string, 0, len(rep.Stages))
	for _, s := range rep.Stages {
		ids = append(ids, s.State.JobID)
	}
	msg := fmt.Sprintf("Chain submitted: %d jobs (%s)", rep.Submitted(), formatDuration(time.Since(c.startTime)))
	if len(ids) > 0 {
		msg += " → " + strings.Join(ids, " → ")
	}
	fmt.Fprintln(c.w, c.styles.Success.Render(msg))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
