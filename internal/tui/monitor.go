// Package tui renders a live view of a chain submission.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/candle-hpc/upfchain/internal/submit"
)

// monitorState represents the current state of the monitor.
type monitorState int

const (
	stateRunning monitorState = iota
	stateCancelling
	stateDone
	stateAborted
	stateFailed
)

// Stage status values shown in the stage list.
const (
	statusPending   = "pending"
	statusRunning   = "running"
	statusSubmitted = "submitted"
	statusFailed    = "failed"
)

// StageDisplay holds display information for a stage.
type StageDisplay struct {
	File   string
	JobID  string
	ExpID  string
	Status string
}

// Model is the Bubble Tea model for the chain monitor.
type Model struct {
	state      monitorState
	stages     []StageDisplay
	startTime  time.Time
	lastOutput string
	err        error

	spinner spinner.Model
	bar     progress.Model

	cancel context.CancelFunc
}

// NewModel creates a monitor. cancel is invoked when the user interrupts a
// running chain; it may be nil.
func NewModel(cancel context.CancelFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ActiveStyle

	return Model{
		state:     stateRunning,
		startTime: time.Now(),
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel:    cancel,
	}
}

// Stages returns the stage list as currently displayed.
func (m Model) Stages() []StageDisplay {
	return m.stages
}

// Err returns the error the chain finished with, if any.
func (m Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.state == stateRunning {
				// The chain goroutine reports back with ChainFinishedMsg.
				m.state = stateCancelling
				if m.cancel != nil {
					m.cancel()
				}
				return m, nil
			}
			if m.state != stateCancelling {
				return m, tea.Quit
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-20, 10), 60)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StageStartedMsg:
		m.ensureStages(msg.Total)
		if msg.Index < len(m.stages) {
			m.stages[msg.Index].Status = statusRunning
			m.stages[msg.Index].File = stageFile(msg.Invocation)
		}
		return m, nil

	case StageSubmittedMsg:
		res := msg.Result
		m.ensureStages(res.Index + 1)
		st := &m.stages[res.Index]
		st.File = res.File
		st.JobID = res.State.JobID
		st.ExpID = res.State.ExperimentID()
		st.Status = statusSubmitted
		if !res.State.Submitted() {
			st.Status = statusFailed
		}
		m.lastOutput = strings.TrimSpace(res.Output)
		return m, nil

	case ChainAbortedMsg:
		m.state = stateAborted
		return m, nil

	case ChainCompletedMsg:
		m.state = stateDone
		return m, nil

	case ChainFinishedMsg:
		m.err = msg.Err
		if m.state == stateRunning || m.state == stateCancelling {
			m.state = stateFailed
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) ensureStages(n int) {
	for len(m.stages) < n {
		m.stages = append(m.stages, StageDisplay{Status: statusPending})
	}
}

// stageFile returns the stage-file argument of an invocation.
func stageFile(inv submit.Invocation) string {
	if len(inv.Args) > 4 {
		return inv.Args[4]
	}
	return ""
}

func (m Model) submitted() int {
	n := 0
	for _, s := range m.stages {
		if s.Status == statusSubmitted {
			n++
		}
	}
	return n
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("upfchain: chained stage submission"))
	b.WriteString("\n")

	total := len(m.stages)
	percent := 0.0
	if total > 0 {
		percent = float64(m.submitted()) / float64(total)
	}
	fmt.Fprintf(&b, "%s  %d/%d stages\n\n", m.bar.ViewAs(percent), m.submitted(), total)

	for i, s := range m.stages {
		var indicator string
		switch s.Status {
		case statusRunning:
			if m.state == stateRunning {
				indicator = m.spinner.View()
			} else {
				indicator = "…"
			}
		case statusSubmitted:
			indicator = SuccessStyle.Render("✓")
		case statusFailed:
			indicator = ErrorStyle.Render("✗")
		default:
			indicator = SubtleStyle.Render("·")
		}

		line := fmt.Sprintf("%s Stage %d", indicator, i+1)
		if s.JobID != "" {
			line += fmt.Sprintf("  job %s", s.JobID)
		}
		if s.ExpID != "" {
			line += SubtleStyle.Render("  " + s.ExpID)
		}
		if s.File != "" {
			line += SubtleStyle.Render("  " + s.File)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.lastOutput != "" {
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(m.lastOutput))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	elapsed := time.Since(m.startTime).Round(time.Second)
	switch m.state {
	case stateRunning:
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("Submitting... %s  (q to cancel)", elapsed)))
	case stateCancelling:
		b.WriteString(SubtleStyle.Render("Cancelling..."))
	case stateDone:
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("All %d jobs submitted in %s", m.submitted(), elapsed)))
	case stateAborted:
		b.WriteString(ErrorStyle.Render("JOB_ID NOT FOUND - ABORTING RUNS"))
	case stateFailed:
		msg := "Run failed"
		if m.err != nil {
			msg = fmt.Sprintf("Run failed: %v", m.err)
		}
		b.WriteString(ErrorStyle.Render(msg))
	}
	b.WriteString("\n")

	return b.String()
}

// RunChain runs fn in the background while rendering the monitor in the
// terminal. fn receives an observer to pass to the submitter and a context
// that is cancelled if the user interrupts. It returns fn's error.
func RunChain(ctx context.Context, fn func(ctx context.Context, obs submit.Observer) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(cancel), opts...)
	obs := NewObserver(p.Send)

	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx, obs)
		errCh <- err
		p.Send(ChainFinishedMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("monitor failed: %w", err)
	}
	return <-errCh
}
