package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/candle-hpc/upfchain/internal/submit"
)

// StageStartedMsg is sent before a stage is handed to the submission program.
type StageStartedMsg struct {
	Index      int
	Total      int
	Invocation submit.Invocation
}

// StageSubmittedMsg carries the parsed result of one submission.
type StageSubmittedMsg struct {
	Result submit.StageResult
}

// ChainAbortedMsg is sent when a stage reported no job id.
type ChainAbortedMsg struct {
	Result submit.StageResult
}

// ChainCompletedMsg is sent when every stage was submitted.
type ChainCompletedMsg struct {
	Report submit.Report
}

// ChainFinishedMsg is sent once the run function has returned.
type ChainFinishedMsg struct {
	Err error
}

// Observer forwards chain progress to a running program as messages.
// It implements submit.Observer.
type Observer struct {
	send func(tea.Msg)
}

// NewObserver creates an Observer delivering messages through send,
// typically (*tea.Program).Send.
func NewObserver(send func(tea.Msg)) *Observer {
	return &Observer{send: send}
}

func (o *Observer) StageStarted(index, total int, inv submit.Invocation) {
	o.send(StageStartedMsg{Index: index, Total: total, Invocation: inv})
}

func (o *Observer) StageSubmitted(res submit.StageResult) {
	o.send(StageSubmittedMsg{Result: res})
}

func (o *Observer) ChainAborted(res submit.StageResult) {
	o.send(ChainAbortedMsg{Result: res})
}

func (o *Observer) ChainCompleted(rep submit.Report) {
	o.send(ChainCompletedMsg{Report: rep})
}
