package submit

import "strings"

// Phase is the position of a chain in its lifecycle.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseAdvancing
	PhaseAborted
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseAdvancing:
		return "advancing"
	case PhaseAborted:
		return "aborted"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// State is the data carried from one stage's submission to the next.
type State struct {
	TurbineOutput string
	JobID         string
}

// Submitted reports whether the state refers to a scheduled job.
func (s State) Submitted() bool {
	return s.JobID != ""
}

// ExperimentID returns the final path component of TurbineOutput.
func (s State) ExperimentID() string {
	return s.TurbineOutput[strings.LastIndex(s.TurbineOutput, "/")+1:]
}
