// Package submit submits one batch job per stage, chaining each job on the
// completion of the previous one.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrChainAborted is returned when a stage's submission reported no job id.
// Stages submitted before the abort are left in the scheduler.
var ErrChainAborted = errors.New("job id not found, chain aborted")

// Placeholder arguments for the first stage, which has no predecessor.
const (
	FirstStageOutput     = "job0"
	FirstStageDependency = "## JOB 0"
)

// Invocation is one call of the submission program.
type Invocation struct {
	Program string
	Args    []string
}

func (i Invocation) String() string {
	return strings.TrimSpace(i.Program + " " + strings.Join(i.Args, " "))
}

// StageResult describes the outcome of submitting one stage.
type StageResult struct {
	Index      int // 0-based position in the chain
	File       string
	Invocation Invocation
	Output     string
	State      State
	// Err is the runner error, if any. It does not affect chain progress:
	// only a missing job id aborts.
	Err error
}

// Stage returns the 1-based stage number.
func (r StageResult) Stage() int {
	return r.Index + 1
}

// Report summarizes a chain run.
type Report struct {
	Phase  Phase
	Total  int
	Stages []StageResult
}

// Submitted returns the number of stages that produced a job id.
func (r Report) Submitted() int {
	n := 0
	for _, s := range r.Stages {
		if s.State.Submitted() {
			n++
		}
	}
	return n
}

// Observer receives chain progress.
type Observer interface {
	StageStarted(index, total int, inv Invocation)
	StageSubmitted(res StageResult)
	ChainAborted(res StageResult)
	ChainCompleted(rep Report)
}

// Submitter submits stage files in order through an external program.
type Submitter struct {
	program  string
	site     string
	planPath string
	runner   Runner
	parser   Parser
	observer Observer
	logger   *zap.Logger
}

// New creates a Submitter that invokes program for every stage.
func New(program, site, planPath string) *Submitter {
	return &Submitter{
		program:  program,
		site:     site,
		planPath: planPath,
		runner:   NewExecRunner(),
		parser:   DefaultParser,
		observer: nopObserver{},
		logger:   zap.NewNop(),
	}
}

// WithRunner sets a custom runner (useful for testing).
func (s *Submitter) WithRunner(r Runner) *Submitter {
	s.runner = r
	return s
}

// WithParser sets the parser used to read the submission output.
func (s *Submitter) WithParser(p Parser) *Submitter {
	s.parser = p
	return s
}

// WithObserver sets the observer notified of chain progress.
func (s *Submitter) WithObserver(o Observer) *Submitter {
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
	return s
}

// WithLogger sets the diagnostic logger.
func (s *Submitter) WithLogger(l *zap.Logger) *Submitter {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
	return s
}

// Args builds the submission program arguments for the stage at index,
// given the state left by the previous stage.
func (s *Submitter) Args(index int, stageFile string, prev State) []string {
	stage := strconv.Itoa(index + 1)
	args := []string{s.site, "-a", "cfg-sys-s" + stage + ".sh", s.planPath, stageFile, stage}
	if prev.Submitted() {
		return append(args, prev.TurbineOutput, Dependency(prev.JobID))
	}
	return append(args, FirstStageOutput, FirstStageDependency)
}

// Dependency returns the scheduler directive that holds a job until jobID
// has completed.
func Dependency(jobID string) string {
	return fmt.Sprintf("#BSUB -w done(%s)", jobID)
}

// SubmitStage submits a single stage and returns its result together with
// the state for the next stage. The returned state replaces prev entirely.
func (s *Submitter) SubmitStage(ctx context.Context, index int, stageFile string, prev State) (StageResult, State) {
	inv := Invocation{Program: s.program, Args: s.Args(index, stageFile, prev)}

	s.logger.Debug("submitting stage",
		zap.Int("stage", index+1),
		zap.String("file", stageFile),
		zap.Strings("args", inv.Args))

	out, err := s.runner.Run(ctx, inv.Program, inv.Args)
	if err != nil {
		s.logger.Warn("submission program failed",
			zap.Int("stage", index+1),
			zap.String("program", inv.Program),
			zap.Error(err))
	}

	next := s.parser.Parse(out)
	return StageResult{
		Index:      index,
		File:       stageFile,
		Invocation: inv,
		Output:     out,
		State:      next,
		Err:        err,
	}, next
}

// Submit submits stageFiles in order. Each submission after the first
// depends on the job of the previous one. If a stage reports no job id the
// remaining stages are not submitted and ErrChainAborted is returned.
func (s *Submitter) Submit(ctx context.Context, stageFiles []string) (Report, error) {
	report := Report{Phase: PhaseReady, Total: len(stageFiles)}

	var state State
	for i, file := range stageFiles {
		report.Phase = PhaseAdvancing
		s.observer.StageStarted(i, len(stageFiles), Invocation{
			Program: s.program,
			Args:    s.Args(i, file, state),
		})

		res, next := s.SubmitStage(ctx, i, file, state)
		report.Stages = append(report.Stages, res)
		s.observer.StageSubmitted(res)

		if !next.Submitted() {
			report.Phase = PhaseAborted
			s.logger.Error("chain aborted",
				zap.Int("stage", res.Stage()),
				zap.Int("remaining", len(stageFiles)-i-1))
			s.observer.ChainAborted(res)
			return report, fmt.Errorf("stage %d: %w", res.Stage(), ErrChainAborted)
		}
		state = next
	}

	report.Phase = PhaseDone
	s.observer.ChainCompleted(report)
	return report, nil
}

type nopObserver struct{}

func (nopObserver) StageStarted(int, int, Invocation) {}
func (nopObserver) StageSubmitted(StageResult)        {}
func (nopObserver) ChainAborted(StageResult)          {}
func (nopObserver) ChainCompleted(Report)             {}

// Observers fans chain progress out to several observers in order.
type Observers []Observer

func (obs Observers) StageStarted(index, total int, inv Invocation) {
	for _, o := range obs {
		o.StageStarted(index, total, inv)
	}
}

func (obs Observers) StageSubmitted(res StageResult) {
	for _, o := range obs {
		o.StageSubmitted(res)
	}
}

func (obs Observers) ChainAborted(res StageResult) {
	for _, o := range obs {
		o.ChainAborted(res)
	}
}

func (obs Observers) ChainCompleted(rep Report) {
	for _, o := range obs {
		o.ChainCompleted(rep)
	}
}
