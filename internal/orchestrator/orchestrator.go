// Package orchestrator runs a campaign end to end: read the plan bounds,
// generate the stage files and submit the chained jobs.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/candle-hpc/upfchain/internal/display"
	"github.com/candle-hpc/upfchain/internal/plan"
	"github.com/candle-hpc/upfchain/internal/progress"
	"github.com/candle-hpc/upfchain/internal/submit"
	"github.com/candle-hpc/upfchain/internal/upf"
)

// Unset requests the plan maximum for nodes or stages.
const Unset = -1

// Config holds the inputs of one run.
type Config struct {
	PlanPath      string
	Nodes         int
	Stages        int
	UPFDir        string
	Site          string
	SubmitProgram string
	// DryRun generates the stage files without submitting them.
	DryRun bool
}

// ClampNodes returns the node count to use and whether the request was
// replaced by the plan maximum. Only a request above the maximum is clamped.
func ClampNodes(requested, maxNodes int) (int, bool) {
	if requested == Unset || requested > maxNodes {
		return maxNodes, true
	}
	return requested, false
}

// ClampStages returns the stage count to use and whether the request was
// replaced by the plan maximum. Unlike ClampNodes, a request equal to the
// maximum is clamped too.
func ClampStages(requested, maxStages int) (int, bool) {
	if requested == Unset || requested >= maxStages {
		return maxStages, true
	}
	return requested, false
}

// FilePrefix returns the stage-file prefix for a plan: the UPF directory
// joined with the plan's base name minus its extension, followed by "_".
// Leading dots do not start an extension, so ".json" keeps its name.
func FilePrefix(upfDir, planPath string) string {
	base := filepath.Base(planPath)
	if strings.Contains(strings.TrimLeft(base, "."), ".") {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return filepath.Join(upfDir, base) + "_"
}

// Generated describes the outcome of the generation step.
type Generated struct {
	Bounds plan.Bounds
	Nodes  int
	Stages int
	upf.Result
}

// Orchestrator wires the plan reader, generator and submitter together.
type Orchestrator struct {
	out      io.Writer
	logger   *zap.Logger
	runner   submit.Runner
	parser   submit.Parser
	observer submit.Observer
	journal  bool
}

// New creates an Orchestrator printing user-facing output to out.
func New(out io.Writer) *Orchestrator {
	return &Orchestrator{
		out:     out,
		logger:  zap.NewNop(),
		runner:  submit.NewExecRunner(),
		parser:  submit.DefaultParser,
		journal: true,
	}
}

// WithLogger sets the diagnostic logger.
func (o *Orchestrator) WithLogger(l *zap.Logger) *Orchestrator {
	if l != nil {
		o.logger = l
	}
	return o
}

// WithRunner sets a custom runner (useful for testing).
func (o *Orchestrator) WithRunner(r submit.Runner) *Orchestrator {
	o.runner = r
	return o
}

// WithParser sets the submission output parser.
func (o *Orchestrator) WithParser(p submit.Parser) *Orchestrator {
	o.parser = p
	return o
}

// WithObserver adds an observer notified alongside the chain log.
func (o *Orchestrator) WithObserver(obs submit.Observer) *Orchestrator {
	o.observer = obs
	return o
}

// WithJournal enables or disables the progress journal.
func (o *Orchestrator) WithJournal(enabled bool) *Orchestrator {
	o.journal = enabled
	return o
}

// Generate reads the plan bounds, clamps the requested counts, writes the
// stage files and prints the stage summary.
func (o *Orchestrator) Generate(cfg Config) (Generated, error) {
	bounds, err := plan.LoadBounds(cfg.PlanPath)
	if err != nil {
		return Generated{}, err
	}
	o.logger.Debug("plan bounds",
		zap.String("plan", cfg.PlanPath),
		zap.String("root", string(bounds.Root)),
		zap.Int("max_stages", bounds.MaxStages),
		zap.Int("max_nodes", bounds.MaxNodes))

	gen := Generated{Bounds: bounds}
	var nodesClamped, stagesClamped bool
	gen.Nodes, nodesClamped = ClampNodes(cfg.Nodes, bounds.MaxNodes)
	gen.Stages, stagesClamped = ClampStages(cfg.Stages, bounds.MaxStages)
	if nodesClamped || stagesClamped {
		o.logger.Info("clamped request to plan bounds",
			zap.Int("nodes", gen.Nodes),
			zap.Int("requested_nodes", cfg.Nodes),
			zap.Int("stages", gen.Stages),
			zap.Int("requested_stages", cfg.Stages))
	}

	if cfg.UPFDir != "" {
		if err := os.MkdirAll(cfg.UPFDir, 0755); err != nil {
			return gen, fmt.Errorf("failed to create upf directory: %w", err)
		}
	}

	prefix := FilePrefix(cfg.UPFDir, cfg.PlanPath)
	res, err := upf.Generate(bounds.Root, gen.Stages, gen.Nodes, prefix)
	gen.Result = res
	if err != nil {
		return gen, err
	}
	o.logger.Debug("stage files written", zap.Strings("files", res.Files), zap.Ints("counts", res.Counts))

	display.Summary(o.out, res, gen.Nodes, cfg.DryRun)
	return gen, nil
}

// Run generates the stage files and submits one chained job per stage.
// Nothing is rolled back on failure.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) error {
	gen, err := o.Generate(cfg)
	if err != nil {
		return err
	}

	var journal *progress.Journal
	if o.journal {
		journal = progress.NewJournal(cfg.UPFDir)
		o.warn(journal.RunStarted(cfg.PlanPath, cfg.Site, string(gen.Bounds.Root), gen.Stages, gen.Nodes))
		o.warn(journal.StagesGenerated(gen.Files, gen.Counts))
	}

	if cfg.DryRun {
		fmt.Fprintln(o.out, "Dry run: no jobs submitted.")
		return nil
	}

	observers := submit.Observers{display.NewChainLog(o.out)}
	if journal != nil {
		observers = append(observers, &journalObserver{journal: journal, warn: o.warn})
	}
	if o.observer != nil {
		observers = append(observers, o.observer)
	}

	_, err = submit.New(cfg.SubmitProgram, cfg.Site, cfg.PlanPath).
		WithRunner(o.runner).
		WithParser(o.parser).
		WithObserver(observers).
		WithLogger(o.logger).
		Submit(ctx, gen.Files)
	return err
}

func (o *Orchestrator) warn(err error) {
	if err != nil {
		o.logger.Warn("failed to write progress journal", zap.Error(err))
	}
}

// journalObserver records chain progress in the journal.
type journalObserver struct {
	journal   *progress.Journal
	warn      func(error)
	total     int
	startTime time.Time
}

func (j *journalObserver) StageStarted(index, total int, inv submit.Invocation) {
	if index == 0 {
		j.startTime = time.Now()
	}
	j.total = total
}

func (j *journalObserver) StageSubmitted(res submit.StageResult) {
	var exitErr string
	if res.Err != nil {
		exitErr = res.Err.Error()
	}
	j.warn(j.journal.StageSubmitted(res.Stage(), res.File, res.State.JobID, res.State.TurbineOutput, exitErr))
}

func (j *journalObserver) ChainAborted(res submit.StageResult) {
	j.warn(j.journal.ChainAborted(res.Stage(), j.total-res.Stage()))
}

func (j *journalObserver) ChainCompleted(rep submit.Report) {
	j.warn(j.journal.ChainCompleted(rep.Submitted(), time.Since(j.startTime)))
}
