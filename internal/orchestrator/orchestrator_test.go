package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/candle-hpc/upfchain/internal/plan"
	"github.com/candle-hpc/upfchain/internal/progress"
	"github.com/candle-hpc/upfchain/internal/submit"
)

// mockRunner is a test double for submit.Runner returning outputs in order.
type mockRunner struct {
	Outputs []string
	Calls   [][]string
}

func (m *mockRunner) Run(ctx context.Context, program string, args []string) (string, error) {
	n := len(m.Calls)
	m.Calls = append(m.Calls, append([]string(nil), args...))
	if n < len(m.Outputs) {
		return m.Outputs[n], nil
	}
	return "", nil
}

func createTestPlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cp-plan.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}
	return path
}

const fourKeyPlan = `{"root": {}, "root.1.1": {}, "root.2.1": {}, "root.1.1.1": {}}`

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestClampNodes(t *testing.T) {
	tests := []struct {
		name        string
		requested   int
		max         int
		want        int
		wantClamped bool
	}{
		{"unset uses maximum", Unset, 5, 5, true},
		{"below maximum kept", 3, 5, 3, false},
		{"equal to maximum not clamped", 5, 5, 5, false},
		{"above maximum clamped", 6, 5, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := ClampNodes(tt.requested, tt.max)
			if got != tt.want || clamped != tt.wantClamped {
				t.Errorf("ClampNodes(%d, %d) = (%d, %v), want (%d, %v)",
					tt.requested, tt.max, got, clamped, tt.want, tt.wantClamped)
			}
		})
	}
}

func TestClampStages(t *testing.T) {
	tests := []struct {
		name        string
		requested   int
		max         int
		want        int
		wantClamped bool
	}{
		{"unset uses maximum", Unset, 4, 4, true},
		{"below maximum kept", 2, 4, 2, false},
		{"equal to maximum clamped", 4, 4, 4, true},
		{"above maximum clamped", 9, 4, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := ClampStages(tt.requested, tt.max)
			if got != tt.want || clamped != tt.wantClamped {
				t.Errorf("ClampStages(%d, %d) = (%d, %v), want (%d, %v)",
					tt.requested, tt.max, got, clamped, tt.want, tt.wantClamped)
			}
		})
	}
}

func TestClamp_BoundaryAsymmetry(t *testing.T) {
	// Equal requests: stages take the clamp branch, nodes do not.
	if _, clamped := ClampStages(3, 3); !clamped {
		t.Error("ClampStages should clamp a request equal to the maximum")
	}
	if _, clamped := ClampNodes(3, 3); clamped {
		t.Error("ClampNodes should not clamp a request equal to the maximum")
	}
}

func TestFilePrefix(t *testing.T) {
	tests := []struct {
		upfDir string
		plan   string
		want   string
	}{
		{"/scratch/upf", "plans/cp-plan.json", "/scratch/upf/cp-plan_"},
		{"upf/", "/abs/plan.yaml", "upf/plan_"},
		{"out", "noext", "out/noext_"},
		{"out", "my.plan.json", "out/my.plan_"},
		{"out", ".json", "out/.json_"},
		{"out", "..json", "out/..json_"},
		{"out", ".hidden.yaml", "out/.hidden_"},
	}
	for _, tt := range tests {
		if got := FilePrefix(tt.upfDir, tt.plan); got != tt.want {
			t.Errorf("FilePrefix(%q, %q) = %q, want %q", tt.upfDir, tt.plan, got, tt.want)
		}
	}
}

func TestOrchestrator_EndToEnd(t *testing.T) {
	planPath := createTestPlan(t, fourKeyPlan)
	upfDir := filepath.Join(t.TempDir(), "upf")
	runner := &mockRunner{Outputs: []string{
		"TURBINE_OUTPUT=/out/exp1\nJOB_ID=100\n",
		"TURBINE_OUTPUT=/out/exp2\nJOB_ID=101\n",
	}}

	var out bytes.Buffer
	err := New(&out).WithRunner(runner).Run(context.Background(), Config{
		PlanPath:      planPath,
		Nodes:         2,
		Stages:        2,
		UPFDir:        upfDir,
		Site:          "summit",
		SubmitProgram: "./submit.sh",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s1 := readLines(t, filepath.Join(upfDir, "cp-plan_s1_upf.txt"))
	if strings.Join(s1, ",") != "root.1,root.2" {
		t.Errorf("unexpected stage 1 file: %v", s1)
	}
	s2 := readLines(t, filepath.Join(upfDir, "cp-plan_s2_upf.txt"))
	if len(s2) != 4 {
		t.Errorf("expected 4 lines in stage 2, got %v", s2)
	}

	if len(runner.Calls) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(runner.Calls))
	}
	first := runner.Calls[0]
	if first[0] != "summit" || first[3] != planPath || first[4] != filepath.Join(upfDir, "cp-plan_s1_upf.txt") {
		t.Errorf("unexpected first invocation: %q", first)
	}
	if runner.Calls[1][7] != "#BSUB -w done(100)" {
		t.Errorf("unexpected dependency: %q", runner.Calls[1][7])
	}

	text := out.String()
	for _, want := range []string{
		"Stage: 1, UPF: " + filepath.Join(upfDir, "cp-plan_s1_upf.txt") + ", Model Runs: 2",
		"Stage: 2, UPF: " + filepath.Join(upfDir, "cp-plan_s2_upf.txt") + ", Model Runs: 4",
		"JOB 1 - exp2 - 101",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	events, err := progress.ReadEvents(filepath.Join(upfDir, progress.FileName))
	if err != nil {
		t.Fatalf("failed to read journal: %v", err)
	}
	last := events[len(events)-1]
	if last.Event != progress.EventChainCompleted {
		t.Errorf("expected last event %s, got %s", progress.EventChainCompleted, last.Event)
	}
}

func TestOrchestrator_ClampsToPlanBounds(t *testing.T) {
	// maxNodes = 2, maxStages = 4
	planPath := createTestPlan(t, fourKeyPlan)
	upfDir := t.TempDir()

	gen, err := New(&bytes.Buffer{}).Generate(Config{
		PlanPath: planPath,
		Nodes:    Unset,
		Stages:   Unset,
		UPFDir:   upfDir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Nodes != 2 || gen.Stages != 4 {
		t.Errorf("expected nodes=2 stages=4, got nodes=%d stages=%d", gen.Nodes, gen.Stages)
	}
	if len(gen.Files) != 4 || gen.Counts[3] != 16 {
		t.Errorf("unexpected generation: %+v", gen.Result)
	}
}

func TestOrchestrator_AbortStopsChain(t *testing.T) {
	planPath := createTestPlan(t, fourKeyPlan)
	upfDir := t.TempDir()
	runner := &mockRunner{Outputs: []string{"bsub: not found\n"}}

	var out bytes.Buffer
	err := New(&out).WithRunner(runner).Run(context.Background(), Config{
		PlanPath: planPath, Nodes: 2, Stages: 3, UPFDir: upfDir, Site: "summit", SubmitProgram: "submit.sh",
	})
	if !errors.Is(err, submit.ErrChainAborted) {
		t.Fatalf("expected ErrChainAborted, got %v", err)
	}
	if len(runner.Calls) != 1 {
		t.Errorf("expected a single submission, got %d", len(runner.Calls))
	}
	if !strings.Contains(out.String(), "JOB_ID NOT FOUND - ABORTING RUNS") {
		t.Errorf("expected abort notice in output:\n%s", out.String())
	}

	events, err := progress.ReadEvents(filepath.Join(upfDir, progress.FileName))
	if err != nil {
		t.Fatalf("failed to read journal: %v", err)
	}
	last := events[len(events)-1]
	if last.Event != progress.EventChainAborted || last.Data["remaining"] != float64(2) {
		t.Errorf("unexpected last event: %+v", last)
	}
}

func TestOrchestrator_DryRun(t *testing.T) {
	planPath := createTestPlan(t, fourKeyPlan)
	runner := &mockRunner{}

	var out bytes.Buffer
	err := New(&out).WithRunner(runner).WithJournal(false).Run(context.Background(), Config{
		PlanPath: planPath, Nodes: 1, Stages: 1, UPFDir: t.TempDir(),
		Site: "summit", SubmitProgram: "submit.sh", DryRun: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.Calls) != 0 {
		t.Errorf("dry run should not submit, got %d calls", len(runner.Calls))
	}
	if !strings.Contains(out.String(), "Dry run") {
		t.Errorf("expected dry run notice:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Generated 1 stage files") || strings.Contains(out.String(), "Submitting") {
		t.Errorf("dry run banner should not announce a submission:\n%s", out.String())
	}
}

func TestOrchestrator_PlanFormatErrorWritesNothing(t *testing.T) {
	planPath := createTestPlan(t, `{}`)
	upfDir := filepath.Join(t.TempDir(), "upf")

	err := New(&bytes.Buffer{}).Run(context.Background(), Config{
		PlanPath: planPath, Nodes: 1, Stages: 1, UPFDir: upfDir,
	})
	if !errors.Is(err, plan.ErrPlanFormat) {
		t.Fatalf("expected ErrPlanFormat, got %v", err)
	}
	if _, err := os.Stat(upfDir); !os.IsNotExist(err) {
		t.Errorf("expected upf directory not to be created, stat err: %v", err)
	}
}

func TestOrchestrator_ExtraObserver(t *testing.T) {
	planPath := createTestPlan(t, fourKeyPlan)
	runner := &mockRunner{Outputs: []string{"JOB_ID=1\n"}}
	obs := &countingObserver{}

	err := New(&bytes.Buffer{}).WithRunner(runner).WithObserver(obs).WithJournal(false).Run(context.Background(), Config{
		PlanPath: planPath, Nodes: 1, Stages: 1, UPFDir: t.TempDir(), Site: "s", SubmitProgram: "p",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.submitted != 1 || obs.completed != 1 {
		t.Errorf("unexpected observer counts: %+v", obs)
	}
}

type countingObserver struct {
	submitted, completed int
}

func (c *countingObserver) StageStarted(int, int, submit.Invocation) {}
func (c *countingObserver) StageSubmitted(submit.StageResult)       { c.submitted++ }
func (c *countingObserver) ChainAborted(submit.StageResult)         {}
func (c *countingObserver) ChainCompleted(submit.Report)            { c.completed++ }
