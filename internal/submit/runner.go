package submit

import (
	"context"
	"os/exec"
)

// CommandContext is the function used to create exec.Cmd instances.
// It can be replaced in tests to mock the submission program.
var CommandContext = exec.CommandContext

// Runner invokes the submission program and returns its merged output.
type Runner interface {
	Run(ctx context.Context, program string, args []string) (string, error)
}

// ExecRunner runs the submission program as a child process. Stdout and
// stderr are captured into a single stream and the call blocks until the
// process exits.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner. Output produced before a failure is still returned.
func (r *ExecRunner) Run(ctx context.Context, program string, args []string) (string, error) {
	cmd := CommandContext(ctx, program, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
