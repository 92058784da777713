package dump

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// Runner abstracts subprocess execution so tests can stub the external
// tools. extraEnv entries are appended to the inherited environment and are
// the only channel a credential may travel through.
type Runner interface {
	Run(ctx context.Context, name string, args []string, extraEnv []string) (stderr string, err error)
}

// ExecRunner runs the real command through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, extraEnv []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}
