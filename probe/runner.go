package probe

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// killGrace bounds how long Run waits for output pipes after the process is
// killed on timeout.
const killGrace = 100 * time.Millisecond

type Command struct {
	Name string
	Args []string
	// Combined captures stderr together with stdout.
	Combined bool
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, cmd Command) (string, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.WaitDelay = killGrace

	var (
		out []byte
		err error
	)
	if cmd.Combined {
		out, err = c.CombinedOutput()
	} else {
		out, err = c.Output()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return string(out), ctxErr
	}
	return string(out), err
}
