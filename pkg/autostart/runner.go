package autostart

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes external commands
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

// ExecRunner runs commands with os/exec
func ExecRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}
