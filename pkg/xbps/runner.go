package xbps

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
)

// CommandResult is the outcome of one external command.
type CommandResult struct {
	Stdout string
	Stderr string
	Code   int // process exit status, 0 on success
}

// CommandFunc executes an external command and reports its outcome.
//
// Implementations return an error only when the command could not run at
// all (binary missing, context canceled); a non-zero exit status is
// reported through CommandResult.Code instead. Interactive commands are
// wired to the caller's terminal and their output is not captured.
type CommandFunc func(ctx context.Context, interactive bool, name string, args ...string) (CommandResult, error)

// ExecCommand is the default CommandFunc, backed by os/exec.
func ExecCommand(ctx context.Context, interactive bool, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	if interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return res, err
		}
		res.Code = exitErr.ExitCode()
	}
	return res, nil
}

// Runner talks to the local XBPS installation.
//
// The Runner is stateless except for the exec function and logger; multiple
// goroutines can safely share one instance.
type Runner struct {
	exec   CommandFunc
	sudo   bool
	logger *log.Logger
}

// NewRunner creates a runner with the given exec function.
// If run is nil, [ExecCommand] is used. If logger is nil, the default
// logger is used. Mutating commands are prefixed with sudo unless the
// process already runs as root.
func NewRunner(run CommandFunc, logger *log.Logger) *Runner {
	if run == nil {
		run = ExecCommand
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		exec:   run,
		sudo:   os.Geteuid() != 0,
		logger: logger,
	}
}

// query runs a non-interactive probe and captures its output.
func (r *Runner) query(ctx context.Context, name string, args ...string) (CommandResult, error) {
	r.logger.Debug("running query", "cmd", name, "args", args)
	return r.exec(ctx, false, name, args...)
}

// mutate runs an interactive command, escalating with sudo when needed.
func (r *Runner) mutate(ctx context.Context, name string, args ...string) (CommandResult, error) {
	if r.sudo {
		args = append([]string{name}, args...)
		name = "sudo"
	}
	r.logger.Debug("running command", "cmd", name, "args", args)
	return r.exec(ctx, true, name, args...)
}
