// Package shell runs package manager command lines outside the process,
// optionally through a privilege escalation tool and a terminal emulator.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/cperrin88/kman/internal/logger"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/platform"
	"golang.org/x/sys/unix"
)

// Runner executes a shell command string and reports its exit code.
//
//go:generate mockgen -destination=./mocks/runner.go -package=mocks . Runner
type Runner interface {
	// Run returns the exit code of cmd. The error is only set when the
	// command could not be started or was cancelled.
	Run(ctx context.Context, cmd string) (int, error)
}

// ElevatedRunner runs "[terminal -e] [escalation] sh -c <cmd>".
type ElevatedRunner struct {
	// Escalation is the privilege tool, e.g. "pkexec" or "sudo". It is
	// skipped when the process already runs as root.
	Escalation string
	// Terminal, when set, hosts the command so the user can follow it.
	Terminal string
	// Shell defaults to "sh".
	Shell string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	isRoot func() bool
}

// NewElevatedRunner returns a runner attached to the process's stdio.
func NewElevatedRunner(escalation, terminal string) *ElevatedRunner {
	return &ElevatedRunner{
		Escalation: escalation,
		Terminal:   terminal,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		isRoot:     platform.IsRoot,
	}
}

// Argv builds the argument vector used for cmd.
func (r *ElevatedRunner) Argv(cmd string) []string {
	var argv []string
	if r.Terminal != "" {
		argv = append(argv, strings.Fields(r.Terminal)...)
		argv = append(argv, "-e")
	}
	root := r.isRoot != nil && r.isRoot()
	if r.Escalation != "" && !root {
		argv = append(argv, strings.Fields(r.Escalation)...)
	}
	sh := r.Shell
	if sh == "" {
		sh = "sh"
	}
	return append(argv, sh, "-c", cmd)
}

// Run starts cmd in its own process group and waits for it. Cancelling ctx
// kills the whole group.
func (r *ElevatedRunner) Run(ctx context.Context, cmd string) (int, error) {
	if strings.TrimSpace(cmd) == "" {
		return -1, pkgerrors.ErrNoCommand
	}
	argv := r.Argv(cmd)
	logger.Debug("running command", logger.Fields{"argv": strings.Join(argv, " ")})

	c := exec.Command(argv[0], argv[1:]...)
	c.Stdin, c.Stdout, c.Stderr = r.Stdin, r.Stdout, r.Stderr
	c.Env = os.Environ()
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := c.Start(); err != nil {
		return -1, pkgerrors.Wrapf(err, "failed to start %s", argv[0])
	}
	pgid := c.Process.Pid

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = unix.Kill(-pgid, unix.SIGKILL)
		case <-done:
		}
	}()

	err := c.Wait()
	if ctx.Err() != nil {
		return -1, pkgerrors.Wrapf(ctx.Err(), "command aborted")
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			logger.Debug("command finished", logger.Fields{"exit_code": code})
			return code, nil
		}
		return -1, err
	}
	return 0, nil
}

// Quote makes s a single shell word.
func Quote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '-' || r == '_' || r == '.' || r == '=' || r == ':' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
