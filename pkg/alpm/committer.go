package alpm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// CommitRequest describes the change a Committer must apply.
type CommitRequest struct {
	Root       string
	DBPath     string
	ConfigFile string
	CacheDirs  []string
	// Install holds "repo/name" targets; dependencies are resolved by the committer.
	Install []string
	// Remove holds bare names, dependencies already expanded.
	Remove     []string
	AsExplicit bool
	Needed     bool
}

// Committer applies a prepared transaction to the system.
type Committer interface {
	// Commit runs the change and reports every output line through out.
	Commit(ctx context.Context, req CommitRequest, out func(line string)) error
}

// PacmanCommitter applies transactions by running pacman non-interactively.
type PacmanCommitter struct {
	// Binary defaults to "pacman".
	Binary string
}

// Args builds the pacman command line for req.
func (c *PacmanCommitter) Args(req CommitRequest) []string {
	var args []string
	if len(req.Install) > 0 {
		args = append(args, "-S")
	} else {
		args = append(args, "-R")
	}
	args = append(args, "--noconfirm", "--noprogressbar")
	if req.Root != "" && req.Root != "/" {
		args = append(args, "--root", req.Root)
	}
	if req.DBPath != "" {
		args = append(args, "--dbpath", req.DBPath)
	}
	if req.ConfigFile != "" {
		args = append(args, "--config", req.ConfigFile)
	}
	for _, dir := range req.CacheDirs {
		args = append(args, "--cachedir", dir)
	}
	if len(req.Install) > 0 {
		if req.AsExplicit {
			args = append(args, "--asexplicit")
		}
		if req.Needed {
			args = append(args, "--needed")
		}
		return append(append(args, "--"), req.Install...)
	}
	return append(append(args, "--"), req.Remove...)
}

// Commit runs pacman and streams its combined output line by line.
func (c *PacmanCommitter) Commit(ctx context.Context, req CommitRequest, out func(line string)) error {
	if len(req.Install) == 0 && len(req.Remove) == 0 {
		return nil
	}
	bin := c.Binary
	if bin == "" {
		bin = "pacman"
	}

	args := c.Args(req)
	cmd := exec.CommandContext(ctx, bin, args...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sc := bufio.NewScanner(pr)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" && out != nil {
				out(line)
			}
		}
		_, _ = io.Copy(io.Discard, pr)
	}()

	err := cmd.Run()
	_ = pw.Close()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return nil
}
