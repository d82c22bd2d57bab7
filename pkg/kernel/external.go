package kernel

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/cperrin88/kman/internal/logger"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
)

// ExternalSource lists kernel headers packages offered outside the sync
// repositories.
type ExternalSource interface {
	// Available reports whether the source can be queried at all.
	Available() bool
	// KernelHeaders returns the headers package names on offer.
	KernelHeaders(ctx context.Context) ([]string, error)
}

// AURHelper queries an AUR helper such as paru or yay.
type AURHelper struct {
	Helper string

	lookPath func(string) (string, error)
	output   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewAURHelper returns a source backed by the named helper binary.
func NewAURHelper(helper string) *AURHelper {
	return &AURHelper{
		Helper:   helper,
		lookPath: exec.LookPath,
		output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Available reports whether the helper is on PATH.
func (a *AURHelper) Available() bool {
	if a.Helper == "" {
		return false
	}
	_, err := a.lookPath(a.Helper)
	return err == nil
}

// KernelHeaders runs "<helper> -Slq --aur" and keeps the kernel headers names.
func (a *AURHelper) KernelHeaders(ctx context.Context) ([]string, error) {
	if !a.Available() {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrExternalHelper, "%s", a.Helper)
	}
	out, err := a.output(ctx, a.Helper, "-Slq", "--aur")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "%s -Slq --aur", a.Helper)
	}

	var names []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		// "-Slq" prints bare names; tolerate "aur/name" too
		name := strings.TrimSpace(sc.Text())
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		if isKernelHeaders(name) {
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	logger.Debug("queried external helper", logger.Fields{"helper": a.Helper, "headers": len(names)})
	return names, nil
}
