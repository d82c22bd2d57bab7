package coordinator

import (
	"context"
	"strings"

	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/shell"
)

// HelperInstaller builds and installs external packages with an AUR helper
// run through a shell.Runner.
type HelperInstaller struct {
	Helper string
	Runner shell.Runner
}

// Install runs "<helper> -S --needed <names>". A non-zero exit status is
// reported as ErrCommandFailed.
func (h *HelperInstaller) Install(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if h.Helper == "" {
		return pkgerrors.ErrExternalHelper
	}
	cmd := h.Helper + " -S --needed " + strings.Join(names, " ")
	code, err := h.Runner.Run(ctx, cmd)
	if err != nil {
		return pkgerrors.Wrapf(err, "%s", cmd)
	}
	if code != 0 {
		return pkgerrors.Wrapf(pkgerrors.ErrCommandFailed, "%s (exit %d)", cmd, code)
	}
	return nil
}
