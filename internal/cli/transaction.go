package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cperrin88/kman/internal/logger"
	"github.com/cperrin88/kman/pkg/coordinator"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/session"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install REPO/KERNEL...",
		Short: "Install kernels",
		Long: `Install kernels together with their headers.

Kernels are named the way "kman list" shows them, e.g. core/linux-lts.
Installed kernels are only touched when an update is available.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycle(cmd, func(*session.Session) coordinator.Selection {
				return coordinator.Selection{Install: args}
			})
		},
	}

	return cmd
}

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove REPO/KERNEL...",
		Aliases: []string{"uninstall"},
		Short:   "Remove kernels",
		Long:    "Remove installed kernels and their headers.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycle(cmd, func(*session.Session) coordinator.Selection {
				return coordinator.Selection{Remove: args}
			})
		},
	}

	return cmd
}

// NewApplyCmd creates the apply command.
func NewApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply REPO/KERNEL...",
		Short: "Make the selected kernels the installed set",
		Long: `Install the selected kernels and remove every other installed kernel
that came from the repository listing it. Kernels installed from another
repository than the one offering them are left alone.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycle(cmd, func(s *session.Session) coordinator.Selection {
				return coordinator.Selection{
					Install: args,
					Remove:  s.Coordinator().UnselectedInstalled(args),
				}
			})
		},
	}

	return cmd
}

func runCycle(cmd *cobra.Command, selection func(*session.Session) coordinator.Selection) error {
	ctx := cmd.Context()
	_, s, _, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("closing package database", logger.Fields{"error": err})
		}
	}()

	sel := selection(s)
	_, unknown := s.Catalog().Resolve(append(append([]string(nil), sel.Install...), sel.Remove...))
	if len(unknown) > 0 {
		return pkgerrors.ErrKernelNotFoundWithRaw(unknown[0])
	}

	logger.Debug("running transaction cycle", logger.Fields{"install": sel.Install, "remove": sel.Remove})
	if _, err := s.Run(ctx, sel); err != nil {
		return fmt.Errorf("transaction cycle failed: %w", err)
	}
	return nil
}
