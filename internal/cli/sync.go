package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cperrin88/kman/internal/logger"
	"github.com/cperrin88/kman/pkg/download"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the package databases",
		Long: `Download the sync databases of every configured repository from its
mirrors and rebuild the kernel list.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, s, sink, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			dl := download.NewManager(cfg.Settings.HTTPTimeout, "kman/"+Version)
			if err := s.Sync(cmd.Context(), dl, force); err != nil {
				return fmt.Errorf("failed to synchronize package databases: %w", err)
			}

			logger.Debug("catalog refreshed", logger.Fields{"kernels": len(s.Kernels())})
			sink.Success(fmt.Sprintf("%d kernels available", len(s.Kernels())))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Download databases even if they are up to date")

	return cmd
}
