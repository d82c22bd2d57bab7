package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cperrin88/kman/internal/cli"
)

var (
	configPath string
	verbose    bool
	noColor    bool
	rootDir    string
	dbPath     string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kman",
		Short: "Kernel manager for Arch-based systems",
		Long: `kman lists the kernels offered by the configured pacman repositories and
installs or removes them together with their headers:
- list: kernels with their versions, update and origin state
- install, remove, apply: transactions against the package database
- sync: refresh the sync databases from the mirrors`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVar(&rootDir, "root", "", "installation root (default: from config)")
	cmd.PersistentFlags().StringVar(&dbPath, "dbpath", "", "package database directory (default: from config)")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.NoColor = &noColor
	cli.RootDir = &rootDir
	cli.DBPath = &dbPath

	// Add subcommands
	cmd.AddCommand(
		cli.NewListCmd(),
		cli.NewInstallCmd(),
		cli.NewRemoveCmd(),
		cli.NewApplyCmd(),
		cli.NewSyncCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
