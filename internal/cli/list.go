package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/cperrin88/kman/pkg/kernel"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		installedOnly bool
		bySeries      bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available kernels",
		Long: `List every kernel offered by the configured repositories.

The version column shows the repository version, marked with ∧ when it is
newer than the installed copy, or the installed version marked with ∨ when
the installed copy is newer.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, s, _, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			kernels := s.Kernels()
			if bySeries {
				kernels = s.Catalog().BySeries()
			}
			printKernels(cmd.OutOrStdout(), kernels, installedOnly)
			return nil
		},
	}

	cmd.Flags().BoolVar(&installedOnly, "installed", false, "Only show installed kernels")
	cmd.Flags().BoolVar(&bySeries, "series", false, "Order by kernel series, newest first")

	return cmd
}

func printKernels(out io.Writer, kernels []*kernel.Kernel, installedOnly bool) {
	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KERNEL\tVERSION\tCATEGORY\tSTATUS")

	for _, k := range kernels {
		if installedOnly && !k.IsInstalled() {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Raw(), styleVersion(k.Version()), k.Category(), status(k))
	}
	_ = tw.Flush()
}

func styleVersion(v string) string {
	switch {
	case strings.HasPrefix(v, kernel.MarkerUpdate):
		return color.Yellow.Sprint(v)
	case strings.HasPrefix(v, kernel.MarkerAhead):
		return color.Magenta.Sprint(v)
	}
	return v
}

func status(k *kernel.Kernel) string {
	switch {
	case !k.IsInstalled():
		return ""
	case k.RepoMismatch():
		return "installed from " + k.InstalledDB()
	case k.UpdateAvailable():
		return color.Yellow.Sprint("update available")
	default:
		return color.Green.Sprint("installed")
	}
}
