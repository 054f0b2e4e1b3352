package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/gridsql/pkg/adapter"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display gridsql version, build information and the compiled-in adapters.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "gridsql v%s\n", info.Version)
			_, _ = fmt.Fprintf(out, "commit:   %s\n", info.Commit)
			_, _ = fmt.Fprintf(out, "built:    %s\n", info.Date)
			_, _ = fmt.Fprintf(out, "go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(out, "adapters: %v\n", adapter.ListAdapters())
		},
	}
}
