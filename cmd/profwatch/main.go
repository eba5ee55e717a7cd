// Package main provides the profwatch binary: an always-on, function-level
// resource profiler that runs alongside a target program.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/profwatch/profwatch/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "profwatch",
		Short:         "profwatch - correlate process resource usage with active functions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newBaselineCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("profwatch version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Go version: %s\n", version.GoVersion())
		},
	}
}
