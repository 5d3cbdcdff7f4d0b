package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", config.AppName, config.Version)
			fmt.Fprintf(out, "commit:  %s\n", config.Commit)
			fmt.Fprintf(out, "built:   %s\n", config.BuildTime)
			fmt.Fprintf(out, "go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
