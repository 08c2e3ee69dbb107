package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ForLess01/API-RALF/pkg/telemetry/health"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// Commit is the git commit hash (set by build flags)
	Commit = "unknown"
	// BuildTime is the build timestamp (set by build flags)
	BuildTime = "unknown"
)

func versionInfo() health.VersionInfo {
	return health.NewVersionInfo(Version, Commit, BuildTime)
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo()
			if opts.format != "" && opts.format != "text" {
				return opts.write(cmd, info)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API-RALF %s\n", info.Version)
			fmt.Fprintf(out, "Git Commit: %s\n", info.Commit)
			fmt.Fprintf(out, "Build Time: %s\n", info.BuildTime)
			fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
