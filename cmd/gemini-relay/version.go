package main

import (
	"fmt"
	"runtime"
	"strings"

	"relay-hq/gemini/pkg/cli"
	"relay-hq/gemini/pkg/telemetry/health"
	"relay-hq/gemini/pkg/upstream"

	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

var versionFlags struct {
	output string
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including Git commit, build date and upstream model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(versionFlags.output)
		if err != nil {
			return err
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), versionReport{versionInfo()})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFlags.output, "output", "o", "text", "output format: text, json, yaml")
}

func versionInfo() health.VersionInfo {
	return health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		GoVersion: runtime.Version(),
		Model:     upstream.APIVersion + "/" + upstream.Model,
	}
}

// versionReport prints as a block of text and marshals as VersionInfo.
type versionReport struct {
	health.VersionInfo `yaml:",inline"`
}

func (v versionReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Gemini relay %s\n", v.Version)
	fmt.Fprintf(&sb, "Git Commit: %s\n", v.Commit)
	fmt.Fprintf(&sb, "Build Date: %s\n", v.BuildTime)
	fmt.Fprintf(&sb, "Go Version: %s\n", v.GoVersion)
	fmt.Fprintf(&sb, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&sb, "Model: %s", v.Model)
	return sb.String()
}
