package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

const defaultModule = "github.com/nixlim/good-console"

// buildVersion is set via -ldflags "-X main.buildVersion=...".
var buildVersion = ""

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			module, version := buildInfo(debug.ReadBuildInfo)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", module, version)
			return err
		},
	}
}

func buildInfo(read func() (*debug.BuildInfo, bool)) (module, version string) {
	module, version = defaultModule, "v0.0.0-unknown"
	info, ok := read()
	if ok && info != nil {
		if p := strings.TrimSpace(info.Main.Path); p != "" {
			module = p
		}
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			version = v
		}
	}
	if v := strings.TrimSpace(buildVersion); v != "" {
		version = v
	}
	return module, version
}
