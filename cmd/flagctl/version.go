package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type versionJSON struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Built    string `json:"built"`
	Platform string `json:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	info := versionJSON{
		Version:  version,
		Commit:   commit,
		Built:    date,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if jsonOut {
		return printJSON(info)
	}
	printInfo("flagctl %s\n", info.Version)
	printInfo("  commit: %s\n", info.Commit)
	printInfo("  built: %s\n", info.Built)
	printInfo("  platform: %s\n", info.Platform)
	return nil
}
