package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resolveRescan bool

func init() {
	cmd := newResolveCmd()
	cmd.Flags().BoolVar(&resolveRescan, "rescan", false, "Ignore the cached offset and scan again")
	rootCmd.AddCommand(cmd)
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Locate the flag registry and print where it is",
		Long: `The resolve command locates the registry singleton, updating the offset
cache, and prints how it was found.

Example:
  flagctl resolve
  flagctl resolve --rescan --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context())
		},
	}
}

type resolveJSON struct {
	Module  string `json:"module"`
	Base    string `json:"base"`
	Source  string `json:"source"`
	Offset  string `json:"offset"`
	Address string `json:"address"`
}

func runResolve(ctx context.Context) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	mod, err := s.Module()
	if err != nil {
		return err
	}

	resolveFn := s.Refresh
	if resolveRescan {
		printVerbose("Scanning %s\n", mod.Name)
		resolveFn = s.Rescan
	}
	sing, err := resolveFn(ctx)
	if err != nil {
		return fmt.Errorf("failed to locate registry: %w", err)
	}

	if jsonOut {
		return printJSON(resolveJSON{
			Module:  mod.Name,
			Base:    hex(mod.Base),
			Source:  sing.Source.String(),
			Offset:  hex(sing.Offset),
			Address: hex(sing.Address),
		})
	}
	printInfo("module:  %s at %s\n", mod.Name, hex(mod.Base))
	printInfo("source:  %s\n", sing.Source)
	printInfo("offset:  %s\n", hex(sing.Offset))
	printInfo("address: %s\n", hex(sing.Address))
	return nil
}
