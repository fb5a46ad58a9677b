package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/joshuapare/flagkit/internal/prompt"
	"github.com/joshuapare/flagkit/pkg/fflags"
)

var (
	applyPrune bool
	applyKeep  bool
)

// confirm asks whether to prune; tests replace it.
var confirm = func(ctx context.Context, question string, items []string) (bool, error) {
	return prompt.Confirm(ctx, question, items, os.Stdin, os.Stdout)
}

func init() {
	cmd := newApplyCmd()
	cmd.Flags().BoolVar(&applyPrune, "prune", false, "Remove unknown flags from the mapping without asking")
	cmd.Flags().BoolVar(&applyKeep, "keep", false, "Never rewrite the mapping")
	rootCmd.AddCommand(cmd)
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [mapping]",
		Short: "Apply a flag mapping to the running client",
		Long: `The apply command writes every entry of a JSON mapping into the client.
Keys carry a type prefix (FFlag, FInt, FString, FLog, and their DF forms).

Flags the client does not know are listed afterwards, and the mapping can be
rewritten without them.

Example:
  flagctl apply
  flagctl apply my-flags.json --prune
  flagctl apply --json --keep`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fflags.DefaultMappingPath
			if len(args) == 1 {
				path = args[0]
			}
			return runApply(cmd.Context(), path)
		},
	}
	return cmd
}

type resultJSON struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Value  string `json:"value,omitempty"`
	Record string `json:"record,omitempty"`
	Error  string `json:"error,omitempty"`
}

func toResultJSON(r fflags.Result, _ int) resultJSON {
	out := resultJSON{
		Key:    r.Key,
		Name:   r.Name,
		Kind:   r.Kind.String(),
		Status: r.Status.String(),
	}
	if r.Status == fflags.StatusSet {
		out.Value = r.Value.String()
	}
	if r.Record != 0 {
		out.Record = hex(r.Record)
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func runApply(ctx context.Context, path string) error {
	if applyPrune && applyKeep {
		return fmt.Errorf("--prune and --keep are mutually exclusive")
	}

	printVerbose("Loading mapping: %s\n", path)
	m, err := fflags.LoadMapping(path)
	if err != nil {
		return fmt.Errorf("failed to load mapping: %w", err)
	}

	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	sing, err := s.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("failed to locate registry: %w", err)
	}
	printVerbose("Registry at %s (%s, offset %s)\n", hex(sing.Address), sing.Source, hex(sing.Offset))

	report, err := s.Apply(ctx, m)
	if err != nil {
		return err
	}

	if jsonOut {
		if err := printJSON(lo.Map(report.Results, toResultJSON)); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	missing := report.Missing()
	if len(missing) == 0 {
		return nil
	}

	prune := applyPrune
	if !applyPrune && !applyKeep && !jsonOut {
		question := fmt.Sprintf("Remove %d unknown flag(s) from %s?", len(missing), path)
		if prune, err = confirm(ctx, question, missing); err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
	}
	if !prune {
		return nil
	}

	if err := m.Without(missing...).Save(path); err != nil {
		return fmt.Errorf("failed to rewrite mapping: %w", err)
	}
	printInfo("Removed %d flag(s) from %s\n", len(missing), path)
	return nil
}

func printReport(report fflags.Report) {
	for _, r := range report.Results {
		switch r.Status {
		case fflags.StatusSet:
			printVerbose("  set %s = %s\n", r.Key, r.Value)
		case fflags.StatusNotFound:
			// listed below
		default:
			printInfo("  %s %s: %v\n", r.Status, r.Key, r.Err)
		}
	}

	printInfo("Applied %d of %d flag(s)\n", report.Count(fflags.StatusSet), len(report.Results))
	if missing := report.Missing(); len(missing) > 0 {
		printInfo("Not found (%d):\n", len(missing))
		for _, k := range missing {
			printInfo("  %s\n", k)
		}
	}
}
