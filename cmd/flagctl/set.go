package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/flagkit/pkg/fflags"
)

func init() {
	rootCmd.AddCommand(newSetCmd())
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <flag> <value>",
		Short: "Write a single flag",
		Long: `The set command writes one flag. The value is read as JSON when it parses
(true, 12, "text"), and as a plain string otherwise.

Example:
  flagctl set FFlagDebugGraphicsPreferVulkan true
  flagctl set FIntTaskSchedulerTargetFps 144
  flagctl set FLogNetwork verbose`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd.Context(), args[0], args[1])
		},
	}
}

// parseArg interprets a command-line value the way the mapping file would.
func parseArg(arg string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(arg)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return arg
	}
	switch v.(type) {
	case bool, json.Number, string:
		return v
	}
	return arg
}

func runSet(ctx context.Context, key, arg string) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Set(ctx, key, parseArg(arg))
	if err != nil {
		return err
	}

	if jsonOut {
		if err := printJSON(toResultJSON(res, 0)); err != nil {
			return err
		}
	}
	if res.Status != fflags.StatusSet {
		return fmt.Errorf("%s: %s: %w", key, res.Status, res.Err)
	}
	if !jsonOut {
		printInfo("%s = %s\n", key, res.Value)
	}
	return nil
}
