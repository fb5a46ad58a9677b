package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newGetCmd())
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <flag>",
		Short: "Print the current value of a flag",
		Long: `The get command prints one flag's value as the client currently holds it.

Example:
  flagctl get FIntTaskSchedulerTargetFps
  flagctl get DFStringCrashUploadUrl --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), args[0])
		},
	}
}

type flagJSON struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Type         string `json:"type"`
	Record       string `json:"record"`
	Value        string `json:"value,omitempty"`
	Unregistered bool   `json:"unregistered,omitempty"`
}

func runGet(ctx context.Context, key string) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if jsonOut {
		return printJSON(flagJSON{
			Key:          f.Key,
			Name:         f.Name,
			Kind:         f.Kind.String(),
			Type:         f.Type.String(),
			Record:       hex(f.Record),
			Value:        f.Value,
			Unregistered: f.Unregistered,
		})
	}

	printVerbose("%s: %s %s at %s\n", f.Name, f.Type, f.Kind, hex(f.Record))
	if f.Unregistered {
		printInfo("%s is unregistered\n", key)
		return nil
	}
	printInfo("%s = %s\n", key, f.Value)
	return nil
}
