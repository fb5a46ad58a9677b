package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"

	"github.com/joshuapare/flagkit/internal/flag"
	"github.com/joshuapare/flagkit/internal/table"
)

var (
	listFilter string
	listValues bool
)

func init() {
	cmd := newListCmd()
	cmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Only list flags whose name contains this text (case-insensitive)")
	cmd.Flags().BoolVar(&listValues, "values", false, "Read each flag's current value")
	rootCmd.AddCommand(cmd)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every flag registered in the client",
		Long: `The list command walks the client's flag registry and prints each name.
Names are printed without their type prefix, as the registry stores them.

Example:
  flagctl list
  flagctl list --filter vulkan --values`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context())
		},
	}
}

type listEntry struct {
	Name   string `json:"name"`
	Kind   string `json:"kind,omitempty"`
	Record string `json:"record"`
	Bucket uint64 `json:"bucket"`
	Value  string `json:"value,omitempty"`
}

func runList(ctx context.Context) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	fold := cases.Fold()
	needle := fold.String(listFilter)

	var entries []listEntry
	err = s.List(ctx, func(e table.Entry) bool {
		if needle != "" && !strings.Contains(fold.String(e.Name), needle) {
			return true
		}
		entry := listEntry{Name: e.Name, Record: hex(e.Record), Bucket: e.Bucket}
		if listValues {
			if rec, ok := (flag.Ref{Address: e.Record}).Resolve(s.Memory()); ok {
				entry.Kind = rec.Kind().String()
				if v, err := rec.ReadValue(); err == nil {
					entry.Value = v
				}
			}
		}
		entries = append(entries, entry)
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to walk registry: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	if jsonOut {
		return printJSON(entries)
	}
	for _, e := range entries {
		if listValues {
			printInfo("%s\t%s\t%s\n", e.Name, e.Kind, e.Value)
			continue
		}
		printInfo("%s\n", e.Name)
	}
	printVerbose("%d flag(s)\n", len(entries))
	return nil
}
