package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/flagkit/internal/table"
	"github.com/joshuapare/flagkit/pkg/fflags"
)

var hashMask uint64

func init() {
	cmd := newHashCmd()
	cmd.Flags().Uint64Var(&hashMask, "mask", 0, "Bucket mask; prints the bucket index when set")
	rootCmd.AddCommand(cmd)
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <flag>",
		Short: "Print the registry hash of a flag name",
		Long: `The hash command prints the 64-bit FNV-1a hash the registry uses for a
name. A type prefix is stripped first, as apply does.

Example:
  flagctl hash FFlagDebugGraphicsPreferVulkan
  flagctl hash DebugGraphicsPreferVulkan --mask 0x3fff`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(args[0])
		},
	}
}

type hashJSON struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Hash   string  `json:"hash"`
	Bucket *uint64 `json:"bucket,omitempty"`
}

func runHash(key string) error {
	name, kind := fflags.Classify(key)
	h := table.Hash(name)

	out := hashJSON{Name: name, Kind: kind.String(), Hash: hex(h)}
	if hashMask != 0 {
		bucket := h & hashMask
		out.Bucket = &bucket
	}

	if jsonOut {
		return printJSON(out)
	}
	printVerbose("name: %s (%s)\n", name, kind)
	printInfo("%s\n", out.Hash)
	if out.Bucket != nil {
		printInfo("bucket: %d\n", *out.Bucket)
	}
	return nil
}
