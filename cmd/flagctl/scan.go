package main

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/joshuapare/flagkit/internal/image"
	"github.com/joshuapare/flagkit/internal/logger"
	"github.com/joshuapare/flagkit/internal/remote"
	"github.com/joshuapare/flagkit/internal/scan"
)

var (
	scanImage string
	scanBase  uint64
	scanFlat  bool
)

func init() {
	cmd := newScanCmd()
	cmd.Flags().StringVar(&scanImage, "image", "", "Scan a module file on disk instead of the running client")
	cmd.Flags().Uint64Var(&scanBase, "base", 0, "Load address for --image (default: the image's preferred base)")
	cmd.Flags().BoolVar(&scanFlat, "flat", false, "Treat --image as raw bytes, not a PE file")
	rootCmd.AddCommand(cmd)
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <signature>",
		Short: "Search a module for a byte signature",
		Long: `The scan command searches the client module for a byte signature and
prints the offset of every match from the module base. Wildcard bytes are
written as ??.

Example:
  flagctl scan "48 83 EC 38 48 8B 0D ?? ?? ?? ?? 4C 8D 05"
  flagctl scan "48 8B 0D ?? ?? ?? ??" --image RobloxPlayerBeta.exe`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), args[0])
		},
	}
}

type scanJSON struct {
	Module  string   `json:"module"`
	Base    string   `json:"base"`
	Matches []string `json:"matches"`
}

func runScan(ctx context.Context, text string) error {
	sig, err := scan.ParseSignature(text)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	var (
		mod  remote.Module
		hits []uint64
	)
	if scanImage != "" {
		printVerbose("Mapping %s\n", scanImage)
		img, err := image.Open(scanImage, image.Options{Base: scanBase, Flat: scanFlat})
		if err != nil {
			return fmt.Errorf("failed to open image: %w", err)
		}
		defer img.Close()
		mod = img.Bounds()
		hits = scan.New(img, mod, scan.Options{Logger: logger.L}).FindAll(sig)
	} else {
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if mod, err = s.Module(); err != nil {
			return err
		}
		if hits, err = s.Scan(sig); err != nil {
			return err
		}
	}

	offsets := lo.Map(hits, func(addr uint64, _ int) string { return hex(mod.Offset(addr)) })
	if jsonOut {
		return printJSON(scanJSON{Module: mod.Name, Base: hex(mod.Base), Matches: offsets})
	}
	printVerbose("%s at %s, %d byte signature\n", mod.Name, hex(mod.Base), sig.Len())
	for _, off := range offsets {
		printInfo("%s\n", off)
	}
	if len(offsets) == 0 {
		printInfo("no matches\n")
	}
	return nil
}
