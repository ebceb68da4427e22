package main

import (
	"fmt"

	"github.com/TFMV/keydiff/pkg/diff"
	"github.com/TFMV/keydiff/pkg/readers"
	"github.com/spf13/cobra"
)

// newColumnsCommand lists the columns two datasets share, which are the
// candidates for --key and --compare.
func newColumnsCommand(global *globalOptions) *cobra.Command {
	options := &DiffOptions{}

	cmd := &cobra.Command{
		Use:   "columns [flags] A B",
		Short: "List the columns present in both datasets",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			applyDiffFlags(cmd, cfg, options, args)
			if err := cfg.Left.Validate(); err != nil {
				return fmt.Errorf("A: %w", err)
			}
			if err := cfg.Right.Validate(); err != nil {
				return fmt.Errorf("B: %w", err)
			}

			labelA := readers.Label(cfg.Left.Path, cfg.Left.Sheet)
			labelB := readers.Label(cfg.Right.Path, cfg.Right.Sheet)
			a, b, err := loadPair(cmd.Context(), cfg, labelA, labelB, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range diff.CommonColumns(a, b) {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&options.SheetA, "sheet-a", "", "Worksheet of A (default: first sheet)")
	f.StringVar(&options.SheetB, "sheet-b", "", "Worksheet of B (default: first sheet)")
	f.StringVar(&options.TypeA, "type-a", "", "Reader type of A (default: by extension)")
	f.StringVar(&options.TypeB, "type-b", "", "Reader type of B")

	return cmd
}

// newSheetsCommand lists the worksheets of a workbook.
func newSheetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets FILE",
		Short: "List the worksheets of an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !readers.IsSpreadsheet(args[0]) {
				return fmt.Errorf("%s is not a workbook", args[0])
			}
			sheets, err := readers.SheetNames(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range sheets {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}
