package main

import (
	"errors"
	"fmt"

	"github.com/TFMV/keydiff/pkg/readers"
	"github.com/TFMV/keydiff/pkg/schema"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/spf13/cobra"
)

// SchemaOptions represents the options for the schema command.
type SchemaOptions struct {
	DiffOptions
	Level string
}

// newSchemaCommand prints the column types of both datasets and the
// columns whose types are incompatible.
func newSchemaCommand(global *globalOptions) *cobra.Command {
	options := &SchemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema [flags] A B",
		Short: "Compare the column types of two datasets",
		Long: `Print the column types inferred for A and B, the columns found in only
one of them, and the shared columns whose types cannot compare equal.
The command fails when a mismatch is found.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := schema.ParseLevel(options.Level)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			applyDiffFlags(cmd, cfg, &options.DiffOptions, args)
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

			validator := schema.NewArrowSchemaValidator()
			validator.SetValidationLevel(level)
			schemaA, schemaB := table.Schema(a), table.Schema(b)
			result := validator.ValidateAgainstTarget(schemaA, schemaB, cfg.Keys, cfg.Compare)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n", labelA, schema.SchemaToString(schemaA))
			fmt.Fprintf(out, "%s\n%s\n", labelB, schema.SchemaToString(schemaB))
			fmt.Fprint(out, schema.PrintValidationResult(result, labelA, labelB))

			if !result.Valid() {
				return errors.New("schemas are not compatible")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&options.KeyColumns, "key", "k", nil, "Key columns")
	f.StringSliceVar(&options.Compare, "compare", nil, "Columns to check (default: all common columns)")
	f.StringVar(&options.SheetA, "sheet-a", "", "Worksheet of A (default: first sheet)")
	f.StringVar(&options.SheetB, "sheet-b", "", "Worksheet of B (default: first sheet)")
	f.StringVar(&options.Level, "level", "relaxed", "Type check level (relaxed, strict)")

	return cmd
}
