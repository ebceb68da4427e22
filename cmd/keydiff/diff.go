package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/TFMV/keydiff/config"
	"github.com/TFMV/keydiff/logger"
	"github.com/TFMV/keydiff/metrics"
	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/diff"
	"github.com/TFMV/keydiff/pkg/readers"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/TFMV/keydiff/pkg/writers"
	"github.com/TFMV/keydiff/report"
	"github.com/TFMV/keydiff/version"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errDifferences is returned with --fail-on-diff when the inputs differ.
var errDifferences = errors.New("datasets differ")

// DiffOptions represents the flags of the diff command.
type DiffOptions struct {
	SheetA       string
	SheetB       string
	TypeA        string
	TypeB        string
	KeyColumns   []string
	Compare      []string
	Tolerance    float64
	Parallel     bool
	OutputDir    string
	OutputFormat string
	ReportFormat string
	ReportFile   string
	MaxRows      int
	MetricsFile  string
	FailOnDiff   bool
}

// newDiffCommand creates a new diff command.
func newDiffCommand(global *globalOptions) *cobra.Command {
	options := &DiffOptions{}

	cmd := &cobra.Command{
		Use:   "diff [flags] A B",
		Short: "Compare two datasets on key columns",
		Long: `The diff command aligns A and B on the key columns and reports:

  - rows of A whose key is not in B, and rows of B whose key is not in A
  - one record per cell that differs between rows sharing a key

Inputs and options may also come from a job file given with --config.
Flags and arguments override the job file.`,
		Example: `  keydiff diff a.csv b.parquet --key id --compare name,amount
  keydiff diff book.xlsx book.xlsx --sheet-a Q1 --sheet-b Q2 --key region,id
  keydiff diff --config job.yaml --output out --format parquet`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			applyDiffFlags(cmd, cfg, options, args)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runDiff(cmd.Context(), cfg, options, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&options.KeyColumns, "key", "k", nil, "Key columns used to align rows")
	f.StringSliceVar(&options.Compare, "compare", nil, "Columns to compare (default: all common non-key columns)")
	f.StringVar(&options.SheetA, "sheet-a", "", "Worksheet of A (default: first sheet)")
	f.StringVar(&options.SheetB, "sheet-b", "", "Worksheet of B (default: first sheet)")
	f.StringVar(&options.TypeA, "type-a", "", "Reader type of A (csv, parquet, arrow, xlsx, duckdb; default: by extension)")
	f.StringVar(&options.TypeB, "type-b", "", "Reader type of B")
	f.Float64Var(&options.Tolerance, "tolerance", 0, "Relative tolerance for floating point comparisons; 0 is exact")
	f.BoolVar(&options.Parallel, "parallel", false, "Align both datasets concurrently")
	f.StringVarP(&options.OutputDir, "output", "o", "", "Directory for only_in_a, only_in_b and differences files")
	f.StringVarP(&options.OutputFormat, "format", "f", "csv", "Output file format (csv, json, parquet, arrow)")
	f.StringVarP(&options.ReportFormat, "report", "r", "text", "Report format (text, json, html, markdown)")
	f.StringVar(&options.ReportFile, "report-file", "", "Write the report to a file instead of stdout")
	f.IntVar(&options.MaxRows, "max-rows", 20, "Rows shown per table in the report; 0 shows all")
	f.StringVar(&options.MetricsFile, "metrics", "", "Write run metrics as JSON to this file")
	f.BoolVar(&options.FailOnDiff, "fail-on-diff", false, "Exit with an error when the datasets differ")

	return cmd
}

// applyDiffFlags overrides job values with the arguments and the flags that
// were set explicitly.
func applyDiffFlags(cmd *cobra.Command, cfg *config.Config, options *DiffOptions, args []string) {
	if len(args) > 0 {
		cfg.Left.Path = args[0]
	}
	if len(args) > 1 {
		cfg.Right.Path = args[1]
	}

	changed := cmd.Flags().Changed
	set := func(name string, apply func()) {
		if changed(name) {
			apply()
		}
	}
	set("key", func() { cfg.Keys = options.KeyColumns })
	set("compare", func() { cfg.Compare = options.Compare })
	set("sheet-a", func() { cfg.Left.Sheet = options.SheetA })
	set("sheet-b", func() { cfg.Right.Sheet = options.SheetB })
	set("type-a", func() { cfg.Left.Type = options.TypeA })
	set("type-b", func() { cfg.Right.Type = options.TypeB })
	set("tolerance", func() { cfg.Tolerance = options.Tolerance })
	set("parallel", func() { cfg.Parallel = options.Parallel })
	set("output", func() { cfg.Output.Dir = options.OutputDir })
	set("format", func() { cfg.Output.Format = options.OutputFormat })
	set("report", func() { cfg.Report.Format = options.ReportFormat })
	set("report-file", func() { cfg.Report.File = options.ReportFile })
	set("max-rows", func() { cfg.Report.MaxRows = options.MaxRows })
}

// runDiff loads both datasets, compares them and emits the report, the
// output files and the run metrics.
func runDiff(ctx context.Context, cfg *config.Config, options *DiffOptions, stdout, stderr io.Writer) error {
	log := logger.GetLogger()
	start := time.Now()

	labelA := readers.Label(cfg.Left.Path, cfg.Left.Sheet)
	labelB := readers.Label(cfg.Right.Path, cfg.Right.Sheet)
	if sameSource(cfg.Left, cfg.Right) {
		log.Warn("both inputs refer to the same data; every row will match",
			zap.String("a", labelA), zap.String("b", labelB))
	}

	a, b, err := loadPair(ctx, cfg, labelA, labelB, stderr)
	if err != nil {
		return err
	}
	loaded := time.Now()

	differ, err := diff.NewKeyDiffer(log)
	if err != nil {
		return err
	}
	defer differ.Close()

	res, err := differ.Compare(ctx, a, b, cfg.CompareOptions(labelA, labelB))
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	compared := time.Now()

	if err := emitReport(cfg, res, stdout); err != nil {
		return err
	}

	if cfg.Output.Dir != "" {
		files, err := writers.WriteResult(ctx, cfg.Output.Dir, cfg.Output.Format, res)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		log.Info("wrote comparison output", zap.Strings("files", files))
	}
	end := time.Now()

	run := metrics.NewRunReport("", res, cfg.Tolerance, start, end)
	run.Run.Version = version.Version
	run.Timings = metrics.PhaseTimings{
		Load:    loaded.Sub(start),
		Compare: compared.Sub(loaded),
		Write:   end.Sub(compared),
	}
	if options.MetricsFile != "" {
		store := &metrics.JSONMetricsStore{FilePath: options.MetricsFile}
		if err := store.SaveWithContext(ctx, run); err != nil {
			return fmt.Errorf("failed to save metrics: %w", err)
		}
	}

	if options.FailOnDiff && !run.Passed() {
		return errDifferences
	}
	return nil
}

// loadPair reads both inputs concurrently behind a spinner.
func loadPair(ctx context.Context, cfg *config.Config, labelA, labelB string, stderr io.Writer) (*table.Dataset, *table.Dataset, error) {
	s := newSpinner(stderr, fmt.Sprintf(" Loading %s and %s", labelA, labelB))
	s.Start()
	defer s.Stop()

	var a, b *table.Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = readers.Load(gctx, cfg.Left.ReaderConfig())
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", labelA, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		b, err = readers.Load(gctx, cfg.Right.ReaderConfig())
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", labelB, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// newSpinner draws on w only when it is a terminal file.
func newSpinner(w io.Writer, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithSuffix(suffix))
	if f, ok := w.(*os.File); ok {
		spinner.WithWriterFile(f)(s)
	} else {
		s.Disable()
	}
	return s
}

func emitReport(cfg *config.Config, res *core.Result, stdout io.Writer) error {
	gen, err := report.New(cfg.Report.Format, cfg.Report.MaxRows)
	if err != nil {
		return err
	}
	if cfg.Report.File != "" {
		if err := gen.SaveReportToFile(res, cfg.Report.File); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		return nil
	}
	data, err := gen.GenerateReport(res)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	_, err = stdout.Write(data)
	return err
}

// sameSource reports whether both sides read the same file, sheet and query.
func sameSource(a, b config.SourceConfig) bool {
	pa, errA := filepath.Abs(a.Path)
	pb, errB := filepath.Abs(b.Path)
	if errA != nil || errB != nil || pa != pb {
		return false
	}
	if readers.IsSpreadsheet(a.Path) && resolveSheet(a) != resolveSheet(b) {
		return false
	}
	return a.Query == b.Query && a.Table == b.Table
}

func resolveSheet(s config.SourceConfig) string {
	if s.Sheet != "" {
		return s.Sheet
	}
	sheets, err := readers.SheetNames(s.Path)
	if err != nil || len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

