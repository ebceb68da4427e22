package diff

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/schema"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var _ core.Differ = (*KeyDiffer)(nil)

// KeyDiffer runs the full comparison pipeline for a pair of datasets.
// It holds no state between comparisons and is safe for concurrent use.
type KeyDiffer struct {
	log *zap.Logger
}

// NewKeyDiffer creates a differ that logs to log. A nil logger disables
// logging.
func NewKeyDiffer(log *zap.Logger) (*KeyDiffer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	return &KeyDiffer{log: log}, nil
}

// Close closes the differ and releases resources.
func (d *KeyDiffer) Close() error {
	// No explicit resources to close
	return nil
}

// Diff loads both readers fully and compares them.
func (d *KeyDiffer) Diff(ctx context.Context, source, target core.DatasetReader, options core.CompareOptions) (*core.Result, error) {
	var a, b *table.Dataset
	var err error
	if source != nil {
		if a, err = ReadDataset(ctx, source); err != nil {
			return nil, fmt.Errorf("failed to read source dataset: %w", err)
		}
	}
	if target != nil {
		if b, err = ReadDataset(ctx, target); err != nil {
			return nil, fmt.Errorf("failed to read target dataset: %w", err)
		}
	}
	return d.Compare(ctx, a, b, options)
}

// Compare aligns a and b on the key columns, then reports rows only in a,
// rows only in b, and cell differences for rows in both.
//
// A nil dataset on either side yields an empty result flagged Empty. A key
// or compare column missing from either dataset aborts the comparison with
// a *core.SchemaError.
func (d *KeyDiffer) Compare(ctx context.Context, a, b *table.Dataset, options core.CompareOptions) (*core.Result, error) {
	labelA, labelB := options.LabelA, options.LabelB
	if labelA == "" {
		labelA = "A"
	}
	if labelB == "" {
		labelB = "B"
	}

	if a == nil || b == nil {
		d.log.Info("comparison skipped, dataset missing",
			zap.Bool("has_a", a != nil), zap.Bool("has_b", b != nil))
		return emptyResult(labelA, labelB, options), nil
	}

	keyColumns := options.KeyColumns
	if len(keyColumns) == 0 {
		return nil, &core.SchemaError{Dataset: labelA, Reason: "at least one key column is required"}
	}
	if err := requireColumns(a, labelA, "key", keyColumns); err != nil {
		return nil, err
	}
	if err := requireColumns(b, labelB, "key", keyColumns); err != nil {
		return nil, err
	}

	compareColumns := options.CompareColumns
	if len(compareColumns) == 0 {
		for _, name := range CommonColumns(a, b) {
			if !containsString(keyColumns, name) {
				compareColumns = append(compareColumns, name)
			}
		}
	}
	if err := requireColumns(a, labelA, "compare", compareColumns); err != nil {
		return nil, err
	}
	if err := requireColumns(b, labelB, "compare", compareColumns); err != nil {
		return nil, err
	}

	types := schema.NewRelaxedValidator().ValidateAgainstTarget(table.Schema(a), table.Schema(b), keyColumns, compareColumns)
	for _, m := range types.Mismatches {
		d.log.Warn("column types differ", zap.String("column", m.Column), zap.Bool("key", m.Key),
			zap.String(labelA, m.TypeA), zap.String(labelB, m.TypeB))
	}

	viewA, viewB, err := d.alignBoth(ctx, a, b, keyColumns, options.Parallel)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	onlyA, err := RowsOnlyIn(viewA, viewB)
	if err != nil {
		return nil, err
	}
	onlyB, err := RowsOnlyIn(viewB, viewA)
	if err != nil {
		return nil, err
	}

	differ := CellDiffer{Tolerance: options.Tolerance}
	records, err := differ.Diff(viewA, labelA, viewB, labelB, keyColumns, compareColumns)
	if err != nil {
		return nil, err
	}

	summary := core.Summary{
		RowsA:               int64(a.NumRows()),
		RowsB:               int64(b.NumRows()),
		OnlyInA:             int64(onlyA.NumRows()),
		OnlyInB:             int64(onlyB.NumRows()),
		RowsWithDifferences: int64(CountDistinctKeys(records)),
		CellDifferences:     int64(len(records)),
		Columns:             CountByColumn(records),
		DuplicatesA:         int64(DuplicateKeyRows(viewA)),
		DuplicatesB:         int64(DuplicateKeyRows(viewB)),
		UncomparedA:         UncomparedColumns(a, keyColumns, compareColumns),
		UncomparedB:         UncomparedColumns(b, keyColumns, compareColumns),
		TypeMismatches:      types.Mismatches,
	}

	if summary.DuplicatesA > 0 {
		d.log.Warn("duplicate keys", zap.String("dataset", labelA),
			zap.Int64("rows", summary.DuplicatesA), zap.Strings("key_columns", keyColumns))
	}
	if summary.DuplicatesB > 0 {
		d.log.Warn("duplicate keys", zap.String("dataset", labelB),
			zap.Int64("rows", summary.DuplicatesB), zap.Strings("key_columns", keyColumns))
	}
	d.log.Info("comparison complete",
		zap.String("a", labelA), zap.String("b", labelB),
		zap.Int64("only_in_a", summary.OnlyInA),
		zap.Int64("only_in_b", summary.OnlyInB),
		zap.Int64("rows_with_differences", summary.RowsWithDifferences),
		zap.Int64("cell_differences", summary.CellDifferences))

	return &core.Result{
		LabelA:         labelA,
		LabelB:         labelB,
		KeyColumns:     append([]string(nil), keyColumns...),
		CompareColumns: append([]string(nil), compareColumns...),
		OnlyInA:        onlyA,
		OnlyInB:        onlyB,
		Differences:    records,
		Summary:        summary,
	}, nil
}

// alignBoth aligns the two datasets, concurrently when parallel is set.
func (d *KeyDiffer) alignBoth(ctx context.Context, a, b *table.Dataset, keyColumns []string, parallel bool) (*AlignedView, *AlignedView, error) {
	if !parallel {
		viewA, err := Align(a, keyColumns)
		if err != nil {
			return nil, nil, err
		}
		viewB, err := Align(b, keyColumns)
		if err != nil {
			return nil, nil, err
		}
		return viewA, viewB, nil
	}

	var viewA, viewB *AlignedView
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		viewA, err = Align(a, keyColumns)
		return err
	})
	g.Go(func() error {
		var err error
		viewB, err = Align(b, keyColumns)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return viewA, viewB, nil
}

func emptyResult(labelA, labelB string, options core.CompareOptions) *core.Result {
	return &core.Result{
		LabelA:         labelA,
		LabelB:         labelB,
		KeyColumns:     append([]string(nil), options.KeyColumns...),
		CompareColumns: append([]string(nil), options.CompareColumns...),
		Empty:          true,
		Differences:    []core.DifferenceRecord{},
		Summary:        core.Summary{Columns: map[string]int64{}},
	}
}

// ReadDataset reads all records from a reader into a single Dataset.
// Readers exposing ReadAll(ctx) return a record the caller releases; other
// readers are drained with Read until io.EOF.
func ReadDataset(ctx context.Context, reader core.DatasetReader) (*table.Dataset, error) {
	// Check if the reader implements the ReadAll method
	if readAllReader, ok := reader.(interface {
		ReadAll(context.Context) (arrow.Record, error)
	}); ok {
		record, err := readAllReader.ReadAll(ctx)
		if errors.Is(err, io.EOF) {
			return table.FromRecords(reader.Schema(), nil)
		}
		if err != nil {
			return nil, err
		}
		defer record.Release()
		return table.FromRecord(record)
	}

	var records []arrow.Record
	defer func() {
		for _, r := range records {
			r.Release()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if record == nil {
			break
		}

		// Retain the record before adding it to our list
		record.Retain()
		records = append(records, record)
	}

	return table.FromRecords(reader.Schema(), records)
}
