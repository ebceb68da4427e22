package diff

import (
	"fmt"
	"math"
	"slices"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
)

// CellDiffer compares the cells of rows present in two aligned views.
type CellDiffer struct {
	// Tolerance is the relative tolerance applied when both cells are
	// numeric and at least one is floating point. Zero means exact.
	Tolerance float64
}

// Diff compares a and b with exact equality. See CellDiffer.Diff.
func Diff(a *AlignedView, labelA string, b *AlignedView, labelB string, keyColumns, compareColumns []string) ([]core.DifferenceRecord, error) {
	return CellDiffer{}.Diff(a, labelA, b, labelB, keyColumns, compareColumns)
}

// Diff returns one DifferenceRecord per (key, column) whose values differ,
// for keys present in both views.
//
// Keys are visited in ascending order and columns in the order of
// compareColumns. When a key has several rows on a side, rows are paired
// by position within the key group; rows without a partner are not
// compared. Every compare column must exist in both views, otherwise a
// *core.SchemaError is returned.
func (c CellDiffer) Diff(a *AlignedView, labelA string, b *AlignedView, labelB string, keyColumns, compareColumns []string) ([]core.DifferenceRecord, error) {
	for _, side := range []struct {
		label string
		view  *AlignedView
	}{{labelA, a}, {labelB, b}} {
		if !slices.Equal(keyColumns, side.view.keyColumns) {
			return nil, &core.SchemaError{
				Dataset: side.label,
				Reason:  fmt.Sprintf("key columns %v do not match the view aligned on %v", keyColumns, side.view.keyColumns),
			}
		}
	}
	if err := requireColumns(a.data, labelA, "compare", compareColumns); err != nil {
		return nil, err
	}
	if err := requireColumns(b.data, labelB, "compare", compareColumns); err != nil {
		return nil, err
	}

	colsA := make([]int, len(compareColumns))
	colsB := make([]int, len(compareColumns))
	for i, name := range compareColumns {
		colsA[i] = a.data.ColumnIndex(name)
		colsB[i] = b.data.ColumnIndex(name)
	}

	records := []core.DifferenceRecord{}
	for _, key := range a.keys {
		enc := key.Encode()
		rowsB, ok := b.groups[enc]
		if !ok {
			continue
		}
		rowsA := a.groups[enc]
		pairs := min(len(rowsA), len(rowsB))
		for p := 0; p < pairs; p++ {
			for i, name := range compareColumns {
				va := a.data.Value(rowsA[p], colsA[i])
				vb := b.data.Value(rowsB[p], colsB[i])
				if c.equal(va, vb) {
					continue
				}
				records = append(records, core.DifferenceRecord{
					DatasetA:   labelA,
					DatasetB:   labelB,
					KeyColumns: append([]string(nil), keyColumns...),
					Key:        key,
					Column:     name,
					ValueA:     va,
					ValueB:     vb,
					Delta:      AbsDifference(va, vb),
				})
			}
		}
	}
	return records, nil
}

// equal applies the natural equality of the values, relaxed by the
// tolerance for floating point pairs.
func (c CellDiffer) equal(a, b table.Value) bool {
	if a.Equal(b) {
		return true
	}
	if c.Tolerance <= 0 || !a.IsNumeric() || !b.IsNumeric() || (!a.IsFloat() && !b.IsFloat()) {
		return false
	}
	fa, _ := a.Float64()
	fb, _ := b.Float64()
	return floatEqual(fa, fb, c.Tolerance)
}

// AbsDifference returns |a-b| for two numeric values and an invalid Delta
// for any other pairing.
func AbsDifference(a, b table.Value) core.Delta {
	d, ok := a.AbsDiff(b)
	return core.Delta{Value: d, Valid: ok}
}

// floatEqual compares two float values with tolerance
func floatEqual(a, b, tolerance float64) bool {
	if a == b {
		return true
	}

	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}

	// Compare with tolerance
	diff := math.Abs(a - b)
	if a == 0 || b == 0 {
		return diff < tolerance
	}

	// Use relative tolerance based on the larger value
	return diff/math.Max(math.Abs(a), math.Abs(b)) < tolerance
}
