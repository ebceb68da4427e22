package diff

import (
	"fmt"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
)

// RowsOnlyIn returns the rows of a whose key does not occur in b.
//
// The difference is taken over keys, not whole rows: a key present in b
// excludes every a row carrying it, and a key absent from b contributes all
// of its a rows. Rows are emitted in ascending key order. The result lists
// the key columns first, then the remaining columns of a in their original
// order.
func RowsOnlyIn(a, b *AlignedView) (*table.Dataset, error) {
	if len(a.keyColumns) != len(b.keyColumns) {
		return nil, &core.SchemaError{
			Dataset: "dataset",
			Reason:  fmt.Sprintf("views are keyed on %d and %d columns", len(a.keyColumns), len(b.keyColumns)),
		}
	}

	var rows []int
	for _, key := range a.keys {
		if b.Contains(key) {
			continue
		}
		rows = append(rows, a.groups[key.Encode()]...)
	}

	return a.data.Take(outputColumns(a), rows)
}

// outputColumns restores the key columns as ordinary leading columns.
func outputColumns(v *AlignedView) []string {
	names := append([]string(nil), v.keyColumns...)
	for _, name := range v.data.ColumnNames() {
		if !containsString(v.keyColumns, name) {
			names = append(names, name)
		}
	}
	return names
}
