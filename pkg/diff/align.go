package diff

import (
	"sort"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
)

// AlignedView is a dataset indexed and sorted by its key columns.
//
// Every row of the source dataset belongs to exactly one key group. Groups
// keep rows in their original order, and distinct keys are enumerated in
// ascending key order.
type AlignedView struct {
	data       *table.Dataset
	keyColumns []string
	keys       []table.Key
	groups     map[string][]int
}

// Align indexes ds by keyColumns. It fails with a *core.SchemaError when the
// key column list is empty or names a column ds does not have. The view
// owns a copy of ds.
func Align(ds *table.Dataset, keyColumns []string) (*AlignedView, error) {
	if ds == nil {
		return nil, &core.SchemaError{Dataset: "dataset", Reason: "no dataset to align"}
	}
	if len(keyColumns) == 0 {
		return nil, &core.SchemaError{Dataset: "dataset", Reason: "at least one key column is required"}
	}
	if err := requireColumns(ds, "dataset", "key", keyColumns); err != nil {
		return nil, err
	}

	cols := make([]int, len(keyColumns))
	for i, name := range keyColumns {
		cols[i] = ds.ColumnIndex(name)
	}

	v := &AlignedView{
		data:       ds.Clone(),
		keyColumns: append([]string(nil), keyColumns...),
		groups:     make(map[string][]int),
	}
	for row := 0; row < ds.NumRows(); row++ {
		key := ds.KeyAt(row, cols)
		enc := key.Encode()
		if _, seen := v.groups[enc]; !seen {
			v.keys = append(v.keys, key)
		}
		v.groups[enc] = append(v.groups[enc], row)
	}
	sort.Slice(v.keys, func(i, j int) bool {
		return v.keys[i].Compare(v.keys[j]) < 0
	})
	return v, nil
}

// KeyColumns returns the key columns of the view.
func (v *AlignedView) KeyColumns() []string {
	return append([]string(nil), v.keyColumns...)
}

// Keys returns the distinct keys in ascending order.
func (v *AlignedView) Keys() []table.Key {
	return append([]table.Key(nil), v.keys...)
}

// NumKeys returns the number of distinct keys.
func (v *AlignedView) NumKeys() int {
	return len(v.keys)
}

// NumRows returns the number of rows in the view.
func (v *AlignedView) NumRows() int {
	return v.data.NumRows()
}

// Contains reports whether key is present in the view.
func (v *AlignedView) Contains(key table.Key) bool {
	_, ok := v.groups[key.Encode()]
	return ok
}

// Rows returns the source row indices sharing key, in original order.
func (v *AlignedView) Rows(key table.Key) []int {
	return append([]int(nil), v.groups[key.Encode()]...)
}

// Data returns the view's copy of the dataset.
func (v *AlignedView) Data() *table.Dataset {
	return v.data
}

// DuplicateKeyRows counts the rows whose key occurs more than once.
func DuplicateKeyRows(v *AlignedView) int {
	n := 0
	for _, rows := range v.groups {
		if len(rows) > 1 {
			n += len(rows)
		}
	}
	return n
}
