package table

import (
	"encoding/json"
	"fmt"
)

// Column is a named sequence of values.
type Column struct {
	Name   string
	Values []Value
}

// Dataset is an ordered collection of equal length columns.
//
// A Dataset is treated as immutable once built: operations that derive new
// data return new datasets and never modify the receiver.
type Dataset struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a dataset from columns. Column names must be unique and every
// column must have the same length.
func New(columns ...Column) (*Dataset, error) {
	ds := &Dataset{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if _, dup := ds.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		if i == 0 {
			ds.rows = len(col.Values)
		} else if len(col.Values) != ds.rows {
			return nil, fmt.Errorf("column %q has %d values, expected %d", col.Name, len(col.Values), ds.rows)
		}
		ds.index[col.Name] = i
		ds.columns[i] = Column{Name: col.Name, Values: append([]Value(nil), col.Values...)}
	}
	return ds, nil
}

// MustNew is like New but panics on error. It is intended for tests and
// static fixtures.
func MustNew(columns ...Column) *Dataset {
	ds, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return ds
}

// FromRows builds a dataset from a header and row-major values.
func FromRows(names []string, rows [][]Value) (*Dataset, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Values: make([]Value, len(rows))}
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", r, len(row), len(names))
		}
		for c, v := range row {
			cols[c].Values[r] = v
		}
	}
	return New(cols...)
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// NumCols returns the column count.
func (d *Dataset) NumCols() int {
	if d == nil {
		return 0
	}
	return len(d.columns)
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column exists.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.index[name]
	return ok
}

// ColumnIndex returns the position of a column or -1.
func (d *Dataset) ColumnIndex(name string) int {
	if d == nil {
		return -1
	}
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// Column returns a copy of the named column's values.
func (d *Dataset) Column(name string) ([]Value, bool) {
	i := d.ColumnIndex(name)
	if i < 0 {
		return nil, false
	}
	return append([]Value(nil), d.columns[i].Values...), true
}

// Value returns the cell at (row, column index).
func (d *Dataset) Value(row, col int) Value {
	return d.columns[col].Values[row]
}

// Row returns a copy of one row in column order.
func (d *Dataset) Row(row int) []Value {
	out := make([]Value, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Values[row]
	}
	return out
}

// Clone returns an independent copy of d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	ds, _ := New(d.columns...)
	return ds
}

// Take returns a new dataset holding the given rows, in the given order,
// with columns arranged as names. Every name must exist.
func (d *Dataset) Take(names []string, rows []int) (*Dataset, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		src := d.ColumnIndex(name)
		if src < 0 {
			return nil, fmt.Errorf("column %q not found", name)
		}
		values := make([]Value, len(rows))
		for j, r := range rows {
			values[j] = d.columns[src].Values[r]
		}
		cols[i] = Column{Name: name, Values: values}
	}
	return New(cols...)
}

// jsonDataset is the wire shape of a Dataset.
type jsonDataset struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// MarshalJSON encodes d as {"columns": [...], "rows": [[...], ...]}.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	out := jsonDataset{Columns: d.ColumnNames(), Rows: make([][]Value, d.NumRows())}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	for r := 0; r < d.NumRows(); r++ {
		out.Rows[r] = d.Row(r)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the shape produced by MarshalJSON.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var in jsonDataset
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	ds, err := FromRows(in.Columns, in.Rows)
	if err != nil {
		return err
	}
	*d = *ds
	return nil
}
