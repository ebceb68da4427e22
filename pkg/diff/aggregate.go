package diff

import (
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
)

// Record field names accepted by CountDistinct.
const (
	FieldDatasetA   = "dataset_a_label"
	FieldDatasetB   = "dataset_b_label"
	FieldKeyColumns = "key_column_names"
	FieldKey        = "key_value"
	FieldColumn     = "column_name"
	FieldValueA     = "value_a"
	FieldValueB     = "value_b"
)

// CountDistinctKeys returns the number of distinct keys across records,
// i.e. the number of rows with at least one difference.
func CountDistinctKeys(records []core.DifferenceRecord) int {
	n, _ := CountDistinct(records, FieldKey)
	return n
}

// CountDistinct returns the number of distinct values of field across
// records. An unknown field fails with a *core.LookupError.
func CountDistinct(records []core.DifferenceRecord, field string) (int, error) {
	extract, err := fieldExtractor(field)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		seen[extract(&records[i])] = struct{}{}
	}
	return len(seen), nil
}

// CountByColumn returns the number of difference records per column.
func CountByColumn(records []core.DifferenceRecord) map[string]int64 {
	out := make(map[string]int64)
	for _, r := range records {
		out[r.Column]++
	}
	return out
}

func fieldExtractor(field string) (func(*core.DifferenceRecord) string, error) {
	switch field {
	case FieldDatasetA:
		return func(r *core.DifferenceRecord) string { return r.DatasetA }, nil
	case FieldDatasetB:
		return func(r *core.DifferenceRecord) string { return r.DatasetB }, nil
	case FieldKeyColumns:
		return func(r *core.DifferenceRecord) string { return strings.Join(r.KeyColumns, "\x00") }, nil
	case FieldKey:
		return func(r *core.DifferenceRecord) string { return r.Key.Encode() }, nil
	case FieldColumn:
		return func(r *core.DifferenceRecord) string { return r.Column }, nil
	case FieldValueA:
		return func(r *core.DifferenceRecord) string { return table.Key{r.ValueA}.Encode() }, nil
	case FieldValueB:
		return func(r *core.DifferenceRecord) string { return table.Key{r.ValueB}.Encode() }, nil
	default:
		return nil, &core.LookupError{Field: field}
	}
}

// DifferencesTable lays the records out as a dataset with one column per
// record field, for writers and reports. Keys are rendered as text.
func DifferencesTable(records []core.DifferenceRecord) *table.Dataset {
	cols := []table.Column{
		{Name: FieldDatasetA, Values: make([]table.Value, len(records))},
		{Name: FieldDatasetB, Values: make([]table.Value, len(records))},
		{Name: FieldKeyColumns, Values: make([]table.Value, len(records))},
		{Name: FieldKey, Values: make([]table.Value, len(records))},
		{Name: FieldColumn, Values: make([]table.Value, len(records))},
		{Name: FieldValueA, Values: make([]table.Value, len(records))},
		{Name: FieldValueB, Values: make([]table.Value, len(records))},
	}
	for i, r := range records {
		cols[0].Values[i] = table.Text(r.DatasetA)
		cols[1].Values[i] = table.Text(r.DatasetB)
		cols[2].Values[i] = table.Text(strings.Join(r.KeyColumns, ","))
		cols[3].Values[i] = table.Text(r.Key.String())
		cols[4].Values[i] = table.Text(r.Column)
		cols[5].Values[i] = r.ValueA
		cols[6].Values[i] = r.ValueB
	}
	return table.MustNew(cols...)
}
