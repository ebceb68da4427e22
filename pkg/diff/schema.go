// Package diff implements key-aligned comparison of two datasets.
//
// The pipeline is: CommonColumns to offer choices, Align on each side,
// RowsOnlyIn in both directions, Diff for rows present on both sides, and
// CountDistinctKeys to summarise the differences. KeyDiffer runs the whole
// pipeline for one pair of datasets.
package diff

import (
	"sort"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
)

// CommonColumns returns the column names present in both datasets, sorted.
// A nil dataset on either side yields an empty result.
func CommonColumns(a, b *table.Dataset) []string {
	if a == nil || b == nil {
		return []string{}
	}
	common := []string{}
	for _, name := range a.ColumnNames() {
		if b.HasColumn(name) {
			common = append(common, name)
		}
	}
	sort.Strings(common)
	return common
}

// UncomparedColumns returns the columns of ds, in dataset order, that are
// neither key columns nor comparison columns.
func UncomparedColumns(ds *table.Dataset, keyColumns, compareColumns []string) []string {
	out := []string{}
	for _, name := range ds.ColumnNames() {
		if containsString(keyColumns, name) || containsString(compareColumns, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// requireColumns fails with a SchemaError for the first name missing from ds.
func requireColumns(ds *table.Dataset, label, role string, names []string) error {
	for _, name := range names {
		if !ds.HasColumn(name) {
			return &core.SchemaError{Dataset: label, Column: name, Reason: "is not a column (" + role + ")"}
		}
	}
	return nil
}

// containsString checks if a slice contains a string
func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
