package core

import "fmt"

// SchemaError reports a key or comparison column that does not exist in a
// dataset. It aborts the whole comparison.
type SchemaError struct {
	// Dataset is the label of the dataset missing the column.
	Dataset string
	// Column is the offending column name.
	Column string
	// Reason describes the violated precondition.
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema error in %s: %s", e.Dataset, e.Reason)
	}
	return fmt.Sprintf("schema error in %s: column %q %s", e.Dataset, e.Column, e.Reason)
}

// LookupError reports an aggregation or lookup on a field that does not
// exist in a derived structure.
type LookupError struct {
	Field string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("field %q does not exist", e.Field)
}
