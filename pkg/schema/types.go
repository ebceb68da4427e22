// Package schema checks that the columns two datasets are compared on
// carry compatible types.
package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// ValidationLevel defines how strict the type check is.
type ValidationLevel int

const (
	// ValidationLevelStrict requires identical Arrow types.
	ValidationLevelStrict ValidationLevel = iota

	// ValidationLevelRelaxed treats every numeric type as compatible with
	// every other, and an all-missing column as compatible with anything.
	ValidationLevelRelaxed
)

// ParseLevel converts "strict" or "relaxed" to a level.
func ParseLevel(s string) (ValidationLevel, error) {
	switch s {
	case "strict":
		return ValidationLevelStrict, nil
	case "relaxed", "":
		return ValidationLevelRelaxed, nil
	}
	return 0, fmt.Errorf("unknown validation level %q", s)
}

// Mismatch is a column whose type differs between the two datasets.
type Mismatch struct {
	Column string `json:"column"`
	TypeA  string `json:"type_a"`
	TypeB  string `json:"type_b"`

	// Key is set for key columns: rows cannot align on them across types.
	Key bool `json:"key"`
}

func (m Mismatch) String() string {
	role := "column"
	if m.Key {
		role = "key column"
	}
	return fmt.Sprintf("%s %s: %s vs %s", role, m.Column, m.TypeA, m.TypeB)
}

// ValidationResult is the outcome of comparing two schemas.
type ValidationResult struct {
	// OnlyInA and OnlyInB list fields missing from the other schema, in
	// schema order.
	OnlyInA []string `json:"only_in_a"`
	OnlyInB []string `json:"only_in_b"`

	// Mismatches lists checked fields with incompatible types.
	Mismatches []Mismatch `json:"mismatches"`
}

// Valid reports whether no checked field has incompatible types.
func (r ValidationResult) Valid() bool {
	return len(r.Mismatches) == 0
}

// KeyMismatches returns the mismatches on key columns.
func (r ValidationResult) KeyMismatches() []Mismatch {
	var out []Mismatch
	for _, m := range r.Mismatches {
		if m.Key {
			out = append(out, m)
		}
	}
	return out
}

func isNumeric(t arrow.DataType) bool {
	switch t.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.DECIMAL128, arrow.DECIMAL256:
		return true
	}
	return false
}

func isText(t arrow.DataType) bool {
	switch t.ID() {
	case arrow.STRING, arrow.LARGE_STRING, arrow.STRING_VIEW:
		return true
	}
	return false
}
