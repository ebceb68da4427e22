package schema

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchemas() (*arrow.Schema, *arrow.Schema) {
	a := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "amount", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "note", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	b := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "name", Type: arrow.Null, Nullable: true},
		{Name: "amount", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "flag", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	}, nil)
	return a, b
}

func TestValidateAgainstTargetRelaxed(t *testing.T) {
	a, b := testSchemas()
	result := NewRelaxedValidator().ValidateAgainstTarget(a, b, []string{"id"}, nil)

	assert.Equal(t, []string{"note"}, result.OnlyInA)
	assert.Equal(t, []string{"flag"}, result.OnlyInB)
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, Mismatch{Column: "id", TypeA: "int64", TypeB: "utf8", Key: true}, result.Mismatches[0])
	assert.False(t, result.Valid())
	assert.Len(t, result.KeyMismatches(), 1)
}

func TestValidateAgainstTargetStrict(t *testing.T) {
	a, b := testSchemas()
	result := NewStrictValidator().ValidateAgainstTarget(a, b, []string{"id"}, nil)

	var columns []string
	for _, m := range result.Mismatches {
		columns = append(columns, m.Column)
	}
	assert.Equal(t, []string{"id", "name", "amount"}, columns)
}

func TestValidateAgainstTargetOnlyChecksComparedColumns(t *testing.T) {
	a, b := testSchemas()
	v := NewStrictValidator()

	result := v.ValidateAgainstTarget(a, b, []string{"name"}, []string{"amount"})
	require.Len(t, result.Mismatches, 2)
	assert.True(t, result.Mismatches[0].Key)
	assert.Equal(t, "amount", result.Mismatches[1].Column)
	assert.Len(t, result.KeyMismatches(), 1)
}

func TestCompatible(t *testing.T) {
	relaxed := NewRelaxedValidator()
	assert.True(t, relaxed.Compatible(arrow.PrimitiveTypes.Int32, arrow.PrimitiveTypes.Float64))
	assert.True(t, relaxed.Compatible(arrow.BinaryTypes.String, arrow.BinaryTypes.LargeString))
	assert.True(t, relaxed.Compatible(arrow.Null, arrow.FixedWidthTypes.Boolean))
	assert.False(t, relaxed.Compatible(arrow.FixedWidthTypes.Boolean, arrow.BinaryTypes.String))

	strict := NewStrictValidator()
	assert.True(t, strict.Compatible(arrow.PrimitiveTypes.Int64, arrow.PrimitiveTypes.Int64))
	assert.False(t, strict.Compatible(arrow.PrimitiveTypes.Int32, arrow.PrimitiveTypes.Int64))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("strict")
	require.NoError(t, err)
	assert.Equal(t, ValidationLevelStrict, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, ValidationLevelRelaxed, level)

	_, err = ParseLevel("loose")
	assert.Error(t, err)
}

func TestPrintValidationResult(t *testing.T) {
	a, b := testSchemas()
	out := PrintValidationResult(NewRelaxedValidator().ValidateAgainstTarget(a, b, []string{"id"}, nil), "a.csv", "b.csv")
	assert.Contains(t, out, "Fields only in a.csv: note")
	assert.Contains(t, out, "Fields only in b.csv: flag")
	assert.Contains(t, out, "key column id: int64 vs utf8")

	out = PrintValidationResult(ValidationResult{}, "a", "b")
	assert.Contains(t, out, "None")
}

func TestSchemaToString(t *testing.T) {
	a, _ := testSchemas()
	out := SchemaToString(a)
	assert.Contains(t, out, "  id: int64 NULL\n")
	assert.Contains(t, out, "  note: utf8 NULL\n")
}
