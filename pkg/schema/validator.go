package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// ArrowSchemaValidator compares the schemas of two datasets.
type ArrowSchemaValidator struct {
	validationLevel ValidationLevel
}

// NewArrowSchemaValidator creates a validator with the relaxed level.
func NewArrowSchemaValidator() *ArrowSchemaValidator {
	return &ArrowSchemaValidator{validationLevel: ValidationLevelRelaxed}
}

// NewStrictValidator creates a validator with strict validation level.
func NewStrictValidator() *ArrowSchemaValidator {
	validator := NewArrowSchemaValidator()
	validator.SetValidationLevel(ValidationLevelStrict)
	return validator
}

// NewRelaxedValidator creates a validator with relaxed validation level.
func NewRelaxedValidator() *ArrowSchemaValidator {
	return NewArrowSchemaValidator()
}

// SetValidationLevel sets the validation level.
func (v *ArrowSchemaValidator) SetValidationLevel(level ValidationLevel) {
	v.validationLevel = level
}

// Compatible reports whether values of types a and b can compare equal.
func (v *ArrowSchemaValidator) Compatible(a, b arrow.DataType) bool {
	if arrow.TypeEqual(a, b) {
		return true
	}
	if v.validationLevel == ValidationLevelStrict {
		return false
	}
	if a.ID() == arrow.NULL || b.ID() == arrow.NULL {
		return true
	}
	if isNumeric(a) && isNumeric(b) {
		return true
	}
	return isText(a) && isText(b)
}

// ValidateAgainstTarget compares schemaA with schemaB. Fields present in
// both are type checked when they are listed in keyColumns or
// compareColumns; with no compareColumns every common field is checked.
func (v *ArrowSchemaValidator) ValidateAgainstTarget(schemaA, schemaB *arrow.Schema, keyColumns, compareColumns []string) ValidationResult {
	result := ValidationResult{OnlyInA: []string{}, OnlyInB: []string{}, Mismatches: []Mismatch{}}

	keys := make(map[string]bool, len(keyColumns))
	for _, k := range keyColumns {
		keys[k] = true
	}
	checked := make(map[string]bool, len(compareColumns))
	for _, c := range compareColumns {
		checked[c] = true
	}

	for _, fieldA := range schemaA.Fields() {
		idx := schemaB.FieldIndices(fieldA.Name)
		if len(idx) == 0 {
			result.OnlyInA = append(result.OnlyInA, fieldA.Name)
			continue
		}
		if len(compareColumns) > 0 && !keys[fieldA.Name] && !checked[fieldA.Name] {
			continue
		}
		fieldB := schemaB.Field(idx[0])
		if !v.Compatible(fieldA.Type, fieldB.Type) {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Column: fieldA.Name,
				TypeA:  fieldA.Type.String(),
				TypeB:  fieldB.Type.String(),
				Key:    keys[fieldA.Name],
			})
		}
	}
	for _, fieldB := range schemaB.Fields() {
		if !schemaA.HasField(fieldB.Name) {
			result.OnlyInB = append(result.OnlyInB, fieldB.Name)
		}
	}
	return result
}
