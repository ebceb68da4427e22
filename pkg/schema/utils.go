package schema

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// SchemaToString converts an Arrow schema to a human-readable string.
func SchemaToString(schema *arrow.Schema) string {
	var builder strings.Builder
	builder.WriteString("Schema:\n")

	for i := 0; i < schema.NumFields(); i++ {
		field := schema.Field(i)
		nullabilityStr := "NOT NULL"
		if field.Nullable {
			nullabilityStr = "NULL"
		}
		builder.WriteString(fmt.Sprintf("  %s: %s %s\n", field.Name, field.Type, nullabilityStr))
	}
	return builder.String()
}

// PrintValidationResult renders a result for the terminal.
func PrintValidationResult(result ValidationResult, labelA, labelB string) string {
	var builder strings.Builder

	if len(result.OnlyInA) > 0 {
		builder.WriteString(fmt.Sprintf("Fields only in %s: %s\n", labelA, strings.Join(result.OnlyInA, ", ")))
	}
	if len(result.OnlyInB) > 0 {
		builder.WriteString(fmt.Sprintf("Fields only in %s: %s\n", labelB, strings.Join(result.OnlyInB, ", ")))
	}

	builder.WriteString("Type mismatches:\n")
	if result.Valid() {
		builder.WriteString("  None\n")
		return builder.String()
	}
	for _, m := range result.Mismatches {
		builder.WriteString("  " + m.String() + "\n")
	}
	return builder.String()
}
