package readers

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// nullStrings are the cell texts read as missing values in text sources.
var nullStrings = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

func isNullString(s string) bool {
	for _, n := range nullStrings {
		if s == n {
			return true
		}
	}
	return false
}

// headerNames turns a header row into unique column names, padded to width.
// Blank cells become "Unnamed: <index>" and repeats of a name become
// "<name>.1", "<name>.2" and so on.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	counts := make(map[string]int, width)
	for i := range names {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		n := counts[name]
		for n > 0 {
			counts[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
			n = counts[name]
		}
		counts[name] = n + 1
		names[i] = name
	}
	return names
}

// typeTextRecord replaces every string column of rec with the narrowest of
// int64, float64 and bool that holds all of its present values, judged over
// the whole column. Columns that fit none stay strings. names, when given,
// replace the field names. The caller must Release the result.
func typeTextRecord(alloc memory.Allocator, rec arrow.Record, names []string) arrow.Record {
	fields := make([]arrow.Field, rec.NumCols())
	cols := make([]arrow.Array, rec.NumCols())
	for c := 0; c < int(rec.NumCols()); c++ {
		field := rec.Schema().Field(c)
		if names != nil {
			field.Name = names[c]
		}
		arr := rec.Column(c)
		if str, ok := arr.(*array.String); ok {
			arr = typeTextColumn(alloc, str)
		} else {
			arr.Retain()
		}
		field.Type = arr.DataType()
		field.Nullable = true
		fields[c] = field
		cols[c] = arr
	}

	out := array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows())
	for _, col := range cols {
		col.Release()
	}
	return out
}

// typeTextColumn returns a typed copy of arr. The caller must Release it.
func typeTextColumn(alloc memory.Allocator, arr *array.String) arrow.Array {
	switch inferTextType(arr).ID() {
	case arrow.INT64:
		b := array.NewInt64Builder(alloc)
		defer b.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				b.AppendNull()
				continue
			}
			v, _ := strconv.ParseInt(arr.Value(i), 10, 64)
			b.Append(v)
		}
		return b.NewArray()
	case arrow.FLOAT64:
		b := array.NewFloat64Builder(alloc)
		defer b.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				b.AppendNull()
				continue
			}
			v, _ := strconv.ParseFloat(arr.Value(i), 64)
			b.Append(v)
		}
		return b.NewArray()
	case arrow.BOOL:
		b := array.NewBooleanBuilder(alloc)
		defer b.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				b.AppendNull()
				continue
			}
			v, _ := parseBoolText(arr.Value(i))
			b.Append(v)
		}
		return b.NewArray()
	default:
		arr.Retain()
		return arr
	}
}

// inferTextType picks the column type for a string column.
func inferTextType(arr *array.String) arrow.DataType {
	ints, floats, bools := true, true, true
	present := 0
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		present++
		s := arr.Value(i)
		if ints {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				ints = false
			}
		}
		if floats {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				floats = false
			}
		}
		if bools {
			if _, ok := parseBoolText(s); !ok {
				bools = false
			}
		}
		if !ints && !floats && !bools {
			return arrow.BinaryTypes.String
		}
	}

	switch {
	case present == 0:
		return arrow.BinaryTypes.String
	case ints:
		return arrow.PrimitiveTypes.Int64
	case floats:
		return arrow.PrimitiveTypes.Float64
	case bools:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func parseBoolText(s string) (bool, bool) {
	switch s {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	default:
		return false, false
	}
}
