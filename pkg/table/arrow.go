package table

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// FromRecord converts an Arrow record into a Dataset, tagging every cell
// once. Nulls and float NaN become Missing; integers and floats become
// Numeric; string columns become Text; everything else becomes Other with
// the Arrow type name and its canonical string form.
func FromRecord(rec arrow.Record) (*Dataset, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil record")
	}
	n := int(rec.NumRows())
	cols := make([]Column, rec.NumCols())
	for c := 0; c < int(rec.NumCols()); c++ {
		arr := rec.Column(c)
		values := make([]Value, n)
		for i := 0; i < n; i++ {
			values[i] = valueAt(arr, i)
		}
		cols[c] = Column{Name: rec.ColumnName(c), Values: values}
	}
	return New(cols...)
}

// valueAt tags a single Arrow cell.
func valueAt(arr arrow.Array, i int) Value {
	if arr.IsNull(i) {
		return Missing()
	}
	switch a := arr.(type) {
	case *array.Int8:
		return Int(int64(a.Value(i)))
	case *array.Int16:
		return Int(int64(a.Value(i)))
	case *array.Int32:
		return Int(int64(a.Value(i)))
	case *array.Int64:
		return Int(a.Value(i))
	case *array.Uint8:
		return Int(int64(a.Value(i)))
	case *array.Uint16:
		return Int(int64(a.Value(i)))
	case *array.Uint32:
		return Int(int64(a.Value(i)))
	case *array.Uint64:
		v := a.Value(i)
		if v > 1<<63-1 {
			return Float(float64(v))
		}
		return Int(int64(v))
	case *array.Float16:
		return Float(float64(a.Value(i).Float32()))
	case *array.Float32:
		return Float(float64(a.Value(i)))
	case *array.Float64:
		return Float(a.Value(i))
	case *array.String:
		return Text(a.Value(i))
	case *array.LargeString:
		return Text(a.Value(i))
	case *array.Boolean:
		return Bool(a.Value(i))
	case *array.Dictionary:
		return valueAt(a.Dictionary(), a.GetValueIndex(i))
	default:
		return Other(arr.DataType().String(), arr.ValueStr(i))
	}
}

// ToRecord converts d into an Arrow record. Column types are chosen from
// the tagged values: int64 when every present value is an integer, float64
// when every present value is numeric, bool when every present value is a
// boolean, and string otherwise. The caller must Release the record.
func ToRecord(alloc memory.Allocator, d *Dataset) arrow.Record {
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}
	fields := make([]arrow.Field, d.NumCols())
	cols := make([]arrow.Array, d.NumCols())
	for c := 0; c < d.NumCols(); c++ {
		col := d.columns[c]
		typ := inferArrowType(col.Values)
		fields[c] = arrow.Field{Name: col.Name, Type: typ, Nullable: true}
		cols[c] = buildArray(alloc, typ, col.Values)
	}
	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, cols, int64(d.NumRows()))
	for _, col := range cols {
		col.Release()
	}
	return rec
}

// Schema describes d with the column types ToRecord would choose. Columns
// with no present value are typed arrow.Null.
func Schema(d *Dataset) *arrow.Schema {
	fields := make([]arrow.Field, d.NumCols())
	for c := 0; c < d.NumCols(); c++ {
		col := d.columns[c]
		typ := arrow.Null
		for _, v := range col.Values {
			if !v.IsMissing() {
				typ = inferArrowType(col.Values)
				break
			}
		}
		fields[c] = arrow.Field{Name: col.Name, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func inferArrowType(values []Value) arrow.DataType {
	ints, floats, bools, others := 0, 0, 0, 0
	for _, v := range values {
		switch v.Kind() {
		case KindMissing:
		case KindNumeric:
			if v.IsFloat() {
				floats++
			} else {
				ints++
			}
		case KindOther:
			if v.TypeName() == "bool" {
				bools++
			} else {
				others++
			}
		default:
			others++
		}
	}
	switch {
	case others > 0:
		return arrow.BinaryTypes.String
	case bools > 0 && ints+floats == 0:
		return arrow.FixedWidthTypes.Boolean
	case bools > 0:
		return arrow.BinaryTypes.String
	case floats > 0:
		return arrow.PrimitiveTypes.Float64
	case ints > 0:
		return arrow.PrimitiveTypes.Int64
	default:
		return arrow.BinaryTypes.String
	}
}

func buildArray(alloc memory.Allocator, typ arrow.DataType, values []Value) arrow.Array {
	switch typ.ID() {
	case arrow.INT64:
		b := array.NewInt64Builder(alloc)
		defer b.Release()
		for _, v := range values {
			if i, ok := v.Int64(); ok {
				b.Append(i)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	case arrow.FLOAT64:
		b := array.NewFloat64Builder(alloc)
		defer b.Release()
		for _, v := range values {
			if f, ok := v.Float64(); ok {
				b.Append(f)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	case arrow.BOOL:
		b := array.NewBooleanBuilder(alloc)
		defer b.Release()
		for _, v := range values {
			if v.IsMissing() {
				b.AppendNull()
			} else {
				b.Append(v.String() == "true")
			}
		}
		return b.NewArray()
	default:
		b := array.NewStringBuilder(alloc)
		defer b.Release()
		for _, v := range values {
			if v.IsMissing() {
				b.AppendNull()
			} else {
				b.Append(v.String())
			}
		}
		return b.NewArray()
	}
}

// FromRecords converts a sequence of record batches sharing schema into one
// Dataset. With no records the dataset has the schema's columns and no rows.
func FromRecords(schema *arrow.Schema, recs []arrow.Record) (*Dataset, error) {
	if schema == nil {
		if len(recs) == 0 {
			return New()
		}
		schema = recs[0].Schema()
	}
	cols := make([]Column, schema.NumFields())
	for c, field := range schema.Fields() {
		cols[c] = Column{Name: field.Name}
	}
	for _, rec := range recs {
		if int(rec.NumCols()) != len(cols) {
			return nil, fmt.Errorf("record has %d columns, schema has %d", rec.NumCols(), len(cols))
		}
		for c := range cols {
			arr := rec.Column(c)
			for i := 0; i < int(rec.NumRows()); i++ {
				cols[c].Values = append(cols[c].Values, valueAt(arr, i))
			}
		}
	}
	return New(cols...)
}
