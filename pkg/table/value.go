// Package table provides the in-memory tabular model compared by keydiff.
//
// Cell values are tagged once at ingestion (see Kind) so that comparison
// code dispatches on the tag instead of inspecting dynamic types for every
// cell.
package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	// KindMissing is a null or absent cell.
	KindMissing Kind = iota
	// KindNumeric is an integer or floating point number.
	KindNumeric
	// KindText is a string.
	KindText
	// KindOther is any other scalar (booleans, dates, timestamps, decimals).
	KindOther
)

// rank orders kinds for sorting; missing sorts after everything else.
func (k Kind) rank() int {
	if k == KindMissing {
		return int(KindOther) + 1
	}
	return int(k)
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindOther:
		return "other"
	case KindMissing:
		return "missing"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a single cell. The zero Value is Missing.
type Value struct {
	kind    Kind
	isFloat bool
	i       int64
	f       float64
	s       string // text, or canonical form for KindOther
	sub     string // type name for KindOther, e.g. "bool", "timestamp[ms]"
}

// Missing returns a missing value.
func Missing() Value { return Value{kind: KindMissing} }

// Int returns a numeric integer value.
func Int(v int64) Value { return Value{kind: KindNumeric, i: v} }

// Float returns a numeric floating point value. NaN is treated as missing.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Missing()
	}
	return Value{kind: KindNumeric, isFloat: true, f: v}
}

// Text returns a text value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Bool returns a boolean, stored as KindOther.
func Bool(v bool) Value { return Other("bool", strconv.FormatBool(v)) }

// Other returns a value of a non numeric, non text type, identified by
// typeName and compared through its canonical string form.
func Other(typeName, canonical string) Value {
	return Value{kind: KindOther, sub: typeName, s: canonical}
}

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is missing.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsNumeric reports whether v is numeric.
func (v Value) IsNumeric() bool { return v.kind == KindNumeric }

// IsFloat reports whether v is a floating point number.
func (v Value) IsFloat() bool { return v.kind == KindNumeric && v.isFloat }

// Float64 returns the numeric value of v as float64.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumeric {
		return 0, false
	}
	if v.isFloat {
		return v.f, true
	}
	return float64(v.i), true
}

// Int64 returns the integer value of v. ok is false for non integer values.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumeric || v.isFloat {
		return 0, false
	}
	return v.i, true
}

// Str returns the text of a KindText value or the canonical form of a
// KindOther value.
func (v Value) Str() (string, bool) {
	if v.kind != KindText && v.kind != KindOther {
		return "", false
	}
	return v.s, true
}

// TypeName returns the underlying type name of a KindOther value.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNumeric:
		if v.isFloat {
			return "float64"
		}
		return "int64"
	case KindText:
		return "string"
	case KindOther:
		return v.sub
	default:
		return "null"
	}
}

// String renders v for display. Missing renders as an empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumeric:
		if v.isFloat {
			return strconv.FormatFloat(v.f, 'g', -1, 64)
		}
		return strconv.FormatInt(v.i, 10)
	case KindText, KindOther:
		return v.s
	default:
		return ""
	}
}

// Equal reports whether v and o are equal.
//
// Two missing values are equal. Numbers compare by numeric value regardless
// of int/float representation. Values of different kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindMissing:
		return true
	case KindNumeric:
		return compareNumeric(v, o) == 0
	case KindText:
		return v.s == o.s
	default:
		return v.sub == o.sub && v.s == o.s
	}
}

// Compare orders v relative to o, returning -1, 0 or +1.
//
// Kinds order as numeric < text < other < missing, so missing keys sort
// last. Compare(o) == 0 iff Equal(o).
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		if v.kind.rank() < o.kind.rank() {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindMissing:
		return 0
	case KindNumeric:
		return compareNumeric(v, o)
	case KindText:
		return strings.Compare(v.s, o.s)
	default:
		if c := strings.Compare(v.sub, o.sub); c != 0 {
			return c
		}
		return strings.Compare(v.s, o.s)
	}
}

// compareNumeric orders two numeric values. An int and a float are compared
// exactly so large int64 values keep their ordering.
func compareNumeric(v, o Value) int {
	switch {
	case !v.isFloat && !o.isFloat:
		return cmpOrdered(v.i, o.i)
	case !v.isFloat:
		return cmpIntFloat(v.i, o.f)
	case !o.isFloat:
		return -cmpIntFloat(o.i, v.f)
	}
	return cmpOrdered(v.f, o.f)
}

// cmpIntFloat orders i against f without rounding i to float64. Floats
// outside the int64 range order above or below every int64.
func cmpIntFloat(i int64, f float64) int {
	switch {
	case f >= twoTo63:
		return -1
	case f < -twoTo63:
		return 1
	}
	if n, ok := integral(f); ok {
		return cmpOrdered(i, n)
	}
	if i <= int64(math.Floor(f)) {
		return -1
	}
	return 1
}

// twoTo63 is 2^63, the first float64 above every int64.
const twoTo63 = float64(1 << 63)

// integral converts f to int64 when f has no fractional part and fits.
func integral(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -twoTo63 || f >= twoTo63 {
		return 0, false
	}
	return int64(f), true
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AbsDiff returns |v-o| when both values are numeric. ok is false for every
// other kind pairing, including numeric against non numeric.
func (v Value) AbsDiff(o Value) (diff float64, ok bool) {
	if v.kind != KindNumeric || o.kind != KindNumeric {
		return 0, false
	}
	if !v.isFloat && !o.isFloat {
		if v.i < o.i {
			return float64(uint64(o.i) - uint64(v.i)), true
		}
		return float64(uint64(v.i) - uint64(o.i)), true
	}
	a, _ := v.Float64()
	b, _ := o.Float64()
	return math.Abs(a - b), true
}

// encode appends an unambiguous encoding of v such that two values encode
// identically iff they are Equal.
func (v Value) encode(sb *strings.Builder) {
	switch v.kind {
	case KindMissing:
		sb.WriteString("m;")
	case KindNumeric:
		sb.WriteString("n:")
		if !v.isFloat {
			sb.WriteString(strconv.FormatInt(v.i, 10))
		} else if i, ok := integral(v.f); ok {
			sb.WriteString(strconv.FormatInt(i, 10))
		} else {
			sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
		}
		sb.WriteByte(';')
	case KindText:
		fmt.Fprintf(sb, "t%d:%s;", len(v.s), v.s)
	default:
		fmt.Fprintf(sb, "o%d:%s%d:%s;", len(v.sub), v.sub, len(v.s), v.s)
	}
}

// MarshalJSON encodes missing as null, numbers as JSON numbers and
// everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindMissing:
		return []byte("null"), nil
	case KindNumeric:
		if v.isFloat {
			if math.IsInf(v.f, 0) {
				return json.Marshal(v.String())
			}
			return json.Marshal(v.f)
		}
		return json.Marshal(v.i)
	case KindOther:
		if v.sub == "bool" {
			return []byte(v.s), nil
		}
		return json.Marshal(v.s)
	default:
		return json.Marshal(v.s)
	}
}

// UnmarshalJSON decodes a JSON scalar into a Value: null is missing,
// integral numbers are Int, other numbers Float, strings Text and booleans
// Bool.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSONScalar(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseJSONScalar converts one raw JSON scalar into a Value.
func ParseJSONScalar(data []byte) (Value, error) {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "" || trimmed == "null":
		return Missing(), nil
	case trimmed == "true" || trimmed == "false":
		return Bool(trimmed == "true"), nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
			return Value{}, fmt.Errorf("invalid JSON string %s: %w", trimmed, err)
		}
		return Text(s), nil
	case trimmed[0] == '{' || trimmed[0] == '[':
		return Value{}, fmt.Errorf("cell must be a JSON scalar, got %s", trimmed)
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid JSON number %s: %w", trimmed, err)
	}
	return Float(f), nil
}
