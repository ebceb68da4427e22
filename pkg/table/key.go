package table

import (
	"encoding/json"
	"strings"
)

// Key is the ordered tuple of key column values of one row.
type Key []Value

// KeyAt extracts the key of row from the given column positions.
func (d *Dataset) KeyAt(row int, cols []int) Key {
	k := make(Key, len(cols))
	for i, c := range cols {
		k[i] = d.columns[c].Values[row]
	}
	return k
}

// Equal reports whether every element of k equals the matching element of o.
func (k Key) Equal(o Key) bool {
	return k.Compare(o) == 0
}

// Compare orders keys element by element, left to right. A shorter key
// that is a prefix of a longer one sorts first.
func (k Key) Compare(o Key) int {
	n := min(len(k), len(o))
	for i := 0; i < n; i++ {
		if c := k[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	return cmpOrdered(int64(len(k)), int64(len(o)))
}

// Encode returns a string usable as a map key. Two keys encode identically
// iff they are Equal.
func (k Key) Encode() string {
	var sb strings.Builder
	for _, v := range k {
		v.encode(&sb)
	}
	return sb.String()
}

// String renders a single key as its value and a composite key as a
// parenthesised tuple.
func (k Key) String() string {
	if len(k) == 1 {
		return k[0].String()
	}
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// MarshalJSON encodes the key as a JSON array.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal([]Value(k))
}
