package core

import (
	"iter"
	"strings"
)

// Row is one data record: an ordered mapping from column name to cell value.
// Keys are unique and keep the column order of the source file. A Row is not
// modified after it has been built.
type Row struct {
	keys   []string
	values map[string]string
}

// NewRow zips keys and values positionally. Pairs stop at the shorter of the
// two slices, so a short data line simply lacks its trailing keys. When a key
// repeats, it keeps its first position and takes the later value.
func NewRow(keys, values []string) Row {
	n := min(len(keys), len(values))
	r := Row{
		keys:   make([]string, 0, n),
		values: make(map[string]string, n),
	}
	for i := 0; i < n; i++ {
		r.set(keys[i], values[i])
	}
	return r
}

// RowOf builds a Row from alternating key, value arguments.
// A trailing key without a value is ignored.
func RowOf(kv ...string) Row {
	keys := make([]string, 0, len(kv)/2)
	values := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		keys = append(keys, kv[i])
		values = append(values, kv[i+1])
	}
	return NewRow(keys, values)
}

func (r *Row) set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r Row) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.keys)
}

// Keys returns a copy of the column names in source order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// All iterates over the columns in source order.
func (r Row) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range r.keys {
			if !yield(k, r.values[k]) {
				return
			}
		}
	}
}

// Map returns an unordered copy of the row.
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// String renders the row as {k1: v1, k2: v2} for logs and test failures.
func (r Row) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(r.values[k])
	}
	b.WriteByte('}')
	return b.String()
}
