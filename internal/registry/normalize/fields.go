package normalize

import (
	"bytes"
	"encoding/json"
)

// Fields is the open key/value mapping produced by parsing. Keys keep their
// first-seen order; a key seen more than once holds every value in order.
type Fields struct {
	keys   []string
	values map[string][]string
}

func NewFields() *Fields {
	return &Fields{values: make(map[string][]string)}
}

// Add appends value under key.
func (f *Fields) Add(key, value string) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = append(f.values[key], value)
}

// Set replaces every value under key.
func (f *Fields) Set(key string, values ...string) {
	if len(values) == 0 {
		return
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = append([]string(nil), values...)
}

// Values returns all values under key in insertion order.
func (f *Fields) Values(key string) []string {
	if f == nil {
		return nil
	}
	return f.values[key]
}

// First returns the first value under key.
func (f *Fields) First(key string) (string, bool) {
	vs := f.Values(key)
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Map returns a plain map view: single values as string, repeated as []string.
func (f *Fields) Map() map[string]any {
	out := make(map[string]any, f.Len())
	for _, k := range f.Keys() {
		out[k] = f.value(k)
	}
	return out
}

func (f *Fields) value(key string) any {
	vs := f.values[key]
	if len(vs) == 1 {
		return vs[0]
	}
	return append([]string(nil), vs...)
}

// MarshalJSON writes keys in insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.value(k))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
