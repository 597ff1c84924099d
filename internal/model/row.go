package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one parsed spreadsheet row: header text mapped to cell text.
// Unlike a plain map it remembers insertion order, so the JSON object
// it produces lists columns in the order the headers appeared.  Setting
// a key that already exists replaces the value but keeps the key's
// original position.  The zero value is an empty row ready to use.
type Row struct {
	keys []string
	vals map[string]string
}

// Set stores value under key.
func (r *Row) Set(key, value string) {
	if r.vals == nil {
		r.vals = make(map[string]string)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = value
}

// Get returns the value stored under key.
func (r Row) Get(key string) (string, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r Row) Len() int { return len(r.keys) }

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(b []byte) error {
	*r = Row{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row: expected string key, got %v", tok)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("row: value for %q: %w", key, err)
		}
		r.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	return nil
}
