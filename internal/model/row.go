// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one record of a SQL answer. Unlike a map it remembers the column
// order the backend sent, which is the order the table is rendered in.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow builds a row from ordered keys and their values.
func NewRow(keys []string, values map[string]any) Row {
	r := Row{values: make(map[string]any, len(keys))}
	for _, k := range keys {
		if _, dup := r.values[k]; !dup {
			r.keys = append(r.keys, k)
		}
		r.values[k] = values[k]
	}
	return r
}

// Keys returns the column names in order.
func (r Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the value of column k.
func (r Row) Get(k string) (any, bool) {
	v, ok := r.values[k]
	return v, ok
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.keys) }

// ColumnsOf returns the keys of the first non-empty row.
func ColumnsOf(rows []Row) []string {
	for _, r := range rows {
		if r.Len() > 0 {
			return r.Keys()
		}
	}
	return nil
}

// UnmarshalJSON decodes a JSON object, keeping key order. Numbers are kept
// as json.Number so large IDs are not rounded through float64. A null row
// decodes as an empty one.
func (r *Row) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		r.keys = nil
		r.values = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}

	r.keys = nil
	r.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row: expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("row: column %q: %w", key, err)
		}
		if _, dup := r.values[key]; !dup {
			r.keys = append(r.keys, key)
		}
		r.values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the row as an object in column order.
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
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("row: column %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
