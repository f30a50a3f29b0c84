package logline

import (
	"strings"
	"time"
)

// Record is a structured log line: positional field values bound to a schema, plus the time at
// which the line was ingested. The timestamp is never serialized.
type Record struct {
	Schema    *Schema
	Values    []string
	Timestamp time.Time
}

// Get reads a field value. Fields unknown to the schema read as empty.
func (r *Record) Get(field string) string {
	idx, ok := r.Schema.Index(field)
	if !ok {
		return ""
	}

	return r.Values[idx]
}

// Set overwrites a field value in place. It reports false if the schema does not define the
// field.
func (r *Record) Set(field string, value string) bool {
	idx, ok := r.Schema.Index(field)
	if !ok {
		return false
	}

	r.Values[idx] = value
	return true
}

// Key returns the transaction key of the record under its schema.
func (r *Record) Key() string {
	return r.Schema.Key(r)
}

// Terminal indicates whether the record completes its transaction.
func (r *Record) Terminal() bool {
	return r.Schema.IsTerminal(r)
}

// String serializes the record fields, in schema order, joined by single spaces.
func (r *Record) String() string {
	return strings.Join(r.Values, " ")
}
