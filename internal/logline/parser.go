package logline

import (
	"strings"
	"time"
)

// Line is the outcome of parsing one raw input line. Exactly one of Record and Raw is meaningful:
// structured lines carry a Record, everything else carries the original text in Raw.
type Line struct {
	Record *Record
	Raw    string
}

// Structured indicates whether the line matched the schema.
func (l Line) Structured() bool {
	return l.Record != nil
}

// Parser tokenizes raw lines against a single schema.
type Parser struct {
	schema *Schema
	now    func() time.Time
}

// NewParser creates a parser for the specified schema. The clock stamps ingestion time onto
// every structured record; nil selects time.Now.
func NewParser(schema *Schema, now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}

	return &Parser{schema: schema, now: now}
}

// Parse classifies a raw line (trailing newline already stripped). It never fails: anything that
// does not fit the schema is returned unmodified as an unstructured line.
func (p *Parser) Parse(raw string) Line {
	tokens := strings.Fields(raw)
	if len(tokens) != p.schema.Len() {
		return Line{Raw: raw}
	}

	record := &Record{
		Schema:    p.schema,
		Values:    tokens,
		Timestamp: p.now(),
	}

	if p.schema.NumericID && !isDigits(record.Get(p.schema.IDField)) {
		return Line{Raw: raw}
	}

	return Line{Record: record}
}

// isDigits indicates whether a string is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
