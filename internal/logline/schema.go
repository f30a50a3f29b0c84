package logline

import (
	"fmt"
)

// Field names shared by the built-in dnsmasq schemas.
const (
	FieldMonth   = "month"
	FieldDay     = "day"
	FieldTime    = "time"
	FieldPID     = "pid"
	FieldID      = "id"
	FieldClient  = "client"
	FieldAction  = "action"
	FieldDomain  = "domain"
	FieldContext = "context"
	FieldAddress = "address"
)

// TerminalContext is the context token dnsmasq prints on the line carrying a resolved answer,
// e.g. "reply example.com is 1.2.3.4". It marks the end of a transaction.
const TerminalContext = "is"

// KeyFunc derives the transaction key of a structured record.
type KeyFunc func(r *Record) string

// Schema describes the positional field layout of a structured log line.
type Schema struct {
	// Name identifies the schema in configuration and logs.
	Name string
	// Fields lists field names in the order they appear on the line.
	Fields []string
	// IDField names the field holding the transaction id.
	IDField string
	// NumericID demotes lines whose transaction id is not all digits to passthrough.
	NumericID bool
	// TerminalMarker is the value of the context field that completes a transaction.
	TerminalMarker string
	// Key derives the transaction key of a record.
	Key KeyFunc

	index map[string]int
}

// NewSchema validates a schema definition and indexes its fields for lookup. Every field that the
// core reads (id, action, domain, context, address) must be present.
func NewSchema(name string, fields []string, idField string, numericID bool, key KeyFunc) (*Schema, error) {
	index := make(map[string]int, len(fields))
	for idx, field := range fields {
		if _, ok := index[field]; ok {
			return nil, fmt.Errorf("schema: duplicate field: schema=%s field=%s", name, field)
		}

		index[field] = idx
	}

	for _, required := range []string{idField, FieldAction, FieldDomain, FieldContext, FieldAddress} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("schema: missing required field: schema=%s field=%s", name, required)
		}
	}

	if key == nil {
		return nil, fmt.Errorf("schema: missing key function: schema=%s", name)
	}

	return &Schema{
		Name:           name,
		Fields:         fields,
		IDField:        idField,
		NumericID:      numericID,
		TerminalMarker: TerminalContext,
		Key:            key,
		index:          index,
	}, nil
}

// Len returns the number of tokens a structured line must have.
func (s *Schema) Len() int {
	return len(s.Fields)
}

// Index returns the position of a field, and whether the schema defines it.
func (s *Schema) Index(field string) (int, bool) {
	idx, ok := s.index[field]
	return idx, ok
}

// IsTerminal indicates whether a record completes its transaction.
func (s *Schema) IsTerminal(r *Record) bool {
	return r.Get(FieldContext) == s.TerminalMarker
}

// DnsmasqFields is the token layout of a dnsmasq log-queries=extra line:
//
//	Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 reply example.com is 1.2.3.4
var DnsmasqFields = []string{
	FieldMonth,
	FieldDay,
	FieldTime,
	FieldPID,
	FieldID,
	FieldClient,
	FieldAction,
	FieldDomain,
	FieldContext,
	FieldAddress,
}

// KeyByID keys transactions by query id alone.
func KeyByID(r *Record) string {
	return r.Get(FieldID)
}

// KeyByPIDAndID keys transactions by process and query id, for logs interleaving several dnsmasq
// processes.
func KeyByPIDAndID(r *Record) string {
	return r.Get(FieldPID) + "/" + r.Get(FieldID)
}

// Dnsmasq is the schema of a single dnsmasq process: transactions are keyed by query id, which
// must be numeric.
func Dnsmasq() *Schema {
	return mustSchema(NewSchema("dnsmasq", DnsmasqFields, FieldID, true, KeyByID))
}

// DnsmasqPID is the schema of logs merged from several dnsmasq processes: transactions are keyed
// by process and query id.
func DnsmasqPID() *Schema {
	return mustSchema(NewSchema("dnsmasq-pid", DnsmasqFields, FieldID, false, KeyByPIDAndID))
}

func mustSchema(schema *Schema, err error) *Schema {
	if err != nil {
		panic(err)
	}

	return schema
}
