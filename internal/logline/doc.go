// Package logline understands the positional layout of DNS server log lines. A Schema names the
// whitespace-separated fields of a structured line; the Parser turns raw lines into either a
// structured Record bound to a schema or an opaque passthrough line.
package logline
