// Package protocol concerns itself primarily with DNS server log business logic. It knows which
// log formats exist and how their transactions are keyed and redacted, and it drives lines from
// the input stream through correlation and anonymization to the output stream.
package protocol
