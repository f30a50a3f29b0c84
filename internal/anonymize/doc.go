// Package anonymize rewrites the sensitive fields of completed transactions. The queried domain is
// always replaced; the resolved address is replaced unless a RedactionPolicy decides the record
// cannot carry one.
package anonymize
