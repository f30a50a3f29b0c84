package protocol

import (
	"fmt"
)

// Phases of the filter in which a TransactionError can occur.
const (
	PhasePassthrough = "passthrough"
	PhaseAnonymize   = "anonymize"
	PhaseEmit        = "emit"
	PhaseRead        = "read"
)

// TransactionError is a fault that stops the filter, annotated with the phase that failed and the
// key of the transaction being processed, if any.
type TransactionError struct {
	Phase string
	Key   string
	Err   error
}

// Error formats the fault with its context.
func (e *TransactionError) Error() string {
	return fmt.Sprintf("filter: %s failed: key=%s err=%v", e.Phase, e.Key, e.Err)
}

// Unwrap exposes the underlying error.
func (e *TransactionError) Unwrap() error {
	return e.Err
}
