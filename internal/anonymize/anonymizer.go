package anonymize

import (
	"fmt"

	"dnsanon/internal/logline"
)

// Settings carries the replacement values. It is constructed once at startup and never mutated.
type Settings struct {
	// Domain replaces the queried domain of every structured record.
	Domain string
	// Address replaces resolved addresses.
	Address string
}

// Validate fails fast on empty replacement values.
func (s Settings) Validate() error {
	if s.Domain == "" {
		return fmt.Errorf("anonymize: empty anonymous domain")
	}

	if s.Address == "" {
		return fmt.Errorf("anonymize: empty anonymous address")
	}

	return nil
}

// Anonymizer applies Settings to records under a RedactionPolicy.
type Anonymizer struct {
	settings Settings
	policy   RedactionPolicy
}

// NewAnonymizer creates an anonymizer. A nil policy redacts every address.
func NewAnonymizer(settings Settings, policy RedactionPolicy) (*Anonymizer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if policy == nil {
		policy = func(string, string) bool { return true }
	}

	return &Anonymizer{settings: settings, policy: policy}, nil
}

// AnonymizeRecord overwrites the domain and, if the policy requires it, the address of a single
// record. No other field is touched. Anonymizing an already anonymized record is a no-op.
func (a *Anonymizer) AnonymizeRecord(record *logline.Record) {
	record.Set(logline.FieldDomain, a.settings.Domain)

	if a.policy(record.Get(logline.FieldAction), record.Get(logline.FieldContext)) {
		record.Set(logline.FieldAddress, a.settings.Address)
	}
}

// AnonymizeGroup anonymizes every record of a transaction, in order.
func (a *Anonymizer) AnonymizeGroup(records []*logline.Record) {
	for _, record := range records {
		a.AnonymizeRecord(record)
	}
}
