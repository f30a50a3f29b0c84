package protocol

import (
	"sort"

	"dnsanon/internal/anonymize"
	"dnsanon/internal/logline"
)

// Variant pairs a log schema, which also determines how transactions are keyed, with the policy
// deciding which addresses are redacted.
type Variant struct {
	Schema *logline.Schema
	Policy anonymize.RedactionPolicy
}

var variants = map[string]Variant{
	// A single dnsmasq process: keyed by query id, addresses kept on queries and forwards.
	"dnsmasq": {
		Schema: logline.Dnsmasq(),
		Policy: anonymize.ShouldRedactAddress,
	},
	// Interleaved dnsmasq processes: keyed by pid and query id, only answers redacted.
	"dnsmasq-pid": {
		Schema: logline.DnsmasqPID(),
		Policy: anonymize.ShouldRedactTerminalAddress,
	},
}

// LookupVariant looks up a Variant by its schema name.
func LookupVariant(name string) (Variant, bool) {
	variant, ok := variants[name]
	return variant, ok
}

// Variants lists the known schema names, sorted.
func Variants() []string {
	var names []string
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
