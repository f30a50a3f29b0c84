package anonymize

import (
	"strings"

	"dnsanon/internal/logline"
)

// RedactionPolicy decides, from a record's action and context fields, whether its address field
// must be replaced.
type RedactionPolicy func(action string, context string) bool

// addressFreeActions lists dnsmasq actions whose address field is never a resolved answer: a
// query names the requesting client, a forward names the upstream server.
var addressFreeActions = map[string]bool{
	"query":     true,
	"forwarded": true,
}

// ShouldRedactAddress is the action-based policy: it redacts every address except those on lines
// whose action verb is in the allow-list. Query types are ignored, so "query[AAAA]" is "query".
func ShouldRedactAddress(action string, context string) bool {
	return !addressFreeActions[actionVerb(action)]
}

// ShouldRedactTerminalAddress is the context-based policy: only the address on a terminal line is
// a resolved answer.
func ShouldRedactTerminalAddress(action string, context string) bool {
	return context == logline.TerminalContext
}

// actionVerb strips the bracketed query type suffix from an action, e.g. "query[A]" -> "query".
func actionVerb(action string) string {
	if idx := strings.IndexByte(action, '['); idx >= 0 {
		return action[:idx]
	}

	return action
}
