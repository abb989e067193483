package mail

import (
	"regexp"
	"strings"
)

// emailPattern matches a single address: no whitespace around the @, and at
// least one dot in the domain part. This is a plausibility filter, not full
// RFC 5322 validation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidAddress reports whether s looks like an email address.
func ValidAddress(s string) bool {
	return emailPattern.MatchString(s)
}

// ExtractAddresses parses a raw comma- or newline-delimited recipients string
// into the ordered list of valid-looking addresses it contains. Entries that
// do not look like email addresses are dropped; order is preserved.
func ExtractAddresses(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		addr := strings.TrimSpace(f)
		if addr == "" {
			continue
		}
		if emailPattern.MatchString(addr) {
			out = append(out, addr)
		}
	}
	return out
}
