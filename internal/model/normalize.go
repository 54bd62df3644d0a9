package model

import "strings"

// NormalizeMerchant canonicalizes a merchant name for matching and
// fingerprinting: lowercase, non-alphanumerics replaced with spaces,
// whitespace collapsed and trimmed.
func NormalizeMerchant(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
