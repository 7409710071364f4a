package account

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var domainSuffix = regexp.MustCompile(`(?i)@[a-z0-9.-]+$`)

// CanonicalAddress folds an address to trimmed NFC lower case. Two addresses with
// the same canonical form reach the same account.
func CanonicalAddress(address string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(address)))
}

// ExtractAccountFromAddress strips the @domain suffix from an address and folds the
// result to NFC lower case. Values without a domain, such as the admin account id,
// pass through the same folding.
func ExtractAccountFromAddress(address string) string {
	return domainSuffix.ReplaceAllString(CanonicalAddress(address), "")
}
