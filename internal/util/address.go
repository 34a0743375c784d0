package util

import (
	"net/mail"
	"strings"
)

// NormalizeAddress extracts a bare, lowercased email address from input such
// as "Name <User@Example.COM>". Unlike grouping keys, the +alias part is
// kept: unsubscribe must target the exact recipient.
// Returns "" if no address can be parsed.
func NormalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr == nil {
		// Pasted lists: take the first address that parses.
		for _, p := range strings.Split(s, ",") {
			a, e := mail.ParseAddress(strings.TrimSpace(p))
			if e == nil && a != nil {
				addr = a
				break
			}
		}
		if addr == nil {
			return ""
		}
	}
	return strings.ToLower(strings.TrimSpace(addr.Address))
}

// SenderKey groups addresses by mailbox: lowercased with +alias stripped.
func SenderKey(s string) string {
	email := NormalizeAddress(s)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]
	if plus := strings.IndexByte(local, '+'); plus > -1 {
		local = local[:plus]
	}
	return local + "@" + domain
}
