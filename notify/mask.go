package notify

import (
	"strings"
	"unicode/utf8"
)

// MaskPhone renders a phone number as ***-***-<last4>.
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) < 4 {
		return "***"
	}
	return "***-***-" + phone[len(phone)-4:]
}

// MaskEmail renders an address as <first-char>***@<domain>. Malformed input
// yields ***@***.***.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***@***.***"
	}
	if local == "" {
		return "***@" + domain
	}
	_, size := utf8.DecodeRuneInString(local)
	return local[:size] + "***@" + domain
}
