// Package email provides address validation and deliverability scoring.
package email

import (
	"net/mail"
	"regexp"
	"strings"
)

// Conservative pattern: local part, "@", dotted domain, 2+ letter TLD.
var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var disposableDomains = []string{
	"temp-mail.org",
	"10minutemail.com",
	"guerrillamail.com",
	"mailinator.com",
}

var personalDomains = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
}

// IsValid reports whether the address is syntactically acceptable for
// sending. Empty values are invalid.
func IsValid(address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}
	return addressPattern.MatchString(address)
}

// Assessment is the advisory deliverability score for an address. The
// score starts at 100 and is decremented by fixed penalties; it is
// recorded alongside the send but never blocks one.
type Assessment struct {
	Score    int
	Warnings []string
}

// AssessDeliverability scores an address against known disposable and
// free personal provider domains. Pure: same address, same result.
func AssessDeliverability(address string) Assessment {
	a := Assessment{Score: 100}
	lower := strings.ToLower(address)

	for _, domain := range disposableDomains {
		if strings.Contains(lower, domain) {
			a.Score -= 30
			a.Warnings = append(a.Warnings, "Disposable email domain")
			break
		}
	}

	for _, domain := range personalDomains {
		if strings.Contains(lower, domain) {
			a.Score -= 10
			a.Warnings = append(a.Warnings, "Personal email domain - may have stricter spam filters")
			break
		}
	}

	return a
}

// ExtractDomain returns the lowercased domain part of an address, or
// "" when none can be found. Display-name forms ("Name <a@b.com>") are
// handled; anything unparseable falls back to splitting on the last @.
func ExtractDomain(address string) string {
	target := address
	if addr, err := mail.ParseAddress(address); err == nil {
		target = addr.Address
	}
	at := strings.LastIndex(target, "@")
	if at <= 0 || at == len(target)-1 {
		return ""
	}
	return strings.ToLower(target[at+1:])
}
