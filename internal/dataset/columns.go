package dataset

import (
	"strings"

	"github.com/breakoutai/automail/internal/email"
)

// Confidence indicates how a special column was resolved.
type Confidence int

const (
	MatchNone Confidence = iota
	MatchExact
	MatchPartial
	MatchContent
	MatchFallback
)

func (c Confidence) String() string {
	switch c {
	case MatchExact:
		return "exact"
	case MatchPartial:
		return "partial"
	case MatchContent:
		return "content"
	case MatchFallback:
		return "fallback"
	default:
		return "none"
	}
}

var emailColumnNames = []string{
	"email", "gmail", "mail", "e-mail", "email_address", "contact_email", "business_email",
}

var emailColumnTerms = []string{"email", "mail", "gmail"}

var companyColumnNames = []string{
	"company", "company_name", "business", "organization", "org", "firm", "business_name", "name",
}

var companyColumnTerms = []string{"company", "business", "organization", "name"}

// DetectEmailColumn resolves the email column by exact name, then partial
// name, then by sniffing column content: a column where more than half of
// the first ten non-empty values look like addresses wins. Returns ""
// with MatchNone when nothing qualifies.
func DetectEmailColumn(columns []string, rows []Row) (string, Confidence) {
	for _, col := range columns {
		for _, name := range emailColumnNames {
			if strings.ToLower(col) == name {
				return col, MatchExact
			}
		}
	}

	for _, col := range columns {
		for _, term := range emailColumnTerms {
			if strings.Contains(strings.ToLower(col), term) {
				return col, MatchPartial
			}
		}
	}

	for _, col := range columns {
		sampled, valid := 0, 0
		for _, row := range rows {
			v := strings.TrimSpace(row[col])
			if v == "" {
				continue
			}
			sampled++
			if email.IsValid(v) {
				valid++
			}
			if sampled == 10 {
				break
			}
		}
		if sampled > 0 && valid*2 > sampled {
			return col, MatchContent
		}
	}

	return "", MatchNone
}

// DetectCompanyColumn resolves the company-name column by exact then
// partial name match, defaulting to the first column.
func DetectCompanyColumn(columns []string) (string, Confidence) {
	if len(columns) == 0 {
		return "", MatchNone
	}

	for _, col := range columns {
		for _, name := range companyColumnNames {
			if strings.ToLower(col) == name {
				return col, MatchExact
			}
		}
	}

	for _, col := range columns {
		for _, term := range companyColumnTerms {
			if strings.Contains(strings.ToLower(col), term) {
				return col, MatchPartial
			}
		}
	}

	return columns[0], MatchFallback
}
