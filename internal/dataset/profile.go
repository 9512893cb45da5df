package dataset

import (
	"strings"
)

// Fact is one labeled piece of company information.
type Fact struct {
	Label string
	Value string
}

// Profile is the structured company context handed to content
// generation. Built fresh per row, never mutated afterwards.
type Profile struct {
	CompanyName string
	Facts       []Fact
}

// placeholder values some spreadsheets export for missing cells
var emptyMarkers = map[string]bool{
	"nan": true, "none": true, "null": true,
}

// BuildProfile collects every non-empty column of the row except the
// email and company-name columns themselves, in dataset column order.
func (d *Dataset) BuildProfile(row Row) Profile {
	p := Profile{CompanyName: d.Company(row)}

	for _, col := range d.Columns {
		if col == d.EmailColumn || col == d.CompanyColumn {
			continue
		}
		if low := strings.ToLower(col); low == "email" || low == "gmail" {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" || emptyMarkers[strings.ToLower(v)] {
			continue
		}
		p.Facts = append(p.Facts, Fact{Label: col, Value: v})
	}

	return p
}

// Render formats the profile as the free-text block the language model
// consumes: the company name first, then one "label: value" line per fact.
func (p Profile) Render() string {
	var b strings.Builder
	b.WriteString("Company Name: ")
	b.WriteString(p.CompanyName)
	for _, f := range p.Facts {
		b.WriteString("\n")
		b.WriteString(f.Label)
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}
