package email

import (
	"reflect"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{"a@b.co", true},
		{"ceo@acme.com", true},
		{"first.last+tag@sub.example.org", true},
		{"", false},
		{"   ", false},
		{"not-an-email", false},
		{"missing-at.example.com", false},
		{"short-tld@example.c", false},
		{"no-dot@example", false},
		{"@example.com", false},
		{"user@", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.address); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}

func TestAssessDeliverability(t *testing.T) {
	tests := []struct {
		name         string
		address      string
		wantScore    int
		wantWarnings int
	}{
		{"business domain", "ceo@acme.com", 100, 0},
		{"personal domain", "someone@gmail.com", 90, 1},
		{"disposable domain", "x@mailinator.com", 70, 1},
		{"outlook", "a@outlook.com", 90, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessDeliverability(tt.address)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if len(got.Warnings) != tt.wantWarnings {
				t.Errorf("Warnings = %v, want %d entries", got.Warnings, tt.wantWarnings)
			}
		})
	}
}

func TestAssessDeliverabilityDeterministic(t *testing.T) {
	first := AssessDeliverability("someone@gmail.com")
	second := AssessDeliverability("someone@gmail.com")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("assessment not deterministic: %+v vs %+v", first, second)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"user@Example.COM", "example.com"},
		{"Name <user@example.com>", "example.com"},
		{"bad-address", ""},
		{"user@", ""},
	}

	for _, tt := range tests {
		if got := ExtractDomain(tt.address); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.address, got, tt.want)
		}
	}
}
