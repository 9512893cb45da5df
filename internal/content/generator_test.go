package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/breakoutai/automail/internal/dataset"
	"github.com/breakoutai/automail/internal/llm"
)

type stubCompleter struct {
	lastSystem string
	lastUser   string
	lastOpts   llm.Options
	answer     string
	err        error
}

func (s *stubCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, opts llm.Options) (string, error) {
	s.lastSystem = systemPrompt
	s.lastUser = userPrompt
	s.lastOpts = opts
	return s.answer, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProfile() dataset.Profile {
	return dataset.Profile{
		CompanyName: "Acme",
		Facts: []dataset.Fact{
			{Label: "Industry", Value: "Anvils"},
			{Label: "HQ", Value: "Phoenix"},
		},
	}
}

func TestBody(t *testing.T) {
	completer := &stubCompleter{answer: "Hello Acme team, ..."}
	g := New(completer, testLogger())

	body, err := g.Body(context.Background(), "introduce our logistics product", testProfile())
	if err != nil {
		t.Fatalf("Body() error = %v", err)
	}
	if body != "Hello Acme team, ..." {
		t.Errorf("Body() = %q", body)
	}

	if !strings.Contains(completer.lastUser, "Company Name: Acme") {
		t.Errorf("prompt missing profile:\n%s", completer.lastUser)
	}
	if !strings.Contains(completer.lastUser, "Industry: Anvils") {
		t.Errorf("prompt missing facts:\n%s", completer.lastUser)
	}
	if completer.lastOpts.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want 1000", completer.lastOpts.MaxTokens)
	}
}

func TestBodyErrorIsError(t *testing.T) {
	completer := &stubCompleter{err: errors.New("model overloaded")}
	g := New(completer, testLogger())

	body, err := g.Body(context.Background(), "template", testProfile())
	if err == nil {
		t.Fatal("Body() expected error")
	}
	if body != "" {
		t.Errorf("Body() = %q, want empty on error", body)
	}
}

func TestSubject(t *testing.T) {
	completer := &stubCompleter{answer: "Acme Partnership Idea"}
	g := New(completer, testLogger())

	got := g.Subject(context.Background(), "Partnership with {company_name}", testProfile())
	if got != "Acme Partnership Idea" {
		t.Errorf("Subject() = %q", got)
	}
	if completer.lastOpts.MaxTokens != 100 {
		t.Errorf("MaxTokens = %d, want 100", completer.lastOpts.MaxTokens)
	}
}

func TestSubjectStripsNewlines(t *testing.T) {
	completer := &stubCompleter{answer: "Acme\nPartnership"}
	g := New(completer, testLogger())

	got := g.Subject(context.Background(), "t", testProfile())
	if strings.Contains(got, "\n") {
		t.Errorf("Subject() = %q, want no newlines", got)
	}
}

func TestSubjectFallsBackOnError(t *testing.T) {
	completer := &stubCompleter{err: errors.New("429 forever")}
	g := New(completer, testLogger())

	got := g.Subject(context.Background(), "Partnership with {company_name}", testProfile())
	if got != "Partnership with Acme" {
		t.Errorf("Subject() = %q, want template fallback", got)
	}
}

func TestSubstituteCompany(t *testing.T) {
	got := SubstituteCompany("Hello {company_name}, re: {other}", "Acme")
	if got != "Hello Acme, re: {other}" {
		t.Errorf("SubstituteCompany() = %q", got)
	}
}
