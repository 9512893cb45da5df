// Package content turns a campaign template and a company profile into
// a personalized subject line and body via the language model.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/breakoutai/automail/internal/dataset"
	"github.com/breakoutai/automail/internal/llm"
)

const bodySystemPrompt = "You are a professional email writer who creates highly personalized, spam-filter-friendly business emails using comprehensive company data."

const subjectSystemPrompt = "You are an expert at creating professional, spam-filter-friendly email subject lines using company data."

// Completer is the language-model dependency.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts llm.Options) (string, error)
}

// Generator produces campaign content.
type Generator struct {
	completer Completer
	logger    *slog.Logger
}

// New creates a generator.
func New(completer Completer, logger *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    logger.With("component", "content"),
	}
}

// Body generates the email body from the template instructions and the
// company profile. Upstream failures are returned as errors, never as
// error-shaped prose a caller could accidentally send.
func (g *Generator) Body(ctx context.Context, template string, profile dataset.Profile) (string, error) {
	prompt := fmt.Sprintf(`You are an expert email writer specializing in business communications that avoid spam filters.
Generate a professional, personalized email that follows these deliverability best practices:

Template/Instructions: %s

Company Information (use this to personalize the email):
%s

IMPORTANT DELIVERABILITY RULES:
1. Use professional, conversational tone (not overly salesy)
2. Avoid spam trigger words like "FREE", "URGENT", "GUARANTEED", excessive exclamation marks
3. Include specific, relevant details about the company from the provided information
4. Make it sound like genuine business correspondence
5. Keep subject line under 50 characters
6. Use proper sentence structure and grammar
7. Include a clear but subtle call-to-action
8. Personalize with specific company details from the provided information
9. Reference specific company attributes like industry, location, size, etc. when available

Generate only the email content without any additional text or explanations.
Make sure to use the company information provided to create a highly personalized message.`, template, profile.Render())

	body, err := g.completer.Complete(ctx, bodySystemPrompt, prompt, llm.Options{Temperature: 0.7, MaxTokens: 1000})
	if err != nil {
		return "", fmt.Errorf("generate body for %s: %w", profile.CompanyName, err)
	}

	return body, nil
}

// Subject generates the subject line. On any upstream failure it
// degrades to literal substitution of the company name into the
// template instead of failing the row. Newlines are always stripped.
func (g *Generator) Subject(ctx context.Context, template string, profile dataset.Profile) string {
	prompt := fmt.Sprintf(`Generate a professional email subject line that will pass spam filters.

Template/Instructions: %s

Company Information (use this to personalize):
%s

DELIVERABILITY RULES:
1. Keep under 50 characters
2. Avoid ALL CAPS, excessive punctuation (!!!), and spam words
3. Make it specific and personalized using the company information
4. Sound like genuine business correspondence
5. Include company name or specific detail naturally
6. Avoid words like: FREE, URGENT, GUARANTEED, AMAZING, INCREDIBLE
7. Use title case or sentence case
8. Do not include any newline characters

Generate only the subject line without any additional text.`, template, profile.Render())

	subject, err := g.completer.Complete(ctx, subjectSystemPrompt, prompt, llm.Options{Temperature: 0.7, MaxTokens: 100})
	if err != nil {
		g.logger.Warn("subject generation failed, using template fallback",
			"company", profile.CompanyName,
			"error", err,
		)
		subject = SubstituteCompany(template, profile.CompanyName)
	}

	return strings.ReplaceAll(subject, "\n", "")
}

// SubstituteCompany replaces the {company_name} placeholder with the
// company name. Unknown placeholders are left intact.
func SubstituteCompany(template, name string) string {
	return strings.ReplaceAll(template, "{company_name}", name)
}
