// Package enrich discovers missing contact facts for a company through
// web search and language-model field extraction.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/breakoutai/automail/internal/llm"
	"github.com/breakoutai/automail/internal/search"
)

// Knowledge-panel fields aggregated into the context blob, in order.
var knowledgeKeys = []string{
	"title", "type", "website", "founded", "headquarters", "revenue",
	"social", "mobile", "phone", "ceo", "email", "contact email",
	"address", "contact", "call", "chat", "connect", "write",
	"twitter", "instagram", "facebook",
}

const extractSystemPrompt = "You are an assistant that extracts specific information from context."

// Searcher is the search-provider dependency.
type Searcher interface {
	Search(ctx context.Context, query string) (*search.Response, error)
}

// Completer is the language-model dependency.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts llm.Options) (string, error)
}

// Enricher aggregates search results into a text blob and extracts
// single fields from it. It returns unstructured text; interpreting it
// is the language-model layer's job.
type Enricher struct {
	searcher  Searcher
	completer Completer
	logger    *slog.Logger
}

// New creates an enricher.
func New(searcher Searcher, completer Completer, logger *slog.Logger) *Enricher {
	return &Enricher{
		searcher:  searcher,
		completer: completer,
		logger:    logger.With("component", "enricher"),
	}
}

// BuildQuery substitutes the company name into the user-supplied query
// template. Both {column_name} and the legacy {col_name} spelling are
// replaced; a template without either is used verbatim.
func BuildQuery(template, name string) string {
	q := strings.ReplaceAll(template, "{column_name}", name)
	return strings.ReplaceAll(q, "{col_name}", name)
}

// FindContactInfo runs one search for the company and concatenates the
// knowledge-panel fields plus organic title/snippet pairs into a single
// text blob.
func (e *Enricher) FindContactInfo(ctx context.Context, companyName, queryTemplate string) (string, error) {
	query := BuildQuery(queryTemplate, companyName)

	resp, err := e.searcher.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", companyName, err)
	}

	var b strings.Builder
	for _, key := range knowledgeKeys {
		v, ok := resp.KnowledgeGraph[key]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s == "" {
			continue
		}
		b.WriteString(s)
		b.WriteString("\n")
	}

	for _, r := range resp.OrganicResults {
		title, snippet := r.Title, r.Snippet
		if title == "" {
			title = "N/A"
		}
		if snippet == "" {
			snippet = "N/A"
		}
		b.WriteString(title)
		b.WriteString(" - ")
		b.WriteString(snippet)
		b.WriteString("\n")
	}

	e.logger.Debug("contact info aggregated", "company", companyName, "bytes", b.Len())
	return b.String(), nil
}

// ExtractField asks the language model to pull exactly one feature out
// of the aggregated context.
func (e *Enricher) ExtractField(ctx context.Context, question, company, contextBlob string) (string, error) {
	prompt := fmt.Sprintf(`You are an AI assistant specialized in extracting specific information from any data.
From the context and question provided, extract only the feature which is asked in the question.
Respond only with the asked feature, without any verbosity. Clean and exact answers only.

Question: %s
Company: %s
Context: %s`, question, company, contextBlob)

	answer, err := e.completer.Complete(ctx, extractSystemPrompt, prompt, llm.Options{})
	if err != nil {
		return "", fmt.Errorf("extract %q for %s: %w", question, company, err)
	}

	return strings.TrimSpace(answer), nil
}
