package campaign

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/breakoutai/automail/internal/dataset"
	"github.com/breakoutai/automail/internal/relay"
	"github.com/breakoutai/automail/internal/tracking"
)

type stubEnricher struct {
	blob       string
	blobErr    error
	extracted  string
	extractErr error
	searches   int
	extracts   int
}

func (s *stubEnricher) FindContactInfo(_ context.Context, _, _ string) (string, error) {
	s.searches++
	return s.blob, s.blobErr
}

func (s *stubEnricher) ExtractField(_ context.Context, _, _, _ string) (string, error) {
	s.extracts++
	return s.extracted, s.extractErr
}

type stubGenerator struct {
	body      string
	bodyErr   error
	subject   string
	bodyCalls int
	panicBody bool
}

func (s *stubGenerator) Body(_ context.Context, _ string, _ dataset.Profile) (string, error) {
	s.bodyCalls++
	if s.panicBody {
		panic("template exploded")
	}
	return s.body, s.bodyErr
}

func (s *stubGenerator) Subject(_ context.Context, _ string, _ dataset.Profile) string {
	return s.subject
}

type stubSender struct {
	err       error
	submitted []*relay.Message
}

func (s *stubSender) Submit(_ context.Context, msg *relay.Message) error {
	s.submitted = append(s.submitted, msg)
	return s.err
}

type memTracker struct {
	records []*tracking.Record
}

func (m *memTracker) Upsert(_ context.Context, rec *tracking.Record) error {
	m.records = append(m.records, rec)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDataset(rows ...dataset.Row) *dataset.Dataset {
	return &dataset.Dataset{
		Columns:       []string{"Company Name", "Email"},
		Rows:          rows,
		EmailColumn:   "Email",
		CompanyColumn: "Company Name",
	}
}

func defaultTemplates() Templates {
	return Templates{
		Content:     "Hello {company_name}",
		Subject:     "Partnership with {company_name}",
		SearchQuery: "contact email for {column_name}",
	}
}

func TestRunSendsValidRow(t *testing.T) {
	enricher := &stubEnricher{}
	generator := &stubGenerator{body: "Dear Acme", subject: "Hi Acme"}
	sender := &stubSender{}
	tracker := &memTracker{}

	runner := NewRunner(enricher, generator, sender, tracker, nil, discard())
	ds := testDataset(dataset.Row{"Company Name": "Acme", "Email": "ceo@acme.com"})

	result, err := runner.Run(context.Background(), ds, defaultTemplates())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Sent != 1 || result.Failed != 0 || result.Enriched != 0 {
		t.Fatalf("result = %+v, want 1 sent", result)
	}
	if enricher.searches != 0 {
		t.Errorf("enricher invoked for a row with a valid address")
	}
	if len(sender.submitted) != 1 {
		t.Fatalf("submitted %d messages, want 1", len(sender.submitted))
	}
	msg := sender.submitted[0]
	if msg.To != "ceo@acme.com" || msg.Subject != "Hi Acme" || msg.Body != "Dear Acme" {
		t.Errorf("unexpected message %+v", msg)
	}

	rec := tracker.records[0]
	if rec.Status != tracking.StatusSent || rec.DeliveryStatus != tracking.DeliveryAccepted {
		t.Errorf("record status = %s/%s", rec.Status, rec.DeliveryStatus)
	}
	if rec.SpamScore == nil || *rec.SpamScore != 100 {
		t.Errorf("spam score = %v, want 100", rec.SpamScore)
	}
}

func TestRunInvalidAddressSkipsAPIs(t *testing.T) {
	enricher := &stubEnricher{}
	generator := &stubGenerator{}
	sender := &stubSender{}
	tracker := &memTracker{}

	runner := NewRunner(enricher, generator, sender, tracker, nil, discard())
	ds := testDataset(dataset.Row{"Company Name": "Acme", "Email": "not-an-address"})

	result, err := runner.Run(context.Background(), ds, defaultTemplates())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("result = %+v, want 1 failed", result)
	}
	if enricher.searches != 0 || generator.bodyCalls != 0 || len(sender.submitted) != 0 {
		t.Errorf("invalid row reached external services")
	}

	rec := tracker.records[0]
	if rec.DeliveryStatus != tracking.DeliveryInvalidEmail {
		t.Errorf("delivery status = %s, want %s", rec.DeliveryStatus, tracking.DeliveryInvalidEmail)
	}
	if !strings.Contains(rec.ErrorMessage, "not-an-address") {
		t.Errorf("error message %q does not name the address", rec.ErrorMessage)
	}
}

func TestRunEnrichesBlankAddress(t *testing.T) {
	enricher := &stubEnricher{blob: "some facts", extracted: "info@acme.com"}
	generator := &stubGenerator{body: "Dear Acme", subject: "Hi"}
	sender := &stubSender{}
	tracker := &memTracker{}

	runner := NewRunner(enricher, generator, sender, tracker, nil, discard())
	ds := testDataset(dataset.Row{"Company Name": "Acme", "Email": ""})

	result, err := runner.Run(context.Background(), ds, defaultTemplates())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Sent != 1 || result.Enriched != 1 {
		t.Fatalf("result = %+v, want 1 sent 1 enriched", result)
	}
	if sender.submitted[0].To != "info@acme.com" {
		t.Errorf("sent to %q, want enriched address", sender.submitted[0].To)
	}
}

func TestRunEnrichmentFailures(t *testing.T) {
	tests := []struct {
		name     string
		enricher *stubEnricher
		tmpl     Templates
	}{
		{
			name:     "search error",
			enricher: &stubEnricher{blobErr: errors.New("serpapi down")},
			tmpl:     defaultTemplates(),
		},
		{
			name:     "extraction error",
			enricher: &stubEnricher{blob: "facts", extractErr: errors.New("rate limited")},
			tmpl:     defaultTemplates(),
		},
		{
			name:     "extracted value not an address",
			enricher: &stubEnricher{blob: "facts", extracted: "no email listed"},
			tmpl:     defaultTemplates(),
		},
		{
			name:     "enrichment disabled",
			enricher: &stubEnricher{},
			tmpl:     Templates{Content: "c", Subject: "s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &stubSender{}
			tracker := &memTracker{}
			runner := NewRunner(tt.enricher, &stubGenerator{}, sender, tracker, nil, discard())
			ds := testDataset(dataset.Row{"Company Name": "Acme", "Email": ""})

			result, err := runner.Run(context.Background(), ds, tt.tmpl)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if result.Failed != 1 || result.Enriched != 0 {
				t.Fatalf("result = %+v, want 1 failed", result)
			}
			if len(sender.submitted) != 0 {
				t.Errorf("message submitted despite missing address")
			}
			if tracker.records[0].DeliveryStatus != tracking.DeliveryNoEmailFound {
				t.Errorf("delivery status = %s, want %s", tracker.records[0].DeliveryStatus, tracking.DeliveryNoEmailFound)
			}
		})
	}
}

func TestRunGenerationErrorBlocksSend(t *testing.T) {
	generator := &stubGenerator{bodyErr: errors.New("llm unavailable"), subject: "Hi"}
	sender := &stubSender{}
	tracker := &memTracker{}

	runner := NewRunner(&stubEnricher{}, generator, sender, tracker, nil, discard())
	ds := testDataset(dataset.Row{"Company Name": "Acme", "Email": "ceo@acme.com"})

	result, _ := runner.Run(context.Background(), ds, defaultTemplates())
	if result.Failed != 1 {
		t.Fatalf("result = %+v, want 1 failed", result)
	}
	if len(sender.submitted) != 0 {
		t.Fatalf("message submitted despite generation failure")
	}
	rec := tracker.records[0]
	if rec.DeliveryStatus != tracking.DeliveryGenerationError {
		t.Errorf("delivery status = %s, want %s", rec.DeliveryStatus, tracking.DeliveryGenerationError)
	}
	if rec.ErrorMessage != "llm unavailable" {
		t.Errorf("error message = %q", rec.ErrorMessage)
	}
}

func TestRunRelayErrorRecordedVerbatim(t *testing.T) {
	sender := &stubSender{err: &relay.SubmitError{Stage: "auth", Message: "535 bad credentials"}}
	tracker := &memTracker{}

	runner := NewRunner(&stubEnricher{}, &stubGenerator{body: "b", subject: "s"}, sender, tracker, nil, discard())
	ds := testDataset(dataset.Row{"Company Name": "Acme", "Email": "ceo@acme.com"})

	result, _ := runner.Run(context.Background(), ds, defaultTemplates())
	if result.Failed != 1 {
		t.Fatalf("result = %+v, want 1 failed", result)
	}
	rec := tracker.records[0]
	if rec.DeliveryStatus != tracking.DeliveryRelayError {
		t.Errorf("delivery status = %s, want %s", rec.DeliveryStatus, tracking.DeliveryRelayError)
	}
	if !strings.Contains(rec.ErrorMessage, "535 bad credentials") {
		t.Errorf("error message %q lost the relay detail", rec.ErrorMessage)
	}
}

func TestRunPanicIsolatedPerRow(t *testing.T) {
	tracker := &memTracker{}
	sender := &stubSender{}
	generator := &stubGenerator{panicBody: true, subject: "s"}

	runner := NewRunner(&stubEnricher{}, generator, sender, tracker, nil, discard())
	ds := testDataset(
		dataset.Row{"Company Name": "A", "Email": "a@a.com"},
		dataset.Row{"Company Name": "B", "Email": "b@b.com"},
		dataset.Row{"Company Name": "C", "Email": "c@c.com"},
	)

	result, err := runner.Run(context.Background(), ds, defaultTemplates())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Total != 3 || result.Failed != 3 {
		t.Fatalf("result = %+v, want 3 failed records", result)
	}
	if len(tracker.records) != 3 {
		t.Fatalf("recorded %d attempts, want 3", len(tracker.records))
	}
	for _, rec := range tracker.records {
		if rec.DeliveryStatus != tracking.DeliveryInternalError {
			t.Errorf("delivery status = %s, want %s", rec.DeliveryStatus, tracking.DeliveryInternalError)
		}
		if !strings.Contains(rec.ErrorMessage, "template exploded") {
			t.Errorf("error message %q lost the panic text", rec.ErrorMessage)
		}
	}
}

func TestRunCancelledBetweenRows(t *testing.T) {
	tracker := &memTracker{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(&stubEnricher{}, &stubGenerator{body: "b", subject: "s"}, &stubSender{}, tracker, nil, discard())
	ds := testDataset(dataset.Row{"Company Name": "Acme", "Email": "ceo@acme.com"})

	result, err := runner.Run(ctx, ds, defaultTemplates())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if result.Total != 0 || len(tracker.records) != 0 {
		t.Errorf("rows processed after cancellation: %+v", result)
	}
}

func TestRunBlankCompanyFallsBack(t *testing.T) {
	tracker := &memTracker{}
	runner := NewRunner(&stubEnricher{}, &stubGenerator{body: "b", subject: "s"}, &stubSender{}, tracker, nil, discard())
	ds := testDataset(dataset.Row{"Company Name": "", "Email": "x@y.com"})

	if _, err := runner.Run(context.Background(), ds, defaultTemplates()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := tracker.records[0].Company; got != "Unknown Company" {
		t.Errorf("company = %q, want Unknown Company", got)
	}
}
