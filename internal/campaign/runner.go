// Package campaign orchestrates the per-row pipeline: validate, enrich
// when the address is missing, generate content, send, record. Rows are
// processed sequentially in input order; one row's failure never stops
// the batch.
package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/breakoutai/automail/internal/dataset"
	"github.com/breakoutai/automail/internal/email"
	"github.com/breakoutai/automail/internal/metrics"
	"github.com/breakoutai/automail/internal/relay"
	"github.com/breakoutai/automail/internal/tracking"
)

// Question posed to the extractor when pulling an address out of the
// enrichment blob.
const emailQuestion = "email address of the company"

// Enricher finds contact facts for companies with a missing address.
type Enricher interface {
	FindContactInfo(ctx context.Context, companyName, queryTemplate string) (string, error)
	ExtractField(ctx context.Context, question, company, contextBlob string) (string, error)
}

// Generator produces subject and body content.
type Generator interface {
	Body(ctx context.Context, template string, profile dataset.Profile) (string, error)
	Subject(ctx context.Context, template string, profile dataset.Profile) string
}

// Sender hands a finished message to the mail relay.
type Sender interface {
	Submit(ctx context.Context, msg *relay.Message) error
}

// Tracker persists one delivery record per attempt.
type Tracker interface {
	Upsert(ctx context.Context, rec *tracking.Record) error
}

// Templates are the operator-supplied campaign inputs. SearchQuery may
// contain {column_name}; Subject may contain {company_name}. Empty
// SearchQuery disables enrichment.
type Templates struct {
	Content     string
	Subject     string
	SearchQuery string
}

// Result is the aggregate outcome of one batch.
type Result struct {
	Total    int
	Sent     int
	Failed   int
	Enriched int
	Records  []*tracking.Record
}

// Runner drives the campaign.
type Runner struct {
	enricher  Enricher
	generator Generator
	sender    Sender
	tracker   Tracker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewRunner creates a campaign runner. metrics may be nil.
func NewRunner(enricher Enricher, generator Generator, sender Sender, tracker Tracker, m *metrics.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		enricher:  enricher,
		generator: generator,
		sender:    sender,
		tracker:   tracker,
		metrics:   m,
		logger:    logger.With("component", "runner"),
	}
}

// Run processes every row in input order, writing exactly one delivery
// record per processed row. Cancellation takes effect at row boundaries
// only; the partial result is returned alongside ctx.Err().
func (r *Runner) Run(ctx context.Context, ds *dataset.Dataset, tmpl Templates) (*Result, error) {
	result := &Result{}

	for i, row := range ds.Rows {
		select {
		case <-ctx.Done():
			r.logger.Warn("campaign cancelled", "processed", result.Total, "remaining", len(ds.Rows)-i)
			return result, ctx.Err()
		default:
		}

		rec, enriched := r.processRow(ctx, ds, row, tmpl)

		if err := r.tracker.Upsert(ctx, rec); err != nil {
			r.logger.Error("failed to record attempt", "attempt_id", rec.ID, "error", err)
		}

		result.Total++
		result.Records = append(result.Records, rec)
		if enriched {
			result.Enriched++
		}
		if rec.Status == tracking.StatusSent {
			result.Sent++
		} else {
			result.Failed++
		}

		r.metrics.RowProcessed()
		r.logger.Info("row processed",
			"row", i,
			"company", rec.Company,
			"status", rec.Status,
			"delivery_status", rec.DeliveryStatus,
		)
	}

	return result, nil
}

// processRow runs the state machine for one row. It always returns a
// record; a panic anywhere inside becomes a Failed record instead of
// aborting the batch.
func (r *Runner) processRow(ctx context.Context, ds *dataset.Dataset, row dataset.Row, tmpl Templates) (rec *tracking.Record, enriched bool) {
	rec = &tracking.Record{
		ID:      uuid.NewString(),
		Company: ds.Company(row),
		SentAt:  time.Now(),
		Status:  tracking.StatusFailed,
	}

	defer func() {
		if p := recover(); p != nil {
			rec.Status = tracking.StatusFailed
			rec.DeliveryStatus = tracking.DeliveryInternalError
			rec.ErrorMessage = fmt.Sprintf("panic: %v", p)
			r.metrics.EmailFailed(rec.DeliveryStatus)
			r.logger.Error("row panicked", "company", rec.Company, "panic", p)
		}
	}()

	address := ds.Email(row)

	// Validating: a present but malformed address fails the row before
	// any API call is spent.
	if address != "" && !email.IsValid(address) {
		rec.Recipient = address
		rec.DeliveryStatus = tracking.DeliveryInvalidEmail
		rec.ErrorMessage = fmt.Sprintf("Invalid email address: %s", address)
		r.metrics.EmailFailed(rec.DeliveryStatus)
		return rec, false
	}

	// Enriching: only when the address is blank.
	if address == "" {
		found, err := r.enrich(ctx, rec.Company, tmpl.SearchQuery)
		if err != nil || !email.IsValid(found) {
			rec.DeliveryStatus = tracking.DeliveryNoEmailFound
			if err != nil {
				rec.ErrorMessage = err.Error()
			} else {
				rec.ErrorMessage = fmt.Sprintf("no valid email found for %s", rec.Company)
			}
			r.metrics.EnrichmentRun("not_found")
			r.metrics.EmailFailed(rec.DeliveryStatus)
			return rec, false
		}
		address = found
		enriched = true
		r.metrics.EnrichmentRun("found")
	}

	rec.Recipient = address

	assessment := email.AssessDeliverability(address)
	rec.SpamScore = &assessment.Score
	for _, w := range assessment.Warnings {
		r.logger.Debug("deliverability warning", "recipient", address, "warning", w)
	}

	// Generating
	profile := ds.BuildProfile(row)
	rec.Subject = r.generator.Subject(ctx, tmpl.Subject, profile)

	body, err := r.generator.Body(ctx, tmpl.Content, profile)
	if err != nil {
		rec.DeliveryStatus = tracking.DeliveryGenerationError
		rec.ErrorMessage = err.Error()
		r.metrics.EmailFailed(rec.DeliveryStatus)
		return rec, enriched
	}

	// Sending
	rec.SentAt = time.Now()
	err = r.sender.Submit(ctx, &relay.Message{
		AttemptID:   rec.ID,
		To:          address,
		Subject:     rec.Subject,
		Body:        body,
		CompanyName: rec.Company,
	})
	if err != nil {
		rec.DeliveryStatus = tracking.DeliveryRelayError
		rec.ErrorMessage = err.Error()
		r.metrics.EmailFailed(rec.DeliveryStatus)
		return rec, enriched
	}

	rec.Status = tracking.StatusSent
	rec.DeliveryStatus = tracking.DeliveryAccepted
	r.metrics.EmailSent()
	return rec, enriched
}

// enrich searches for the company and extracts an address from the
// result blob. An empty query template disables enrichment entirely.
func (r *Runner) enrich(ctx context.Context, company, queryTemplate string) (string, error) {
	if queryTemplate == "" {
		return "", nil
	}

	blob, err := r.enricher.FindContactInfo(ctx, company, queryTemplate)
	if err != nil {
		return "", err
	}

	found, err := r.enricher.ExtractField(ctx, emailQuestion, company, blob)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(found), nil
}
