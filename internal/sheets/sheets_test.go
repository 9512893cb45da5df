package sheets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/breakoutai/automail/internal/tracking"
)

type fakeValues struct {
	data      [][]any
	getErr    error
	clearErr  error
	updateErr error

	cleared []string
	updated map[string][][]any
}

func (f *fakeValues) Get(_ context.Context, _ string) ([][]any, error) {
	return f.data, f.getErr
}

func (f *fakeValues) Clear(_ context.Context, rng string) error {
	f.cleared = append(f.cleared, rng)
	return f.clearErr
}

func (f *fakeValues) Update(_ context.Context, rng string, values [][]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = make(map[string][][]any)
	}
	f.updated[rng] = values
	return nil
}

func testReconciler(values valuesAPI) *Reconciler {
	return &Reconciler{
		values:    values,
		sheetName: "Leads",
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestReadBuildsDataset(t *testing.T) {
	r := testReconciler(&fakeValues{data: [][]any{
		{"Company Name", "Email", "Industry"},
		{"Acme", "ceo@acme.com", "Robotics"},
		{"Globex", "info@globex.com"}, // short row, padded
	}})

	ds, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(ds.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(ds.Rows))
	}
	if got := ds.Email(ds.Rows[0]); got != "ceo@acme.com" {
		t.Errorf("email = %q", got)
	}
	if got := ds.Rows[1]["Industry"]; got != "" {
		t.Errorf("padded cell = %q, want empty", got)
	}
}

func TestReadEmptySheet(t *testing.T) {
	r := testReconciler(&fakeValues{})
	if _, err := r.Read(context.Background()); err == nil {
		t.Fatal("Read() on empty sheet succeeded, want error")
	}
}

func TestPushWritesHeaderAndRows(t *testing.T) {
	score := 70
	fake := &fakeValues{}
	r := testReconciler(fake)

	records := []*tracking.Record{{
		ID:             "abc",
		Recipient:      "ceo@acme.com",
		Company:        "Acme",
		Subject:        "Hello",
		SentAt:         time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC),
		Status:         tracking.StatusSent,
		DeliveryStatus: tracking.DeliveryAccepted,
		SpamScore:      &score,
	}}

	if err := r.Push(context.Background(), "Results", records); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(fake.cleared) != 1 || fake.cleared[0] != "Results" {
		t.Errorf("cleared = %v, want [Results]", fake.cleared)
	}

	rows := fake.updated["Results"]
	if len(rows) != 2 {
		t.Fatalf("wrote %d rows, want header plus one record", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "recipient_email" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][0] != "abc" || rows[1][4] != "2026-05-01 10:30:00" || rows[1][10] != "70" {
		t.Errorf("record row = %v", rows[1])
	}
}

func TestPushZeroRecordsKeepsHeader(t *testing.T) {
	fake := &fakeValues{}
	r := testReconciler(fake)

	if err := r.Push(context.Background(), "Results", nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(fake.updated["Results"]) != 1 {
		t.Fatalf("wrote %d rows, want header only", len(fake.updated["Results"]))
	}
}

func TestPushReportsFailure(t *testing.T) {
	r := testReconciler(&fakeValues{updateErr: errors.New("quota exceeded")})

	err := r.Push(context.Background(), "Results", nil)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("Push() error = %v, want quota failure surfaced", err)
	}
}
