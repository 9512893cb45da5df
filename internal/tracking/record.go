package tracking

import (
	"time"
)

// Status is the terminal-state classification of a delivery record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Delivery sub-statuses recorded alongside the status.
const (
	DeliveryAccepted        = "accepted"
	DeliveryInvalidEmail    = "invalid_email"
	DeliveryNoEmailFound    = "no_email_found"
	DeliveryGenerationError = "generation_error"
	DeliveryRelayError      = "relay_error"
	DeliveryInternalError   = "internal_error"
)

// Record is one tracked send attempt, keyed by the attempt identifier.
// Upserting the same identifier overwrites, so a re-send never
// duplicates rows. Records are never deleted by the pipeline.
type Record struct {
	ID             string    `json:"id"`
	Recipient      string    `json:"recipient_email"`
	Company        string    `json:"company_name"`
	Subject        string    `json:"subject"`
	SentAt         time.Time `json:"sent_time"`
	Status         Status    `json:"status"`
	DeliveryStatus string    `json:"delivery_status"`
	Opened         bool      `json:"opened"`
	Clicked        bool      `json:"clicked"`
	Bounced        bool      `json:"bounced"`
	SpamScore      *int      `json:"spam_score,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// Stats are aggregate counts over all records.
type Stats struct {
	Total    int64            `json:"total"`
	Pending  int64            `json:"pending"`
	Sent     int64            `json:"sent"`
	Failed   int64            `json:"failed"`
	ByReason map[string]int64 `json:"by_delivery_status"`
}
