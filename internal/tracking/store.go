// Package tracking is the append-only store of send attempts. It is the
// source of truth for send status; the spreadsheet-of-record is only a
// projection of it.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when an operation targets an attempt
// identifier with no record.
var ErrNotFound = errors.New("record not found")

var (
	bucketRecords  = []byte("records")
	bucketSentTime = []byte("sent_time_index")
)

// BoltStore implements the delivery tracker on BoltDB. Upserts are
// atomic per record, so concurrent readers (the dashboard) never see a
// half-written entry.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if needed) the tracking database.
func NewBoltStore(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRecords, bucketSentTime} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Upsert writes the record under its attempt identifier, replacing any
// previous version and keeping the sent-time index in step.
func (s *BoltStore) Upsert(ctx context.Context, rec *Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		index := tx.Bucket(bucketSentTime)

		// Drop the stale index entry when overwriting
		if old := records.Get([]byte(rec.ID)); old != nil {
			var prev Record
			if err := json.Unmarshal(old, &prev); err == nil {
				index.Delete(makeIndexKey(prev.SentAt, prev.ID))
			}
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if err := records.Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("failed to store record: %w", err)
		}

		if err := index.Put(makeIndexKey(rec.SentAt, rec.ID), []byte(rec.ID)); err != nil {
			return fmt.Errorf("failed to index record: %w", err)
		}

		return nil
	})
}

// Get retrieves a record by attempt identifier, nil when absent.
func (s *BoltStore) Get(ctx context.Context, id string) (*Record, error) {
	var rec *Record

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get([]byte(id))
		if data == nil {
			return nil
		}
		rec = &Record{}
		return json.Unmarshal(data, rec)
	})

	return rec, err
}

// List returns all records, most recently sent first.
func (s *BoltStore) List(ctx context.Context) ([]*Record, error) {
	var out []*Record

	err := s.db.View(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		index := tx.Bucket(bucketSentTime)

		c := index.Cursor()
		for k, id := c.Last(); k != nil; k, id = c.Prev() {
			data := records.Get(id)
			if data == nil {
				continue
			}
			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				continue
			}
			out = append(out, &rec)
		}
		return nil
	})

	return out, err
}

// Stats aggregates counts by status and delivery sub-status.
func (s *BoltStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByReason: make(map[string]int64)}

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}

			stats.Total++
			switch rec.Status {
			case StatusPending:
				stats.Pending++
			case StatusSent:
				stats.Sent++
			case StatusFailed:
				stats.Failed++
			}
			if rec.DeliveryStatus != "" {
				stats.ByReason[rec.DeliveryStatus]++
			}
		}
		return nil
	})

	return stats, err
}

// SetEngagement updates the webhook-driven engagement flags on an
// existing record.
func (s *BoltStore) SetEngagement(ctx context.Context, id string, opened, clicked, bounced bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)

		data := records.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		rec.Opened = rec.Opened || opened
		rec.Clicked = rec.Clicked || clicked
		rec.Bounced = rec.Bounced || bounced

		updated, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		return records.Put([]byte(id), updated)
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// makeIndexKey creates a sortable key from timestamp and ID
func makeIndexKey(t time.Time, id string) []byte {
	return []byte(t.UTC().Format(time.RFC3339Nano) + ":" + id)
}
