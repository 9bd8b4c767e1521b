// Package store provides the BoltDB-backed record store for cheques and
// verification logs.
//
// Records are JSON values keyed by a generated id. A second bucket maps each
// cheque number to its record id, which gives exact-match lookups and makes
// the cheque number unique at write time. Timestamps are assigned here, inside
// the write transaction, never by callers.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/kingrea/chequedesk/internal/cheque"
)

var (
	bucketCheques       = []byte("cheques")
	bucketChequeIndex   = []byte("cheque_ids")
	bucketVerifications = []byte("verifications")
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicateChequeID is returned when a cheque number is already taken.
	ErrDuplicateChequeID = errors.New("store: cheque number already exists")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store: closed")
)

// Store wraps a BoltDB database.
type Store struct {
	db     *bolt.DB
	clock  func() time.Time
	newID  func() string
	hub    *hub
	logger Logger
}

// Option customizes store construction.
type Option func(*Store)

// WithClock controls the server-assigned timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger receives subscriber overflow diagnostics.
func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens (or creates) the database at path and ensures every bucket
// exists.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketCheques, bucketChequeIndex, bucketVerifications} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	s := &Store{
		db:    db,
		clock: func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.hub = newHub(defaultSubscriberCapacity, s.logger)
	return s, nil
}

// Close closes every subscription and releases the database file lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.hub.closeAll()
	return s.db.Close()
}

// Subscribe returns a feed of committed changes.
func (s *Store) Subscribe() Subscription {
	return s.hub.subscribe()
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func (s *Store) view(ctx context.Context, fn func(*bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func (s *Store) update(ctx context.Context, fn func(*bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

// FindByChequeID returns every record whose cheque number equals code.
func (s *Store) FindByChequeID(ctx context.Context, code string) ([]cheque.Record, error) {
	var out []cheque.Record
	err := s.view(ctx, func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketChequeIndex).Get([]byte(code))
		if id == nil {
			return nil
		}
		raw := tx.Bucket(bucketCheques).Get(id)
		if raw == nil {
			return nil
		}
		var rec cheque.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: find %s: %w", code, err)
	}
	return out, nil
}

// ExistsByChequeID reports whether a record with exactly this cheque number
// exists.
func (s *Store) ExistsByChequeID(ctx context.Context, code string) (bool, error) {
	found, err := s.FindByChequeID(ctx, code)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

// Create persists a new record. The id and both timestamps are assigned by the
// store; a taken cheque number yields ErrDuplicateChequeID.
func (s *Store) Create(ctx context.Context, rec cheque.Record) (cheque.Record, error) {
	rec.ChequeID = strings.TrimSpace(rec.ChequeID)
	if rec.ChequeID == "" {
		return cheque.Record{}, fmt.Errorf("store: create: cheque number is required")
	}
	err := s.update(ctx, func(tx *bolt.Tx) error {
		index := tx.Bucket(bucketChequeIndex)
		if index.Get([]byte(rec.ChequeID)) != nil {
			return ErrDuplicateChequeID
		}
		now := s.now()
		rec.ID = s.newID()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketCheques).Put([]byte(rec.ID), data); err != nil {
			return err
		}
		return index.Put([]byte(rec.ChequeID), []byte(rec.ID))
	})
	if err != nil {
		return cheque.Record{}, fmt.Errorf("store: create %s: %w", rec.ChequeID, err)
	}
	s.hub.publish(Change{Topic: TopicCheques, Op: "create", ID: rec.ID})
	return rec, nil
}

// Get retrieves a single record by id.
func (s *Store) Get(ctx context.Context, id string) (cheque.Record, error) {
	var rec cheque.Record
	err := s.view(ctx, func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketCheques).Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return cheque.Record{}, fmt.Errorf("store: get %s: %w", id, err)
	}
	return rec, nil
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context) ([]cheque.Record, error) {
	items := []cheque.Record{}
	err := s.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCheques).ForEach(func(_, v []byte) error {
			var rec cheque.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			items = append(items, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list cheques: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// Update applies edit to the mutable fields of a record. The cheque number is
// never touched. UpdatedAt is restamped when anything changed.
func (s *Store) Update(ctx context.Context, id string, edit cheque.Edit) (cheque.Record, error) {
	if !edit.Status.IsRecordStatus() {
		return cheque.Record{}, fmt.Errorf("store: update %s: invalid status %q", id, edit.Status)
	}
	var rec cheque.Record
	changed := false
	err := s.update(ctx, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCheques)
		raw := b.Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if rec.Name == edit.Name && rec.Phone == edit.Phone && rec.Amount == edit.Amount && rec.Status == edit.Status {
			return nil
		}
		rec.Name = edit.Name
		rec.Phone = edit.Phone
		rec.Amount = edit.Amount
		rec.Status = edit.Status
		rec.UpdatedAt = s.now()
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		changed = true
		return b.Put([]byte(id), data)
	})
	if err != nil {
		return cheque.Record{}, fmt.Errorf("store: update %s: %w", id, err)
	}
	if changed {
		s.hub.publish(Change{Topic: TopicCheques, Op: "update", ID: id})
	}
	return rec, nil
}

// SetStatus changes only the status of a record.
func (s *Store) SetStatus(ctx context.Context, id string, status cheque.Status) (cheque.Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return cheque.Record{}, err
	}
	return s.Update(ctx, id, cheque.Edit{Name: rec.Name, Phone: rec.Phone, Amount: rec.Amount, Status: status})
}

// Delete removes a record and frees its cheque number. Deleting a missing
// record is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	deleted := false
	err := s.update(ctx, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCheques)
		raw := b.Get([]byte(id))
		if raw == nil {
			return nil
		}
		var rec cheque.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if err := tx.Bucket(bucketChequeIndex).Delete([]byte(rec.ChequeID)); err != nil {
			return err
		}
		deleted = true
		return b.Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if deleted {
		s.hub.publish(Change{Topic: TopicCheques, Op: "delete", ID: id})
	}
	return nil
}

// RecordVerification appends a verification. The id and VerifiedAt are
// assigned by the store.
func (s *Store) RecordVerification(ctx context.Context, v cheque.Verification) (cheque.Verification, error) {
	err := s.update(ctx, func(tx *bolt.Tx) error {
		v.ID = s.newID()
		v.VerifiedAt = s.now()
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketVerifications).Put([]byte(v.ID), data)
	})
	if err != nil {
		return cheque.Verification{}, fmt.Errorf("store: record verification: %w", err)
	}
	s.hub.publish(Change{Topic: TopicVerifications, Op: "create", ID: v.ID})
	return v, nil
}

// ListVerifications returns the log, newest first.
func (s *Store) ListVerifications(ctx context.Context) ([]cheque.Verification, error) {
	items := []cheque.Verification{}
	err := s.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVerifications).ForEach(func(_, v []byte) error {
			var item cheque.Verification
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list verifications: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].VerifiedAt.After(items[j].VerifiedAt)
	})
	return items, nil
}

// CountVerifications returns the number of logged verifications.
func (s *Store) CountVerifications(ctx context.Context) (int, error) {
	n := 0
	err := s.view(ctx, func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketVerifications).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store: count verifications: %w", err)
	}
	return n, nil
}

// ClearVerifications deletes the whole log in one transaction and returns how
// many entries were removed.
func (s *Store) ClearVerifications(ctx context.Context) (int, error) {
	removed := 0
	err := s.update(ctx, func(tx *bolt.Tx) error {
		removed = tx.Bucket(bucketVerifications).Stats().KeyN
		if removed == 0 {
			return nil
		}
		if err := tx.DeleteBucket(bucketVerifications); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketVerifications)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("store: clear verifications: %w", err)
	}
	if removed > 0 {
		s.hub.publish(Change{Topic: TopicVerifications, Op: "clear"})
	}
	return removed, nil
}
