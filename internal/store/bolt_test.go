package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/chequedesk/internal/cheque"
	"github.com/kingrea/chequedesk/internal/store"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (*store.Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	seq := 0
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"),
		store.WithClock(clock.Now),
		store.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%02d", seq)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func sampleRecord(code string) cheque.Record {
	return cheque.Record{
		ChequeID:  code,
		Name:      "Aung Aung",
		Phone:     "09 123 4567",
		Amount:    "150000",
		Status:    cheque.StatusValid,
		CreatedBy: "clerk@bsf.test",
	}
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("BSF123-456789-0123")
	rec.CreatedAt = time.Unix(1, 0)
	created, err := s.Create(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "id-01", created.ID)
	assert.True(t, created.CreatedAt.Equal(clock.now), "createdAt must come from the store clock")
	assert.True(t, created.UpdatedAt.Equal(clock.now))

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateRejectsDuplicateChequeID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, sampleRecord("BSF123-456789-0123"))
	require.NoError(t, err)
	_, err = s.Create(ctx, sampleRecord("BSF123-456789-0123"))
	require.ErrorIs(t, err, store.ErrDuplicateChequeID)

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestExistsByChequeIDIsExactMatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, sampleRecord("BSF123-456789-0123"))
	require.NoError(t, err)

	exists, err := s.ExistsByChequeID(ctx, "BSF123-456789-0123")
	require.NoError(t, err)
	assert.True(t, exists)

	for _, other := range []string{"BSF123-456789-012", "BSF--", "bsf123-456789-0123"} {
		exists, err := s.ExistsByChequeID(ctx, other)
		require.NoError(t, err)
		assert.False(t, exists, other)
	}
}

func TestListIsNewestFirst(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, sampleRecord(fmt.Sprintf("BSF100-000000-000%d", i)))
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}
	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "BSF100-000000-0002", items[0].ChequeID)
	assert.Equal(t, "BSF100-000000-0000", items[2].ChequeID)
}

func TestUpdateKeepsChequeIDAndRestampsUpdatedAt(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, sampleRecord("BSF123-456789-0123"))
	require.NoError(t, err)

	clock.Advance(time.Hour)
	updated, err := s.Update(ctx, created.ID, cheque.Edit{Name: "Su Su", Phone: created.Phone, Amount: "200", Status: cheque.StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, created.ChequeID, updated.ChequeID)
	assert.Equal(t, "Su Su", updated.Name)
	assert.True(t, updated.UpdatedAt.Equal(clock.now))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	clock.Advance(time.Hour)
	same, err := s.Update(ctx, created.ID, cheque.Edit{Name: "Su Su", Phone: created.Phone, Amount: "200", Status: cheque.StatusPaid})
	require.NoError(t, err)
	assert.True(t, same.UpdatedAt.Equal(updated.UpdatedAt), "identical edit must not restamp")

	status, err := s.SetStatus(ctx, created.ID, cheque.StatusNotValid)
	require.NoError(t, err)
	assert.Equal(t, cheque.StatusNotValid, status.Status)

	_, err = s.Update(ctx, "missing", cheque.Edit{Status: cheque.StatusValid})
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Update(ctx, created.ID, cheque.Edit{Status: cheque.StatusNotFound})
	require.Error(t, err)
}

func TestDeleteFreesChequeID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, sampleRecord("BSF123-456789-0123"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	require.NoError(t, s.Delete(ctx, created.ID), "deleting twice is not an error")

	exists, err := s.ExistsByChequeID(ctx, created.ChequeID)
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = s.Create(ctx, sampleRecord("BSF123-456789-0123"))
	require.NoError(t, err)
}

func TestVerificationLog(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	for _, status := range []cheque.Status{cheque.StatusValid, cheque.StatusNotFound} {
		_, err := s.RecordVerification(ctx, cheque.Verification{ChequeID: "BSF1", VerifiedBy: "kiosk", Status: status})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	logs, err := s.ListVerifications(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, cheque.StatusNotFound, logs[0].Status)
	assert.False(t, logs[0].VerifiedAt.IsZero())

	n, err := s.CountVerifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	removed, err := s.ClearVerifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	n, err = s.CountVerifications(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	removed, err = s.ClearVerifications(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSubscribeReceivesCommittedChanges(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	sub := s.Subscribe()
	defer sub.Close()

	created, err := s.Create(ctx, sampleRecord("BSF123-456789-0123"))
	require.NoError(t, err)
	_, err = s.Create(ctx, sampleRecord("BSF123-456789-0123"))
	require.Error(t, err)
	_, err = s.RecordVerification(ctx, cheque.Verification{ChequeID: created.ChequeID, Status: cheque.StatusValid})
	require.NoError(t, err)

	first := <-sub.Changes
	assert.Equal(t, store.Change{Topic: store.TopicCheques, Op: "create", ID: created.ID}, first)
	second := <-sub.Changes
	assert.Equal(t, store.TopicVerifications, second.Topic)
	select {
	case extra := <-sub.Changes:
		t.Fatalf("unexpected change %+v", extra)
	default:
	}
}

func TestCanceledContextIsRejected(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ExistsByChequeID(ctx, "BSF1--")
	require.ErrorIs(t, err, context.Canceled)
}
