package dupcheck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptyCode = "BSF--"

type fakeLookup struct {
	mu       sync.Mutex
	existing map[string]bool
	err      error
	calls    []string
}

func (f *fakeLookup) ExistsByChequeID(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, code)
	if f.err != nil {
		return false, f.err
	}
	return f.existing[code], nil
}

type recordingNotifier struct {
	warnings []string
}

func (r *recordingNotifier) Success(string, ...any) {}
func (r *recordingNotifier) Info(string, ...any)    {}
func (r *recordingNotifier) Error(string, ...any)   {}
func (r *recordingNotifier) Warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

type recordingLogger struct {
	errs []error
}

func (r *recordingLogger) LogError(_, _ string, _ any, err error) {
	r.errs = append(r.errs, err)
}

func newTestChecker(lookup Lookup) (*Checker, *recordingNotifier, *recordingLogger) {
	notes := &recordingNotifier{}
	logs := &recordingLogger{}
	c := New(lookup, emptyCode,
		WithDelay(time.Millisecond),
		WithAlert(time.Millisecond),
		WithNotifier(notes),
		WithLogger(logs))
	return c, notes, logs
}

// settle feeds cmd results back into the checker until nothing is left.
func settle(t *testing.T, c *Checker, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		if i > 10 {
			t.Fatalf("checker did not settle")
		}
		cmd = c.Update(cmd())
	}
}

func TestEmptySentinelSkipsLookup(t *testing.T) {
	lookup := &fakeLookup{}
	c, _, _ := newTestChecker(lookup)

	assert.Nil(t, c.Observe(emptyCode))
	assert.False(t, c.Pending())
	assert.Empty(t, lookup.calls)
	assert.False(t, c.Locked())
}

func TestDuplicateLocksAndPulses(t *testing.T) {
	code := "BSF123-456789-0123"
	lookup := &fakeLookup{existing: map[string]bool{code: true}}
	c, notes, _ := newTestChecker(lookup)

	tick := c.Observe(code)
	require.NotNil(t, tick)
	assert.True(t, c.Pending())

	dispatch := c.Update(tick())
	require.NotNil(t, dispatch)
	assert.False(t, c.Pending())

	expire := c.Update(dispatch())
	require.NotNil(t, expire)
	assert.True(t, c.Locked())
	assert.True(t, c.Alert())
	assert.Equal(t, []string{"Cheque BSF123-456789-0123 already exists!"}, notes.warnings)
	assert.Equal(t, []string{code}, lookup.calls)

	assert.Nil(t, c.Update(expire()))
	assert.False(t, c.Alert())
	assert.True(t, c.Locked(), "lock outlives the alert pulse")
}

func TestUniqueCodeUnlocks(t *testing.T) {
	lookup := &fakeLookup{existing: map[string]bool{}}
	c, notes, _ := newTestChecker(lookup)
	c.locked = true

	settle(t, c, c.Observe("BSF111-"))
	assert.False(t, c.Locked())
	assert.Empty(t, notes.warnings)
}

func TestSupersededTimerIsInert(t *testing.T) {
	lookup := &fakeLookup{}
	c, _, _ := newTestChecker(lookup)

	first := c.Observe("BSF1--")
	second := c.Observe("BSF12--")

	assert.Nil(t, c.Update(first()), "old tick must not dispatch")
	settle(t, c, second)
	assert.Equal(t, []string{"BSF12--"}, lookup.calls)
}

func TestCancelDisarmsPendingTimer(t *testing.T) {
	lookup := &fakeLookup{}
	c, _, _ := newTestChecker(lookup)

	tick := c.Observe("BSF1--")
	c.Cancel()
	assert.False(t, c.Pending())
	assert.Nil(t, c.Update(tick()))
	assert.Empty(t, lookup.calls)
}

func TestStaleResultIsDiscarded(t *testing.T) {
	older := "BSF123-456789-0123"
	newer := "BSF123-456789-0124"
	lookup := &fakeLookup{existing: map[string]bool{older: true}}
	c, notes, _ := newTestChecker(lookup)

	firstDispatch := c.Update(c.Observe(older)())
	require.NotNil(t, firstDispatch)
	secondDispatch := c.Update(c.Observe(newer)())
	require.NotNil(t, secondDispatch)

	assert.Nil(t, c.Update(secondDispatch()))
	assert.False(t, c.Locked())

	// The older lookup finishes last and reports a duplicate.
	assert.Nil(t, c.Update(firstDispatch()))
	assert.False(t, c.Locked())
	assert.Empty(t, notes.warnings)
}

func TestResultForAnotherCodeIsDiscarded(t *testing.T) {
	code := "BSF123-456789-0123"
	c, _, _ := newTestChecker(&fakeLookup{existing: map[string]bool{code: true}})

	dispatch := c.Update(c.Observe(code)())
	require.NotNil(t, dispatch)
	// The user edits again but the new timer has not fired yet.
	c.Observe("BSF123-456789-012")

	assert.Nil(t, c.Update(dispatch()))
	assert.False(t, c.Locked())
}

func TestLookupFailureKeepsLockState(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("store unreachable")}
	c, notes, logs := newTestChecker(lookup)
	c.locked = true

	settle(t, c, c.Observe("BSF123-456789-0123"))
	assert.True(t, c.Locked())
	assert.Empty(t, notes.warnings)
	require.Len(t, logs.errs, 1)

	c.locked = false
	settle(t, c, c.Observe("BSF123-456789-0124"))
	assert.False(t, c.Locked())
}

func TestResetInvalidatesInFlightLookup(t *testing.T) {
	code := "BSF123-456789-0123"
	c, _, _ := newTestChecker(&fakeLookup{existing: map[string]bool{code: true}})

	dispatch := c.Update(c.Observe(code)())
	require.NotNil(t, dispatch)
	c.Reset()

	assert.Nil(t, c.Update(dispatch()))
	assert.False(t, c.Locked())
	assert.False(t, c.Alert())
}

func TestUnlockIsOptimistic(t *testing.T) {
	code := "BSF123-456789-0123"
	c, _, _ := newTestChecker(&fakeLookup{existing: map[string]bool{code: true}})
	settle(t, c, c.Observe(code))
	require.True(t, c.Locked())

	c.Unlock()
	assert.False(t, c.Locked())
}
