// Package dupcheck decides whether the code being typed already belongs to a
// stored cheque. Changes are debounced, lookups run off the update loop, and
// only the answer for the latest lookup of the live code may move the lock.
package dupcheck

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/chequedesk/internal/metrics"
	"github.com/kingrea/chequedesk/internal/notify"
)

const (
	DefaultDelay         = 400 * time.Millisecond
	DefaultAlert         = 600 * time.Millisecond
	DefaultLookupTimeout = 5 * time.Second
)

// Lookup answers exact-match existence queries.
type Lookup interface {
	ExistsByChequeID(ctx context.Context, code string) (bool, error)
}

// ErrorLogger matches logbook.Logbook.LogError.
type ErrorLogger interface {
	LogError(component, operation string, data any, err error)
}

type debounceMsg struct {
	tag  int
	code string
}

// LookupResult carries a finished lookup back to the update loop.
type LookupResult struct {
	Seq    int
	Code   string
	Exists bool
	Err    error
}

type alertExpiredMsg struct {
	tag int
}

// Checker owns the lock and alert flags.
type Checker struct {
	lookup  Lookup
	notices notify.Notifier
	log     ErrorLogger
	metrics *metrics.Metrics

	delay    time.Duration
	alertFor time.Duration
	timeout  time.Duration
	empty    string

	live     string
	timerTag int
	armed    bool
	seq      int
	alertTag int

	locked bool
	alert  bool
}

// Option customizes a Checker.
type Option func(*Checker)

func WithDelay(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.delay = d
		}
	}
}

func WithAlert(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.alertFor = d
		}
	}
}

func WithLookupTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(c *Checker) {
		if n != nil {
			c.notices = n
		}
	}
}

func WithLogger(l ErrorLogger) Option {
	return func(c *Checker) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Checker) { c.metrics = m }
}

// New returns a Checker. emptyCode is the formatted value of an untouched
// input; it never triggers a lookup.
func New(lookup Lookup, emptyCode string, opts ...Option) *Checker {
	c := &Checker{
		lookup:   lookup,
		notices:  notify.Discard,
		delay:    DefaultDelay,
		alertFor: DefaultAlert,
		timeout:  DefaultLookupTimeout,
		empty:    emptyCode,
		live:     emptyCode,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Locked reports whether the live code is a known duplicate.
func (c *Checker) Locked() bool { return c.locked }

// Alert reports whether the short duplicate pulse is showing.
func (c *Checker) Alert() bool { return c.alert }

// Pending reports whether a debounce timer is armed.
func (c *Checker) Pending() bool { return c.armed }

// Delay returns the debounce quiet period.
func (c *Checker) Delay() time.Duration { return c.delay }

// Observe records the live code. Any pending timer is superseded and, unless
// the code is the empty sentinel, a new one is armed.
func (c *Checker) Observe(code string) tea.Cmd {
	c.Cancel()
	c.live = code
	if code == c.empty {
		return nil
	}
	c.armed = true
	tag := c.timerTag
	return tea.Tick(c.delay, func(time.Time) tea.Msg {
		return debounceMsg{tag: tag, code: code}
	})
}

// Cancel disarms the pending timer. A tick that was already scheduled arrives
// later and is ignored.
func (c *Checker) Cancel() {
	c.timerTag++
	c.armed = false
}

// Unlock clears the lock optimistically after a digit edit.
func (c *Checker) Unlock() {
	c.locked = false
}

// Reset returns the checker to its initial state and invalidates every
// in-flight lookup.
func (c *Checker) Reset() {
	c.Cancel()
	c.seq++
	c.alertTag++
	c.live = c.empty
	c.locked = false
	c.alert = false
}

// Update consumes the checker's own messages and ignores everything else.
func (c *Checker) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case debounceMsg:
		if msg.tag != c.timerTag || !c.armed || msg.code != c.live {
			return nil
		}
		c.armed = false
		return c.dispatch(msg.code)
	case LookupResult:
		return c.apply(msg)
	case alertExpiredMsg:
		if msg.tag == c.alertTag {
			c.alert = false
		}
	}
	return nil
}

func (c *Checker) dispatch(code string) tea.Cmd {
	c.seq++
	seq := c.seq
	lookup := c.lookup
	timeout := c.timeout
	return func() tea.Msg {
		if lookup == nil {
			return LookupResult{Seq: seq, Code: code}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		exists, err := lookup.ExistsByChequeID(ctx, code)
		return LookupResult{Seq: seq, Code: code, Exists: exists, Err: err}
	}
}

func (c *Checker) apply(res LookupResult) tea.Cmd {
	if res.Seq != c.seq || res.Code != c.live {
		c.metrics.Lookup(metrics.LookupStale)
		return nil
	}
	if res.Err != nil {
		c.metrics.Lookup(metrics.LookupFailed)
		if c.log != nil {
			c.log.LogError("dupcheck", "lookup", map[string]any{"chequeId": res.Code}, res.Err)
		}
		return nil
	}
	if !res.Exists {
		c.metrics.Lookup(metrics.LookupUnique)
		c.locked = false
		return nil
	}
	c.metrics.Lookup(metrics.LookupDuplicate)
	c.locked = true
	c.alert = true
	c.alertTag++
	tag := c.alertTag
	c.notices.Warn("Cheque %s already exists!", res.Code)
	return tea.Tick(c.alertFor, func(time.Time) tea.Msg {
		return alertExpiredMsg{tag: tag}
	})
}
