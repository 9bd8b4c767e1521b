// Package notify is the transient message surface for the desk. Posting is
// fire-and-forget: callers never wait for a notice to be shown or dismissed.
package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// DefaultTTL is how long a notice stays visible.
const DefaultTTL = 2500 * time.Millisecond

const maxNotices = 5

// Notifier is the write-only side of the surface.
type Notifier interface {
	Success(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Notice is one message on the surface.
type Notice struct {
	Level     Level
	Text      string
	PostedAt  time.Time
	ExpiresAt time.Time
}

// Sink mirrors notices somewhere else, typically the logbook.
type Sink interface {
	Printf(format string, args ...any)
}

// Center keeps the most recent notices until they expire.
type Center struct {
	mu      sync.Mutex
	notices []Notice
	ttl     time.Duration
	clock   func() time.Time
	sink    Sink
}

// Option customizes a Center.
type Option func(*Center)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Center) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock lets tests control expiry.
func WithClock(clock func() time.Time) Option {
	return func(c *Center) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithSink mirrors every posted notice to s.
func WithSink(s Sink) Option {
	return func(c *Center) {
		if s != nil {
			c.sink = s
		}
	}
}

// NewCenter builds an empty surface.
func NewCenter(opts ...Option) *Center {
	c := &Center{ttl: DefaultTTL, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Post adds a notice with the default TTL.
func (c *Center) Post(level Level, text string) {
	c.PostFor(level, text, 0)
}

// PostFor adds a notice visible for ttl (the default when ttl <= 0).
func (c *Center) PostFor(level Level, text string, ttl time.Duration) {
	if c == nil {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.clock()
	c.mu.Lock()
	c.notices = append(c.notices, Notice{Level: level, Text: text, PostedAt: now, ExpiresAt: now.Add(ttl)})
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
	sink := c.sink
	c.mu.Unlock()
	if sink != nil {
		sink.Printf("notice %s: %s", level, text)
	}
}

// Active returns the unexpired notices, oldest first, and drops the rest.
func (c *Center) Active() []Notice {
	if c == nil {
		return nil
	}
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.notices[:0]
	for _, n := range c.notices {
		if now.Before(n.ExpiresAt) {
			live = append(live, n)
		}
	}
	c.notices = live
	out := make([]Notice, len(live))
	copy(out, live)
	return out
}

// Latest returns the newest unexpired notice.
func (c *Center) Latest() (Notice, bool) {
	active := c.Active()
	if len(active) == 0 {
		return Notice{}, false
	}
	return active[len(active)-1], true
}

func (c *Center) Success(format string, args ...any) {
	c.Post(LevelSuccess, fmt.Sprintf(format, args...))
}

func (c *Center) Info(format string, args ...any) {
	c.Post(LevelInfo, fmt.Sprintf(format, args...))
}

func (c *Center) Warn(format string, args ...any) {
	c.Post(LevelWarn, fmt.Sprintf(format, args...))
}

func (c *Center) Error(format string, args ...any) {
	c.Post(LevelError, fmt.Sprintf(format, args...))
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Success(string, ...any) {}
func (discard) Info(string, ...any)    {}
func (discard) Warn(string, ...any)    {}
func (discard) Error(string, ...any)   {}
