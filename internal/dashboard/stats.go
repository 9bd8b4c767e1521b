// Package dashboard computes the KPI row shown above the cheque table and
// keeps the process-wide verification tally.
package dashboard

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kingrea/chequedesk/internal/cheque"
)

// Stats summarizes the stored cheques.
type Stats struct {
	Total       int
	Valid       int
	NotValid    int
	Paid        int
	Amount      decimal.Decimal
	Unparseable int
}

// Summarize counts records by status and sums their amounts. Amounts that do
// not parse are counted separately and left out of the sum.
func Summarize(records []cheque.Record) Stats {
	stats := Stats{Amount: decimal.Zero}
	for _, rec := range records {
		stats.Total++
		switch rec.Status {
		case cheque.StatusValid:
			stats.Valid++
		case cheque.StatusNotValid:
			stats.NotValid++
		case cheque.StatusPaid:
			stats.Paid++
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec.Amount), ",", ""))
		if err != nil {
			stats.Unparseable++
			continue
		}
		stats.Amount = stats.Amount.Add(amount)
	}
	return stats
}

// FormatAmount renders an amount with thousands separators.
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// Counter reports how many verifications have been logged.
type Counter interface {
	CountVerifications(ctx context.Context) (int, error)
}

// Tally is the verification count shared by every view. It starts at zero,
// is loaded explicitly from the store and is refreshed whenever the store
// reports a verification change.
type Tally struct {
	mu     sync.RWMutex
	source Counter
	count  int
	loaded bool
}

// NewTally returns a zero tally reading from source.
func NewTally(source Counter) *Tally {
	return &Tally{source: source}
}

// Refresh reloads the count. On error the previous value is kept.
func (t *Tally) Refresh(ctx context.Context) (int, error) {
	if t.source == nil {
		return t.Count(), nil
	}
	n, err := t.source.CountVerifications(ctx)
	if err != nil {
		return t.Count(), err
	}
	t.mu.Lock()
	t.count = n
	t.loaded = true
	t.mu.Unlock()
	return n, nil
}

// Count returns the last loaded value.
func (t *Tally) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Loaded reports whether Refresh has succeeded at least once.
func (t *Tally) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loaded
}
