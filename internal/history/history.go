// Package history filters and totals past transactions for the history view
// and the transaction export.
package history

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tillpos-backend/internal/domain"
)

type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Filter selects transactions. Zero values match everything.
type Filter struct {
	// Search matches the transaction id or any item name, case-insensitively.
	Search string
	Period Period
	Method domain.PaymentMethod
}

// Match reports whether tx passes f at time now. "today" means the same
// calendar day in now's location; "week" and "month" are the last 7 and 30
// days.
func (f Filter) Match(tx domain.Transaction, now time.Time) bool {
	if f.Method != "" && f.Method != "all" && tx.PaymentMethod != f.Method {
		return false
	}
	if !f.inPeriod(tx.Timestamp, now) {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" || strings.Contains(strings.ToLower(tx.ID), term) {
		return true
	}
	for _, it := range tx.Items {
		if strings.Contains(strings.ToLower(it.Name), term) {
			return true
		}
	}
	return false
}

func (f Filter) inPeriod(ts, now time.Time) bool {
	switch f.Period {
	case PeriodToday:
		ts = ts.In(now.Location())
		y1, m1, d1 := ts.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case PeriodWeek:
		return !ts.Before(now.Add(-7 * 24 * time.Hour))
	case PeriodMonth:
		return !ts.Before(now.Add(-30 * 24 * time.Hour))
	default:
		return true
	}
}

// Apply returns the transactions matching f, keeping their order.
func Apply(txs []domain.Transaction, f Filter, now time.Time) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx, now) {
			out = append(out, tx)
		}
	}
	return out
}

type Summary struct {
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
}

// Summarize totals the amount actually charged, which is the discounted total.
func Summarize(txs []domain.Transaction) Summary {
	s := Summary{Revenue: decimal.Zero, Average: decimal.Zero, Count: len(txs)}
	for _, tx := range txs {
		s.Revenue = s.Revenue.Add(tx.DiscountedTotal)
	}
	if s.Count > 0 {
		s.Average = s.Revenue.Div(decimal.NewFromInt(int64(s.Count)))
	}
	return s
}

// ParsePeriod maps user input to a Period. Unknown values select all.
func ParsePeriod(s string) Period {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return p
	}
	return PeriodAll
}
