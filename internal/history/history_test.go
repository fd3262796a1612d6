package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos-backend/internal/domain"
)

var now = time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)

func tx(id string, ago time.Duration, method domain.PaymentMethod, amount int64, items ...string) domain.Transaction {
	t := domain.Transaction{
		ID:              id,
		Timestamp:       now.Add(-ago),
		PaymentMethod:   method,
		Total:           decimal.NewFromInt(amount),
		DiscountedTotal: decimal.NewFromInt(amount),
	}
	for _, name := range items {
		t.Items = append(t.Items, domain.TransactionItem{Name: name, Quantity: 1})
	}
	return t
}

func sample() []domain.Transaction {
	return []domain.Transaction{
		tx("TX-aaa", time.Hour, domain.PaymentCash, 10000, "Coca Cola"),
		tx("TX-bbb", 20*time.Hour, domain.PaymentCard, 20000, "Bread", "Milk"),
		tx("TX-ccc", 10*24*time.Hour, domain.PaymentCash, 30000, "Chips"),
		tx("TX-ddd", 40*24*time.Hour, domain.PaymentQRIS, 40000, "Bread"),
	}
}

func ids(txs []domain.Transaction) []string {
	out := []string{}
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "everything", filter: Filter{}, want: []string{"TX-aaa", "TX-bbb", "TX-ccc", "TX-ddd"}},
		{name: "today", filter: Filter{Period: PeriodToday}, want: []string{"TX-aaa"}},
		{name: "week", filter: Filter{Period: PeriodWeek}, want: []string{"TX-aaa", "TX-bbb"}},
		{name: "month", filter: Filter{Period: PeriodMonth}, want: []string{"TX-aaa", "TX-bbb", "TX-ccc"}},
		{name: "item name", filter: Filter{Search: "bread"}, want: []string{"TX-bbb", "TX-ddd"}},
		{name: "id", filter: Filter{Search: "ccc"}, want: []string{"TX-ccc"}},
		{name: "method", filter: Filter{Method: domain.PaymentCash}, want: []string{"TX-aaa", "TX-ccc"}},
		{name: "method all", filter: Filter{Method: "all"}, want: []string{"TX-aaa", "TX-bbb", "TX-ccc", "TX-ddd"}},
		{name: "combined", filter: Filter{Search: "bread", Period: PeriodMonth}, want: []string{"TX-bbb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(sample(), tt.filter, now)))
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample()[:3])
	assert.Equal(t, 3, s.Count)
	assert.True(t, decimal.NewFromInt(60000).Equal(s.Revenue))
	assert.True(t, decimal.NewFromInt(20000).Equal(s.Average))

	empty := Summarize(nil)
	require.Equal(t, 0, empty.Count)
	assert.True(t, empty.Average.IsZero())
}

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, PeriodWeek, ParsePeriod(" Week "))
	assert.Equal(t, PeriodAll, ParsePeriod("yesterday"))
}
