package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tillpos-backend/internal/domain"
)

func sample() []domain.Transaction {
	return []domain.Transaction{{
		ID:              "tx-1",
		Timestamp:       time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC),
		PaymentMethod:   domain.PaymentCash,
		Total:           decimal.NewFromInt(25000),
		DiscountedTotal: decimal.NewFromInt(22500),
		Items: []domain.TransactionItem{
			{Name: "Coca Cola", Quantity: 2},
			{Name: "Bread, white", Quantity: 1},
		},
	}}
}

func TestItemsSummary(t *testing.T) {
	assert.Equal(t, "Coca Cola x2; Bread, white x1", ItemsSummary(sample()[0].Items, "; "))
	assert.Equal(t, "", ItemsSummary(nil, ", "))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]string{"": FormatCSV, "CSV": FormatCSV, "xlsx": FormatXLSX, "excel": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestTransactionsCSV(t *testing.T) {
	data, err := Transactions(FormatCSV, sample())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Transaction ID", "Date", "Payment Method", "Total", "Items"}, rows[0])
	assert.Equal(t, []string{"tx-1", "2025-03-15T09:30:00Z", "cash", "22500", "Coca Cola x2; Bread, white x1"}, rows[1])
}

func TestTransactionsXLSX(t *testing.T) {
	data, err := Transactions(FormatXLSX, sample())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Transaction ID", rows[0][0])
	assert.Equal(t, "tx-1", rows[1][0])
	assert.Equal(t, "22500", rows[1][3])
}

func TestUnknownFormat(t *testing.T) {
	_, err := Transactions("pdf", sample())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
