package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/receipt"
)

func newTransactions(buf *bytes.Buffer) (TransactionService, *stubTransactions) {
	store := &stubTransactions{prices: map[string]decimal.Decimal{teaID: d(25000), cookieID: d(10000)}}
	return TransactionService{
		Transactions: store,
		Documents: Documents{
			Printer:   &receipt.WriterPrinter{W: buf},
			Template:  receipt.Default(),
			StoreName: "Toko Maju",
		},
		Logger: discardLogger(),
	}, store
}

func TestCreateUsesServerPricing(t *testing.T) {
	svc, _ := newTransactions(&bytes.Buffer{})

	tx, err := svc.Create(context.Background(), "u1", api.CreateTransactionRequest{
		Items:         []domain.TransactionItem{{ProductID: teaID, Quantity: 2, Price: d(1)}},
		PaymentMethod: domain.PaymentCash,
		DiscountData: &api.DiscountData{
			DiscountType:  domain.DiscountPercentage,
			DiscountValue: d(10),
			PaymentAmount: d(50000),
			// Client-side totals are ignored.
			DiscountedTotal: d(1),
		},
	})
	require.NoError(t, err)
	assert.True(t, tx.Total.Equal(d(50000)))
	assert.True(t, tx.DiscountedTotal.Equal(d(45000)))
	assert.True(t, tx.Change.Equal(d(5000)))
	assert.Equal(t, "u1", tx.UserID)
}

func TestCreateRejectsShortCash(t *testing.T) {
	svc, store := newTransactions(&bytes.Buffer{})

	_, err := svc.Create(context.Background(), "u1", api.CreateTransactionRequest{
		Items:         []domain.TransactionItem{{ProductID: teaID, Quantity: 1}},
		PaymentMethod: domain.PaymentCash,
		DiscountData:  &api.DiscountData{PaymentAmount: d(20000)},
	})
	assert.ErrorIs(t, err, api.ErrInvalidRequest)
	assert.Empty(t, store.stored)
}

func TestPricerNonCashTakesExactTotal(t *testing.T) {
	price := pricer(api.CreateTransactionRequest{
		PaymentMethod: domain.PaymentQRIS,
		DiscountData:  &api.DiscountData{DiscountType: domain.DiscountFixed, DiscountValue: d(5000)},
	})
	p, err := price(d(30000))
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountFixed, p.DiscountType)
	assert.True(t, p.DiscountedTotal.Equal(d(25000)))
	assert.True(t, p.PaymentAmount.Equal(d(25000)))
	assert.True(t, p.Change.IsZero())
}

func TestPricerWithoutDiscountData(t *testing.T) {
	p, err := pricer(api.CreateTransactionRequest{PaymentMethod: domain.PaymentCash})(d(12000))
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountPercentage, p.DiscountType)
	assert.True(t, p.DiscountedTotal.Equal(d(12000)))
	assert.True(t, p.PaymentAmount.Equal(d(12000)))
	assert.True(t, p.Change.IsZero())
}

func TestCreateValidatesRequest(t *testing.T) {
	svc, _ := newTransactions(&bytes.Buffer{})
	_, err := svc.Create(context.Background(), "u1", api.CreateTransactionRequest{PaymentMethod: domain.PaymentCash})
	assert.ErrorIs(t, err, api.ErrInvalidRequest)
}

func TestExport(t *testing.T) {
	svc, store := newTransactions(&bytes.Buffer{})
	store.stored = []domain.Transaction{{
		ID: "tx-9", DiscountedTotal: d(8000), PaymentMethod: domain.PaymentCash,
		Items: []domain.TransactionItem{{Name: "Coca Cola", Quantity: 1}},
	}}
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	out, err := svc.Export(context.Background(), "", now)
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", out.ContentType)
	assert.Contains(t, string(out.Data), "tx-9")

	_, err = svc.Export(context.Background(), "pdf", now)
	assert.ErrorIs(t, err, api.ErrInvalidRequest)
}

func TestPrintReceiptFallsBackToStoreName(t *testing.T) {
	var buf bytes.Buffer
	svc, _ := newTransactions(&buf)

	err := svc.PrintReceipt(context.Background(), api.PrintReceiptRequest{
		Transaction: domain.Transaction{ID: "tx-1", Total: d(8000), DiscountedTotal: d(8000), PaymentMethod: domain.PaymentCash},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Toko Maju")
	assert.Contains(t, buf.String(), "tx-1")

	err = svc.PrintReceipt(context.Background(), api.PrintReceiptRequest{})
	assert.ErrorIs(t, err, api.ErrInvalidRequest)
}
