package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/checkout"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/export"
	"tillpos-backend/internal/metrics"
	"tillpos-backend/internal/ports"
	"tillpos-backend/internal/receipt"
	"tillpos-backend/internal/repository"
)

// DefaultListLimit caps transaction and report listings.
const DefaultListLimit = 500

type TransactionService struct {
	Transactions ports.TransactionStore
	Documents    Documents
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Create records a sale for userID. Prices and totals are recomputed from the
// stored products; the client's figures only carry the discount and the
// tendered amount.
func (s TransactionService) Create(ctx context.Context, userID string, req api.CreateTransactionRequest) (*domain.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	in := repository.CreateTransactionInput{
		UserID:        userID,
		PaymentMethod: req.PaymentMethod,
		Items:         make([]repository.CreateTransactionItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, repository.CreateTransactionItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Discount:  it.Discount,
		})
	}

	tx, err := s.Transactions.Create(ctx, in, pricer(req))
	if err != nil {
		return nil, err
	}
	s.Metrics.RecordSale(string(tx.PaymentMethod), tx.DiscountedTotal)
	s.Logger.Info("transaction created", "id", tx.ID, "method", tx.PaymentMethod, "total", tx.DiscountedTotal.String())
	return tx, nil
}

// pricer settles the request's discount against the authoritative total.
// Without discount data the sale is taken at exactly its total.
func pricer(req api.CreateTransactionRequest) repository.PriceFunc {
	return func(total decimal.Decimal) (repository.Pricing, error) {
		discountType := domain.DiscountPercentage
		discountValue := decimal.Zero
		payment := total
		if d := req.DiscountData; d != nil {
			if d.DiscountType != "" {
				discountType = d.DiscountType
			}
			discountValue = d.DiscountValue
			payment = d.PaymentAmount
		}

		b := checkout.Compute(total, discountType, discountValue, payment).ForMethod(req.PaymentMethod)
		if !b.CanSettle(req.PaymentMethod) {
			return repository.Pricing{}, fmt.Errorf("%w: payment %s is less than total %s",
				api.ErrInvalidRequest, b.PaymentAmount.String(), b.DiscountedTotal.String())
		}
		return repository.Pricing{
			DiscountType:    b.DiscountType,
			DiscountValue:   b.DiscountValue,
			DiscountedTotal: b.DiscountedTotal,
			PaymentAmount:   b.PaymentAmount,
			Change:          b.Change,
		}, nil
	}
}

func (s TransactionService) List(ctx context.Context) ([]domain.Transaction, error) {
	return s.Transactions.List(ctx, DefaultListLimit)
}

// Export is a rendered transaction history file.
type Export struct {
	Data        []byte
	ContentType string
	Filename    string
}

func (s TransactionService) Export(ctx context.Context, format string, now time.Time) (*Export, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrInvalidRequest, err)
	}
	txs, err := s.Transactions.List(ctx, DefaultListLimit)
	if err != nil {
		return nil, err
	}
	data, err := export.Transactions(f, txs)
	if err != nil {
		return nil, err
	}
	return &Export{Data: data, ContentType: export.ContentType(f), Filename: export.Filename(f, now)}, nil
}

func (s TransactionService) PrintReceipt(ctx context.Context, req api.PrintReceiptRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	name, address := s.Documents.store(req.StoreName, req.StoreAddress)
	doc := receipt.RenderReceipt(s.Documents.Template, name, address, req.Transaction)
	if err := s.Documents.Printer.Print(ctx, doc); err != nil {
		return fmt.Errorf("print receipt %s: %w", req.Transaction.ID, err)
	}
	return nil
}
