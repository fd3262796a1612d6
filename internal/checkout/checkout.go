// Package checkout turns a cart into a recorded sale.
package checkout

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/apperr"
	"tillpos-backend/internal/cart"
	"tillpos-backend/internal/domain"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrBusy                = errors.New("a payment is already being processed")
	ErrInsufficientPayment = errors.New("payment amount is insufficient")
	ErrUnknownMethod       = errors.New("unknown payment method")
	ErrReceiptNotPrinted   = errors.New("transaction recorded but receipt was not printed")
)

// Backend is the part of the command surface a checkout needs.
type Backend interface {
	CreateTransaction(ctx context.Context, req api.CreateTransactionRequest) (*api.CreateTransactionResponse, error)
	PrintReceipt(ctx context.Context, req api.PrintReceiptRequest) error
}

// Refresher reloads the product snapshot after stock changed on the backend.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Store struct {
	Name    string
	Address string
}

type Request struct {
	Method        domain.PaymentMethod
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
	PaymentAmount decimal.Decimal
}

type Result struct {
	TransactionID string
	Transaction   domain.Transaction
	Breakdown     Breakdown
	// RefreshErr is set when the sale went through but the product list
	// could not be reloaded.
	RefreshErr error
}

type Checkout struct {
	Cart    *cart.Cart
	Backend Backend
	Catalog Refresher
	Store   Store

	processing atomic.Bool
}

// Quote computes the breakdown for the current cart without submitting anything.
func (c *Checkout) Quote(req Request) Breakdown {
	return Compute(c.Cart.Total(), req.DiscountType, req.DiscountValue, req.PaymentAmount)
}

// Processing reports whether a checkout is in flight.
func (c *Checkout) Processing() bool { return c.processing.Load() }

// Process records the sale, prints its receipt, then clears the cart and
// reloads products, strictly in that order. When the transaction cannot be
// created the cart is left untouched. A failed receipt print still clears the
// cart because the sale is already durable; the returned error then wraps
// ErrReceiptNotPrinted alongside a non-nil Result.
func (c *Checkout) Process(ctx context.Context, req Request) (*Result, error) {
	const op = "checkout.Process"
	if !req.Method.Valid() {
		return nil, apperr.Invalid(op, ErrUnknownMethod, string(req.Method))
	}
	if c.Cart.IsEmpty() {
		return nil, apperr.Invalid(op, ErrEmptyCart, "")
	}
	if !c.processing.CompareAndSwap(false, true) {
		return nil, apperr.Invalid(op, ErrBusy, "")
	}
	defer c.processing.Store(false)

	b := c.Quote(req)
	if !b.CanSettle(req.Method) {
		return nil, apperr.Invalid(op, ErrInsufficientPayment, "short by "+b.Shortage.String())
	}
	b = b.ForMethod(req.Method)

	resp, err := c.Backend.CreateTransaction(ctx, api.CreateTransactionRequest{
		Items:         c.Cart.Items(),
		PaymentMethod: req.Method,
		DiscountData: &api.DiscountData{
			DiscountType:    b.DiscountType,
			DiscountValue:   b.DiscountValue,
			DiscountedTotal: b.DiscountedTotal,
			PaymentAmount:   b.PaymentAmount,
			Change:          b.Change,
		},
	})
	if err != nil {
		return nil, apperr.Wrap(op, apperr.Backend, err)
	}

	tx := resp.Transaction
	if tx.ID == "" {
		tx.ID = resp.ID
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now()
	}
	res := &Result{TransactionID: resp.ID, Transaction: tx, Breakdown: b}

	printErr := c.Backend.PrintReceipt(ctx, api.PrintReceiptRequest{
		Transaction:  tx,
		StoreName:    c.Store.Name,
		StoreAddress: c.Store.Address,
	})

	c.Cart.Clear()
	if c.Catalog != nil {
		res.RefreshErr = c.Catalog.Refresh(ctx)
	}

	if printErr != nil {
		return res, &apperr.Error{Kind: apperr.Backend, Op: op, Err: errors.Join(ErrReceiptNotPrinted, printErr)}
	}
	return res, nil
}
