package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"tillpos-backend/internal/db"
	"tillpos-backend/internal/domain"
)

type TransactionRepository struct {
	DB *db.Postgres
}

type CreateTransactionInput struct {
	UserID        string
	PaymentMethod domain.PaymentMethod
	Items         []CreateTransactionItem
}

type CreateTransactionItem struct {
	ProductID string
	Quantity  int
	Discount  decimal.Decimal
}

// Pricing is the settled cart-level money of a sale.
type Pricing struct {
	DiscountType    domain.DiscountType
	DiscountValue   decimal.Decimal
	DiscountedTotal decimal.Decimal
	PaymentAmount   decimal.Decimal
	Change          decimal.Decimal
}

// PriceFunc settles the cart-level discount and payment for the authoritative
// line total. Returning an error aborts the sale.
type PriceFunc func(total decimal.Decimal) (Pricing, error)

// Create records a sale in one database transaction. Products are locked and
// their stock re-checked, then decremented. Cash sales made during an open
// shift also append a sale movement and raise the shift's expected cash.
func (r TransactionRepository) Create(ctx context.Context, in CreateTransactionInput, price PriceFunc) (*domain.Transaction, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	products, err := lockProducts(ctx, tx, in.Items)
	if err != nil {
		return nil, err
	}

	items := make([]domain.TransactionItem, 0, len(in.Items))
	total := decimal.Zero
	for _, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrNotFound)
		}
		if p.Stock < it.Quantity {
			return nil, fmt.Errorf("%s: only %d left: %w", p.Name, p.Stock, domain.ErrInsufficientStock)
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		discount := decimal.Min(decimal.Max(it.Discount, decimal.Zero), subtotal)
		items = append(items, domain.TransactionItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			Price:     p.Price,
			Discount:  discount,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal.Sub(discount))
	}

	pricing, err := price(total)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $1 WHERE id=$2`, it.Quantity, it.ProductID); err != nil {
			return nil, err
		}
	}

	var shiftID *string
	var sid string
	err = tx.QueryRow(ctx, `
		SELECT id FROM cash_shifts
		WHERE user_id=$1 AND status='open'
		FOR UPDATE
	`, in.UserID).Scan(&sid)
	switch {
	case err == nil:
		shiftID = &sid
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	out := domain.Transaction{
		ID:              uuid.NewString(),
		Items:           items,
		Total:           total,
		DiscountType:    pricing.DiscountType,
		DiscountValue:   pricing.DiscountValue,
		DiscountedTotal: pricing.DiscountedTotal,
		PaymentAmount:   pricing.PaymentAmount,
		Change:          pricing.Change,
		PaymentMethod:   in.PaymentMethod,
		ShiftID:         shiftID,
		UserID:          in.UserID,
		Timestamp:       time.Now().UTC(),
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions
		(id, total, discount_type, discount_value, discounted_total, payment_amount, change,
		 payment_method, shift_id, user_id, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, out.ID, out.Total, nullableDiscountType(out.DiscountType), out.DiscountValue, out.DiscountedTotal,
		out.PaymentAmount, out.Change, out.PaymentMethod, out.ShiftID, out.UserID, out.Timestamp)
	if err != nil {
		return nil, err
	}

	for i, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO transaction_items (id, transaction_id, product_id, name, quantity, price, discount, subtotal, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, uuid.NewString(), out.ID, it.ProductID, it.Name, it.Quantity, it.Price, it.Discount, it.Subtotal, i)
		if err != nil {
			return nil, err
		}
	}

	if shiftID != nil && in.PaymentMethod == domain.PaymentCash {
		reason := "Sale " + out.ID
		err := insertMovement(ctx, tx, domain.CashMovement{
			ShiftID:       *shiftID,
			TransactionID: &out.ID,
			MovementType:  domain.MovementSale,
			Amount:        out.DiscountedTotal,
			Reason:        &reason,
			UserID:        in.UserID,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

// lockProducts takes row locks in id order so concurrent sales of the same
// products cannot deadlock.
func lockProducts(ctx context.Context, tx pgx.Tx, items []CreateTransactionItem) (map[string]domain.Product, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	sort.Strings(ids)

	rows, err := tx.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

func nullableDiscountType(t domain.DiscountType) *string {
	if t == "" {
		return nil
	}
	s := string(t)
	return &s
}

// List returns the most recent transactions with their items.
func (r TransactionRepository) List(ctx context.Context, limit int) ([]domain.Transaction, error) {
	return listTransactions(ctx, r.DB.Pool, `ORDER BY timestamp DESC LIMIT $1`, limit)
}

// ListByShift returns a shift's transactions in the order they were made.
func (r TransactionRepository) ListByShift(ctx context.Context, shiftID string) ([]domain.Transaction, error) {
	return listTransactions(ctx, r.DB.Pool, `WHERE shift_id=$1 ORDER BY timestamp ASC`, shiftID)
}

func listTransactions(ctx context.Context, q querier, clause string, args ...any) ([]domain.Transaction, error) {
	rows, err := q.Query(ctx, `
		SELECT id, total, discount_type, discount_value, discounted_total, payment_amount, change,
		       payment_method, shift_id, user_id, timestamp
		FROM transactions
		`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	var ids []string
	for rows.Next() {
		var t domain.Transaction
		var discountType pgtype.Text
		var method string
		if err := rows.Scan(
			&t.ID, &t.Total, &discountType, &t.DiscountValue, &t.DiscountedTotal, &t.PaymentAmount, &t.Change,
			&method, &t.ShiftID, &t.UserID, &t.Timestamp,
		); err != nil {
			return nil, err
		}
		if discountType.Valid {
			t.DiscountType = domain.DiscountType(discountType.String)
		}
		t.PaymentMethod = domain.PaymentMethod(method)
		t.Items = []domain.TransactionItem{}
		ids = append(ids, t.ID)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return txs, nil
	}

	itemRows, err := q.Query(ctx, `
		SELECT transaction_id, product_id, name, quantity, price, discount, subtotal
		FROM transaction_items
		WHERE transaction_id = ANY($1::uuid[])
		ORDER BY transaction_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	itemsByTx := make(map[string][]domain.TransactionItem)
	for itemRows.Next() {
		var txID string
		var it domain.TransactionItem
		if err := itemRows.Scan(&txID, &it.ProductID, &it.Name, &it.Quantity, &it.Price, &it.Discount, &it.Subtotal); err != nil {
			return nil, err
		}
		itemsByTx[txID] = append(itemsByTx[txID], it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for i := range txs {
		if items, ok := itemsByTx[txs[i].ID]; ok {
			txs[i].Items = items
		}
	}
	return txs, nil
}
