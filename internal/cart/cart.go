// Package cart holds the in-memory line items of one till session.
//
// Stock checks here run against a product snapshot that may be stale. They only
// keep the cashier from building an obviously impossible sale; the backend
// re-validates stock when the transaction is created.
package cart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"tillpos-backend/internal/apperr"
	"tillpos-backend/internal/domain"
)

var (
	ErrInsufficientStock = domain.ErrInsufficientStock
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrLineNotFound      = errors.New("product is not in the cart")
)

// StockError reports how many more units could still be added.
type StockError struct {
	ProductID string
	Stock     int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock: only %d items available", e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// Line is one product's entry in the cart.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
}

func (l *Line) recompute() {
	l.Subtotal = l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
	l.Discount = clamp(l.Discount, decimal.Zero, l.Subtotal)
	l.Total = l.Subtotal.Sub(l.Discount)
}

// Item converts the line into the payload shape stored with a transaction.
func (l Line) Item() domain.TransactionItem {
	return domain.TransactionItem{
		ProductID: l.ProductID,
		Name:      l.Name,
		Quantity:  l.Quantity,
		Price:     l.Price,
		Discount:  l.Discount,
		Subtotal:  l.Subtotal,
	}
}

// StockLookup resolves the current known stock of a product.
type StockLookup interface {
	Find(productID string) (domain.Product, bool)
}

// Cart keeps lines in insertion order, at most one per product.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add puts quantity units of p into the cart, merging with an existing line.
func (c *Cart) Add(p domain.Product, quantity int) error {
	const op = "cart.Add"
	if quantity < 1 {
		return apperr.Invalid(op, ErrInvalidQuantity, "")
	}
	if quantity > p.Stock {
		return apperr.Invalid(op, &StockError{ProductID: p.ID, Stock: p.Stock, Available: p.Stock}, "")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(p.ID); i >= 0 {
		l := &c.lines[i]
		if l.Quantity+quantity > p.Stock {
			return apperr.Invalid(op, &StockError{ProductID: p.ID, Stock: p.Stock, Available: max(p.Stock-l.Quantity, 0)}, "")
		}
		l.Quantity += quantity
		l.recompute()
		return nil
	}

	l := Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  quantity,
		Discount:  decimal.Zero,
	}
	l.recompute()
	c.lines = append(c.lines, l)
	return nil
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
func (c *Cart) UpdateQuantity(productID string, quantity int, products StockLookup) error {
	const op = "cart.UpdateQuantity"
	if quantity <= 0 {
		c.Remove(productID)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return apperr.Invalid(op, ErrLineNotFound, "")
	}
	if products != nil {
		if p, ok := products.Find(productID); ok && quantity > p.Stock {
			return apperr.Invalid(op, &StockError{ProductID: productID, Stock: p.Stock, Available: p.Stock}, "")
		}
	}
	l := &c.lines[i]
	l.Quantity = quantity
	l.recompute()
	return nil
}

// Remove deletes the line for productID if present.
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// UpdateDiscount sets a line discount, clamped to [0, subtotal].
func (c *Cart) UpdateDiscount(productID string, discount decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(productID)
	if i < 0 {
		return apperr.Invalid("cart.UpdateDiscount", ErrLineNotFound, "")
	}
	l := &c.lines[i]
	l.Discount = discount
	l.recompute()
	return nil
}

// Total is the sum of line totals.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total)
	}
	return total
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line returns the line for productID.
func (c *Cart) Line(productID string) (Line, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(productID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool { return c.Len() == 0 }

// Items converts every line into transaction items.
func (c *Cart) Items() []domain.TransactionItem {
	lines := c.Lines()
	items := make([]domain.TransactionItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.Item())
	}
	return items
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
