// Package catalog keeps the till's snapshot of the product list.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tillpos-backend/internal/apperr"
	"tillpos-backend/internal/domain"
)

// Source loads the full product list.
type Source interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
}

type Catalog struct {
	source Source

	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int
}

func New(source Source) *Catalog {
	return &Catalog{source: source, byID: map[string]int{}}
}

// Refresh replaces the snapshot. On failure the previous snapshot is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	products, err := c.source.GetProducts(ctx)
	if err != nil {
		return apperr.Wrap("catalog.Refresh", apperr.Backend, err)
	}
	c.Replace(products)
	return nil
}

// Replace installs products as the snapshot.
func (c *Catalog) Replace(products []domain.Product) {
	byID := make(map[string]int, len(products))
	cp := append([]domain.Product(nil), products...)
	for i, p := range cp {
		byID[p.ID] = i
	}

	c.mu.Lock()
	c.products = cp
	c.byID = byID
	c.mu.Unlock()
}

// Find implements cart.StockLookup.
func (c *Catalog) Find(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) ByBarcode(barcode string) (domain.Product, bool) {
	barcode = strings.TrimSpace(barcode)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.Barcode == barcode {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (c *Catalog) All() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Product(nil), c.products...)
}

// Search matches term case-insensitively against name, barcode and category.
// An empty term returns every product.
func (c *Catalog) Search(term string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Barcode), term) ||
			strings.Contains(strings.ToLower(p.Category), term) {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct categories in sorted order.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := map[string]struct{}{}
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

// FilterByCategory narrows products to category. "" and "all" keep everything.
func FilterByCategory(products []domain.Product, category string) []domain.Product {
	if category == "" || strings.EqualFold(category, "all") {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
