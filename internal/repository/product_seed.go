package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillpos-backend/internal/domain"
)

func (r ProductRepository) SeedDefaults(ctx context.Context) error {
	defaults := []domain.Product{
		{Name: "Coca Cola 330ml", Barcode: "1234567890", Price: decimal.NewFromInt(8000), Stock: 100, Category: "Beverages"},
		{Name: "Aqua 600ml", Barcode: "1234567891", Price: decimal.NewFromInt(4000), Stock: 150, Category: "Beverages"},
		{Name: "Roti Tawar", Barcode: "1234567892", Price: decimal.NewFromInt(15000), Stock: 40, Category: "Bakery"},
		{Name: "Susu UHT 1L", Barcode: "1234567893", Price: decimal.NewFromInt(18500), Stock: 60, Category: "Dairy"},
		{Name: "Indomie Goreng", Barcode: "1234567894", Price: decimal.NewFromInt(3500), Stock: 200, Category: "Food"},
		{Name: "Kopi Sachet", Barcode: "1234567895", Price: decimal.NewFromInt(2000), Stock: 300, Category: "Beverages"},
	}

	for _, p := range defaults {
		// Idempotent: products.barcode is unique.
		_, err := r.DB.Pool.Exec(ctx, `
			INSERT INTO products (id, name, barcode, price, stock, category)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (barcode) DO NOTHING
		`, uuid.NewString(), p.Name, p.Barcode, p.Price, p.Stock, p.Category)
		if err != nil {
			return err
		}
	}
	return nil
}
