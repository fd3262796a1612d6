package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tillpos-backend/internal/db"
	"tillpos-backend/internal/domain"
)

type ProductRepository struct {
	DB *db.Postgres
}

const productColumns = `id, name, barcode, price, stock, category`

func (r ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (r ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
}

func (r ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE barcode=$1`, barcode)
}

func (r ProductRepository) getOne(ctx context.Context, query string, arg any) (*domain.Product, error) {
	p, err := scanProduct(r.DB.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// UpdateStock overwrites the on-hand count. Sales adjust stock through
// TransactionRepository.Create instead.
func (r ProductRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	ct, err := r.DB.Pool.Exec(ctx, `UPDATE products SET stock=$1 WHERE id=$2`, stock, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Save inserts p when it has no id and updates it otherwise.
func (r ProductRepository) Save(ctx context.Context, p domain.Product) (*domain.Product, error) {
	var row pgx.Row
	if p.ID == "" {
		row = r.DB.Pool.QueryRow(ctx, `
			INSERT INTO products (id, name, barcode, price, stock, category)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING `+productColumns,
			uuid.NewString(), p.Name, p.Barcode, p.Price, p.Stock, p.Category)
	} else {
		row = r.DB.Pool.QueryRow(ctx, `
			UPDATE products
			SET name=$1,
				barcode=$2,
				price=$3,
				stock=$4,
				category=$5
			WHERE id=$6
			RETURNING `+productColumns,
			p.Name, p.Barcode, p.Price, p.Stock, p.Category, p.ID)
	}

	saved, err := scanProduct(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrNotFound
		case IsDuplicate(err):
			return nil, fmt.Errorf("barcode %q: %w", p.Barcode, domain.ErrDuplicate)
		}
		return nil, err
	}
	return saved, nil
}

// Delete removes a product that has never been sold.
func (r ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("product %s: %w", id, domain.ErrInUse)
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.Price, &p.Stock, &p.Category); err != nil {
		return nil, err
	}
	return &p, nil
}
