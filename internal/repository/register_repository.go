package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tillpos-backend/internal/db"
	"tillpos-backend/internal/domain"
)

type RegisterRepository struct {
	DB *db.Postgres
}

// Default returns the register new shifts are opened on.
func (r RegisterRepository) Default(ctx context.Context) (*domain.CashRegister, error) {
	var reg domain.CashRegister
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, location, is_active
		FROM cash_registers
		WHERE is_active
		ORDER BY name ASC
		LIMIT 1
	`).Scan(&reg.ID, &reg.Name, &reg.Location, &reg.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

func (r RegisterRepository) SeedDefaults(ctx context.Context) error {
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO cash_registers (id, name, location, is_active)
		VALUES ($1, 'Cash Register 1', 'Main Store', TRUE)
		ON CONFLICT (name) DO NOTHING
	`, uuid.NewString())
	return err
}
