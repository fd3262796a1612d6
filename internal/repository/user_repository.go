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

type UserRepository struct {
	DB *db.Postgres
}

type CreateUserParams struct {
	Username     string
	PasswordHash string
	FullName     string
	Role         domain.UserRole
}

const userColumns = `id, username, password_hash, full_name, role, is_active, created_at, last_login`

func (r UserRepository) Create(ctx context.Context, p CreateUserParams) (*domain.User, error) {
	query := `
		INSERT INTO users (id, username, password_hash, full_name, role, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5, TRUE, now())
		RETURNING ` + userColumns
	row := r.DB.Pool.QueryRow(ctx, query, uuid.NewString(), p.Username, p.PasswordHash, p.FullName, p.Role)
	user, err := scanUser(row)
	if err != nil {
		if IsDuplicate(err) {
			return nil, fmt.Errorf("username %q: %w", p.Username, domain.ErrDuplicate)
		}
		return nil, err
	}
	return user, nil
}

func (r UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// TouchLastLogin stamps a successful login.
func (r UserRepository) TouchLastLogin(ctx context.Context, id string) error {
	_, err := r.DB.Pool.Exec(ctx, `UPDATE users SET last_login = now() WHERE id=$1`, id)
	return err
}

// SeedDefaults creates the stock admin and cashier accounts if missing.
func (r UserRepository) SeedDefaults(ctx context.Context, hash func(string) (string, error)) error {
	defaults := []struct {
		username, password, fullName string
		role                         domain.UserRole
	}{
		{"admin", "admin123", "Administrator", domain.RoleAdmin},
		{"kasir", "kasir123", "Kasir", domain.RoleCashier},
	}

	for _, d := range defaults {
		h, err := hash(d.password)
		if err != nil {
			return err
		}
		// Idempotent: users.username is unique.
		_, err = r.DB.Pool.Exec(ctx, `
			INSERT INTO users (id, username, password_hash, full_name, role, is_active, created_at)
			VALUES ($1,$2,$3,$4,$5, TRUE, now())
			ON CONFLICT (username) DO NOTHING
		`, uuid.NewString(), d.username, h, d.fullName, d.role)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.FullName,
		&role,
		&u.IsActive,
		&u.CreatedAt,
		&u.LastLogin,
	); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}
