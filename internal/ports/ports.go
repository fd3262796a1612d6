package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/repository"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// The store interfaces below are implemented by the repository package and
// stubbed in service and handler tests.

type UserStore interface {
	Create(ctx context.Context, p repository.CreateUserParams) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	TouchLastLogin(ctx context.Context, id string) error
}

type ProductStore interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	UpdateStock(ctx context.Context, id string, stock int) error
	Save(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type TransactionStore interface {
	Create(ctx context.Context, in repository.CreateTransactionInput, price repository.PriceFunc) (*domain.Transaction, error)
	List(ctx context.Context, limit int) ([]domain.Transaction, error)
}

type RegisterStore interface {
	Default(ctx context.Context) (*domain.CashRegister, error)
}

type ShiftStore interface {
	Current(ctx context.Context, userID string) (*domain.Shift, error)
	GetByID(ctx context.Context, id string) (*domain.Shift, error)
	Open(ctx context.Context, userID, registerID string, initialCash decimal.Decimal) (string, error)
	AddMovement(ctx context.Context, in repository.AddMovementInput) (string, error)
	Movements(ctx context.Context, shiftID string) ([]domain.CashMovement, error)
	Close(ctx context.Context, in repository.CloseShiftInput, build repository.ReportBuilder) (*domain.ShiftReport, error)
}

type ReportStore interface {
	List(ctx context.Context, limit int) ([]domain.ShiftReport, error)
	GetByShift(ctx context.Context, shiftID string) (*domain.ShiftReport, error)
}

var (
	_ UserStore        = repository.UserRepository{}
	_ ProductStore     = repository.ProductRepository{}
	_ TransactionStore = repository.TransactionRepository{}
	_ RegisterStore    = repository.RegisterRepository{}
	_ ShiftStore       = repository.ShiftRepository{}
	_ ReportStore      = repository.ReportRepository{}
)
