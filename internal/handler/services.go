package handler

import (
	"context"
	"time"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/service"
)

// Service interfaces the handlers depend on. The service package provides
// the implementations.

type Authenticator interface {
	Login(ctx context.Context, req api.AuthenticateUserRequest) (*api.AuthenticateUserResponse, error)
}

type UserAdmin interface {
	CreateUser(ctx context.Context, req api.CreateUserRequest) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type Sales interface {
	Create(ctx context.Context, userID string, req api.CreateTransactionRequest) (*domain.Transaction, error)
	List(ctx context.Context) ([]domain.Transaction, error)
	Export(ctx context.Context, format string, now time.Time) (*service.Export, error)
	PrintReceipt(ctx context.Context, req api.PrintReceiptRequest) error
}

type Shifts interface {
	Current(ctx context.Context, userID string) (*domain.Shift, error)
	Shift(ctx context.Context, id string) (*domain.Shift, error)
	Open(ctx context.Context, req api.OpenCashShiftRequest) (string, error)
	Close(ctx context.Context, req api.CloseCashShiftRequest) (*domain.ShiftReport, error)
	AddMovement(ctx context.Context, userID string, req api.AddCashMovementRequest) (string, error)
	Movements(ctx context.Context, shiftID string) ([]domain.CashMovement, error)
	PrintReport(ctx context.Context, req api.PrintShiftReportRequest) error
	ListReports(ctx context.Context) ([]domain.ShiftReport, error)
}

var (
	_ Authenticator = service.AuthService{}
	_ UserAdmin     = service.AuthService{}
	_ Sales         = service.TransactionService{}
	_ Shifts        = service.ShiftService{}
)
