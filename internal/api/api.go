// Package api defines the request and response payloads of every backend
// command. Both the HTTP handlers and the till client use these types, so the
// wire field names live in exactly one place.
package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillpos-backend/internal/domain"
)

// ErrInvalidRequest is wrapped by every Validate failure.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// ValidID reports whether id has the UUID form every stored record id takes.
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

func checkID(field, id string) error {
	if id == "" {
		return invalid("%s is required", field)
	}
	if !ValidID(id) {
		return invalid("%s %q is not a valid id", field, id)
	}
	return nil
}

// Envelope is the JSON body every route responds with.
type Envelope[T any] struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    T         `json:"data"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// authenticate_user

type LoginData struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthenticateUserRequest struct {
	LoginData LoginData `json:"loginData"`
}

func (r AuthenticateUserRequest) Validate() error {
	if strings.TrimSpace(r.LoginData.Username) == "" || r.LoginData.Password == "" {
		return invalid("username and password are required")
	}
	return nil
}

type AuthenticateUserResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

// update_product_stock

type UpdateProductStockRequest struct {
	ProductID string `json:"productId"`
	NewStock  int    `json:"newStock"`
}

func (r UpdateProductStockRequest) Validate() error {
	if err := checkID("productId", r.ProductID); err != nil {
		return err
	}
	if r.NewStock < 0 {
		return invalid("newStock must not be negative")
	}
	return nil
}

type SaveProductRequest struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Barcode  string          `json:"barcode"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}

func (r SaveProductRequest) Validate() error {
	if r.ID != "" && !ValidID(r.ID) {
		return invalid("id %q is not a valid id", r.ID)
	}
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Barcode) == "" || strings.TrimSpace(r.Category) == "" {
		return invalid("name, barcode and category are required")
	}
	if r.Price.IsNegative() {
		return invalid("price must not be negative")
	}
	if r.Stock < 0 {
		return invalid("stock must not be negative")
	}
	return nil
}

// create_transaction

type DiscountData struct {
	DiscountType    domain.DiscountType `json:"discountType"`
	DiscountValue   decimal.Decimal     `json:"discountValue"`
	DiscountedTotal decimal.Decimal     `json:"discountedTotal"`
	PaymentAmount   decimal.Decimal     `json:"paymentAmount"`
	Change          decimal.Decimal     `json:"change"`
}

type CreateTransactionRequest struct {
	Items         []domain.TransactionItem `json:"items"`
	PaymentMethod domain.PaymentMethod     `json:"paymentMethod"`
	DiscountData  *DiscountData            `json:"discountData,omitempty"`
}

func (r CreateTransactionRequest) Validate() error {
	if len(r.Items) == 0 {
		return invalid("items are required")
	}
	if !r.PaymentMethod.Valid() {
		return invalid("unknown payment method %q", r.PaymentMethod)
	}
	seen := make(map[string]struct{}, len(r.Items))
	for _, it := range r.Items {
		if err := checkID("item product_id", it.ProductID); err != nil {
			return err
		}
		if _, dup := seen[it.ProductID]; dup {
			return invalid("duplicate item for product %s", it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
		if it.Quantity < 1 {
			return invalid("item quantity must be at least 1")
		}
		if it.Discount.IsNegative() {
			return invalid("item discount must not be negative")
		}
	}
	if d := r.DiscountData; d != nil {
		if d.DiscountType != "" && !d.DiscountType.Valid() {
			return invalid("unknown discount type %q", d.DiscountType)
		}
		if d.DiscountValue.IsNegative() || d.PaymentAmount.IsNegative() {
			return invalid("discount value and payment amount must not be negative")
		}
	}
	return nil
}

type CreateTransactionResponse struct {
	ID          string             `json:"id"`
	Transaction domain.Transaction `json:"transaction"`
}

// print_receipt

type PrintReceiptRequest struct {
	Transaction  domain.Transaction `json:"transaction"`
	StoreName    string             `json:"storeName"`
	StoreAddress string             `json:"storeAddress"`
}

func (r PrintReceiptRequest) Validate() error {
	if r.Transaction.ID == "" {
		return invalid("transaction id is required")
	}
	return nil
}

// open_cash_shift

type OpenCashShiftRequest struct {
	UserID      string          `json:"userId"`
	InitialCash decimal.Decimal `json:"initialCash"`
}

func (r OpenCashShiftRequest) Validate() error {
	if err := checkID("userId", r.UserID); err != nil {
		return err
	}
	if r.InitialCash.IsNegative() {
		return invalid("initialCash must not be negative")
	}
	return nil
}

type OpenCashShiftResponse struct {
	ShiftID string `json:"shiftId"`
}

// close_cash_shift

type CloseCashShiftRequest struct {
	ShiftID    string          `json:"shiftId"`
	ActualCash decimal.Decimal `json:"actualCash"`
	UserID     string          `json:"userId"`
	Notes      *string         `json:"notes,omitempty"`
}

func (r CloseCashShiftRequest) Validate() error {
	if err := checkID("shiftId", r.ShiftID); err != nil {
		return err
	}
	if err := checkID("userId", r.UserID); err != nil {
		return err
	}
	if r.ActualCash.IsNegative() {
		return invalid("actualCash must not be negative")
	}
	return nil
}

type CloseCashShiftResponse struct {
	ShiftID string             `json:"shiftId"`
	Report  domain.ShiftReport `json:"report"`
}

// add_cash_movement

type AddCashMovementRequest struct {
	ShiftID      string              `json:"shiftId"`
	MovementType domain.MovementType `json:"movementType"`
	Amount       decimal.Decimal     `json:"amount"`
	Reason       *string             `json:"reason,omitempty"`
}

func (r AddCashMovementRequest) Validate() error {
	if err := checkID("shiftId", r.ShiftID); err != nil {
		return err
	}
	// Sales are recorded by create_transaction only.
	switch r.MovementType {
	case domain.MovementCashIn, domain.MovementCashOut, domain.MovementAdjustment:
	default:
		return invalid("movementType must be cash_in, cash_out or adjustment")
	}
	if !r.Amount.IsPositive() {
		return invalid("amount must be positive")
	}
	return nil
}

type AddCashMovementResponse struct {
	MovementID string `json:"movementId"`
}

// print_shift_report

type PrintShiftReportRequest struct {
	ShiftID      string `json:"shiftId"`
	StoreName    string `json:"storeName"`
	StoreAddress string `json:"storeAddress"`
}

func (r PrintShiftReportRequest) Validate() error {
	return checkID("shiftId", r.ShiftID)
}

// user administration

type CreateUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	FullName string          `json:"full_name"`
	Role     domain.UserRole `json:"role"`
}

func (r CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" || strings.TrimSpace(r.FullName) == "" || r.Password == "" {
		return invalid("username, full_name and password are required")
	}
	switch r.Role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleCashier:
	default:
		return invalid("unknown role %q", r.Role)
	}
	return nil
}
