package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enumerations
const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleCashier UserRole = "kasir"

	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentQRIS    PaymentMethod = "qris"
	PaymentEWallet PaymentMethod = "ewallet"

	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"

	ShiftOpen   ShiftStatus = "open"
	ShiftClosed ShiftStatus = "closed"

	MovementCashIn     MovementType = "cash_in"
	MovementCashOut    MovementType = "cash_out"
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"

	ReportDaily = "daily"
)

type UserRole string
type PaymentMethod string
type DiscountType string
type ShiftStatus string
type MovementType string

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentQRIS, PaymentEWallet:
		return true
	}
	return false
}

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

func (t MovementType) Valid() bool {
	switch t {
	case MovementCashIn, MovementCashOut, MovementSale, MovementAdjustment:
		return true
	}
	return false
}

// Inflow reports whether the movement adds to the drawer balance.
func (t MovementType) Inflow() bool {
	return t == MovementCashIn || t == MovementSale
}

// Outflow reports whether the movement removes from the drawer balance.
func (t MovementType) Outflow() bool {
	return t == MovementCashOut || t == MovementAdjustment
}

// Signed returns amount with the sign it contributes to expected cash.
func (t MovementType) Signed(amount decimal.Decimal) decimal.Decimal {
	switch {
	case t.Inflow():
		return amount
	case t.Outflow():
		return amount.Neg()
	}
	return decimal.Zero
}

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	FullName     string     `json:"full_name"`
	Role         UserRole   `json:"role"`
	IsActive     bool       `json:"is_active"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Barcode  string          `json:"barcode"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}

type CashRegister struct {
	ID       string
	Name     string
	Location string
	IsActive bool
}

type Transaction struct {
	ID              string            `json:"id"`
	Items           []TransactionItem `json:"items"`
	Total           decimal.Decimal   `json:"total"`
	DiscountType    DiscountType      `json:"discount_type,omitempty"`
	DiscountValue   decimal.Decimal   `json:"discount_value"`
	DiscountedTotal decimal.Decimal   `json:"discounted_total"`
	PaymentAmount   decimal.Decimal   `json:"payment_amount"`
	Change          decimal.Decimal   `json:"change"`
	PaymentMethod   PaymentMethod     `json:"payment_method"`
	ShiftID         *string           `json:"shift_id,omitempty"`
	UserID          string            `json:"user_id,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

type TransactionItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Total is the line amount after its own discount.
func (it TransactionItem) Total() decimal.Decimal {
	return it.Subtotal.Sub(it.Discount)
}

type Shift struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	UserName       string           `json:"user_name"`
	CashRegisterID string           `json:"cash_register_id"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        *time.Time       `json:"end_time"`
	InitialCash    decimal.Decimal  `json:"initial_cash"`
	ExpectedCash   decimal.Decimal  `json:"expected_cash"`
	ActualCash     *decimal.Decimal `json:"actual_cash"`
	Difference     *decimal.Decimal `json:"difference"`
	Status         ShiftStatus      `json:"status"`
	Notes          *string          `json:"notes"`
}

type CashMovement struct {
	ID            string          `json:"id"`
	ShiftID       string          `json:"shift_id"`
	TransactionID *string         `json:"transaction_id"`
	MovementType  MovementType    `json:"movement_type"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        *string         `json:"reason"`
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
	UserName      string          `json:"user_name"`
}

type ShiftReport struct {
	ID          string          `json:"id"`
	ShiftID     string          `json:"shift_id"`
	ReportType  string          `json:"report_type"`
	Data        ShiftReportData `json:"data"`
	GeneratedAt time.Time       `json:"generated_at"`
	GeneratedBy string          `json:"generated_by"`
}

type ShiftReportData struct {
	ShiftInfo    ShiftInfo           `json:"shift_info"`
	CashSummary  CashSummary         `json:"cash_summary"`
	Movements    []CashMovement      `json:"movements"`
	Transactions []ReportTransaction `json:"transactions"`
}

type ShiftInfo struct {
	Shift
	RegisterName string `json:"register_name"`
}

type CashSummary struct {
	TotalCashIn  decimal.Decimal  `json:"total_cash_in"`
	TotalCashOut decimal.Decimal  `json:"total_cash_out"`
	NetMovement  decimal.Decimal  `json:"net_movement"`
	InitialCash  decimal.Decimal  `json:"initial_cash"`
	ExpectedCash decimal.Decimal  `json:"expected_cash"`
	ActualCash   *decimal.Decimal `json:"actual_cash"`
	Difference   *decimal.Decimal `json:"difference"`
}

type ReportTransaction struct {
	ID            string          `json:"id"`
	Total         decimal.Decimal `json:"total"`
	Timestamp     time.Time       `json:"timestamp"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Items         string          `json:"items"`
}
