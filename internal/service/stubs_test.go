package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/repository"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

const (
	userID    = "7d3f1c2a-5b6e-4f80-9a1b-2c3d4e5f6a01"
	teaID     = "c4a1e2b3-d4f5-4a6b-8c7d-9e0f1a2b3c01"
	cookieID  = "c4a1e2b3-d4f5-4a6b-8c7d-9e0f1a2b3c02"
	reportID  = "0b9e8d7c-6a5f-4e3d-8c2b-1a0f9e8d7c01"
	missingID = "0b9e8d7c-6a5f-4e3d-8c2b-1a0f9e8d7cff"
)

type stubUsers struct {
	users   map[string]*domain.User
	created []repository.CreateUserParams
	touched []string
}

func (s *stubUsers) Create(_ context.Context, p repository.CreateUserParams) (*domain.User, error) {
	if _, ok := s.users[p.Username]; ok {
		return nil, domain.ErrDuplicate
	}
	s.created = append(s.created, p)
	u := &domain.User{ID: "u-" + p.Username, Username: p.Username, FullName: p.FullName, Role: p.Role, IsActive: true, PasswordHash: p.PasswordHash}
	s.users[p.Username] = u
	return u, nil
}

func (s *stubUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubUsers) List(context.Context) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubUsers) TouchLastLogin(_ context.Context, id string) error {
	s.touched = append(s.touched, id)
	return nil
}

// stubTransactions prices items from a fixed price list and runs the price
// callback the way the repository does.
type stubTransactions struct {
	prices map[string]decimal.Decimal
	stored []domain.Transaction
}

func (s *stubTransactions) Create(_ context.Context, in repository.CreateTransactionInput, price repository.PriceFunc) (*domain.Transaction, error) {
	total := decimal.Zero
	var items []domain.TransactionItem
	for _, it := range in.Items {
		p, ok := s.prices[it.ProductID]
		if !ok {
			return nil, repository.ErrNotFound
		}
		sub := p.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, domain.TransactionItem{ProductID: it.ProductID, Name: it.ProductID, Quantity: it.Quantity, Price: p, Discount: it.Discount, Subtotal: sub})
		total = total.Add(sub.Sub(it.Discount))
	}
	pr, err := price(total)
	if err != nil {
		return nil, err
	}
	tx := domain.Transaction{
		ID:              "tx-1",
		Items:           items,
		Total:           total,
		DiscountType:    pr.DiscountType,
		DiscountValue:   pr.DiscountValue,
		DiscountedTotal: pr.DiscountedTotal,
		PaymentAmount:   pr.PaymentAmount,
		Change:          pr.Change,
		PaymentMethod:   in.PaymentMethod,
		UserID:          in.UserID,
	}
	s.stored = append(s.stored, tx)
	return &tx, nil
}

func (s *stubTransactions) List(context.Context, int) ([]domain.Transaction, error) {
	return s.stored, nil
}

type stubRegisters struct{ reg *domain.CashRegister }

func (s stubRegisters) Default(context.Context) (*domain.CashRegister, error) {
	if s.reg == nil {
		return nil, repository.ErrNotFound
	}
	return s.reg, nil
}

type stubShifts struct {
	open      map[string]*domain.Shift
	movements map[string][]domain.CashMovement
	added     []repository.AddMovementInput
	openedOn  string
}

func newStubShifts() *stubShifts {
	return &stubShifts{open: map[string]*domain.Shift{}, movements: map[string][]domain.CashMovement{}}
}

func (s *stubShifts) Current(_ context.Context, userID string) (*domain.Shift, error) {
	for _, sh := range s.open {
		if sh.UserID == userID && sh.Status == domain.ShiftOpen {
			return sh, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubShifts) GetByID(_ context.Context, id string) (*domain.Shift, error) {
	sh, ok := s.open[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return sh, nil
}

func (s *stubShifts) Open(_ context.Context, userID, registerID string, initial decimal.Decimal) (string, error) {
	if _, err := s.Current(context.Background(), userID); err == nil {
		return "", domain.ErrShiftAlreadyOpen
	}
	s.openedOn = registerID
	id := uuid.NewString()
	s.open[id] = &domain.Shift{ID: id, UserID: userID, CashRegisterID: registerID, InitialCash: initial, ExpectedCash: initial, Status: domain.ShiftOpen}
	s.movements[id] = []domain.CashMovement{{ID: "m0", ShiftID: id, MovementType: domain.MovementCashIn, Amount: initial}}
	return id, nil
}

func (s *stubShifts) AddMovement(_ context.Context, in repository.AddMovementInput) (string, error) {
	sh, ok := s.open[in.ShiftID]
	if !ok {
		return "", repository.ErrNotFound
	}
	if sh.Status != domain.ShiftOpen {
		return "", domain.ErrShiftClosed
	}
	s.added = append(s.added, in)
	sh.ExpectedCash = sh.ExpectedCash.Add(in.MovementType.Signed(in.Amount))
	s.movements[in.ShiftID] = append(s.movements[in.ShiftID], domain.CashMovement{ShiftID: in.ShiftID, MovementType: in.MovementType, Amount: in.Amount})
	return "m1", nil
}

func (s *stubShifts) Movements(_ context.Context, shiftID string) ([]domain.CashMovement, error) {
	return s.movements[shiftID], nil
}

func (s *stubShifts) Close(_ context.Context, in repository.CloseShiftInput, build repository.ReportBuilder) (*domain.ShiftReport, error) {
	sh, ok := s.open[in.ShiftID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if sh.Status != domain.ShiftOpen {
		return nil, domain.ErrShiftClosed
	}
	actual := in.ActualCash
	diff := actual.Sub(sh.ExpectedCash)
	sh.ActualCash, sh.Difference, sh.Status = &actual, &diff, domain.ShiftClosed
	data := build(domain.ShiftInfo{Shift: *sh, RegisterName: "Cash Register 1"}, s.movements[in.ShiftID], nil)
	return &domain.ShiftReport{ID: "r1", ShiftID: in.ShiftID, ReportType: domain.ReportDaily, Data: data, GeneratedBy: in.UserID}, nil
}

type stubReports struct{ reports map[string]domain.ShiftReport }

func (s stubReports) List(context.Context, int) ([]domain.ShiftReport, error) {
	out := []domain.ShiftReport{}
	for _, r := range s.reports {
		out = append(out, r)
	}
	return out, nil
}

func (s stubReports) GetByShift(_ context.Context, shiftID string) (*domain.ShiftReport, error) {
	r, ok := s.reports[shiftID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}
