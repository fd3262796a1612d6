// Package ledger tracks the cashier's current shift and its cash movements.
//
// The expected cash shown to the cashier is always the figure the backend
// reports. The only local arithmetic is the close preview and the movement
// totals in Summarize.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/apperr"
	"tillpos-backend/internal/domain"
)

var (
	ErrShiftAlreadyOpen = domain.ErrShiftAlreadyOpen
	ErrNoActiveShift    = errors.New("no active shift")
	ErrNoUser           = errors.New("ledger has no signed-in user")
	ErrInvalidAmount    = errors.New("amount must be a number of at least 0")
	ErrReportNotPrinted = errors.New("shift closed but report was not printed")
)

// State is the ledger's position in the shift lifecycle.
type State int

const (
	NoActiveShift State = iota
	ShiftOpen
)

func (s State) String() string {
	if s == ShiftOpen {
		return "shift open"
	}
	return "no active shift"
}

// Backend is the part of the command surface the ledger uses.
type Backend interface {
	GetCurrentShift(ctx context.Context, userID string) (*domain.Shift, error)
	OpenCashShift(ctx context.Context, req api.OpenCashShiftRequest) (*api.OpenCashShiftResponse, error)
	CloseCashShift(ctx context.Context, req api.CloseCashShiftRequest) (*api.CloseCashShiftResponse, error)
	GetCashMovements(ctx context.Context, shiftID string) ([]domain.CashMovement, error)
	AddCashMovement(ctx context.Context, req api.AddCashMovementRequest) (*api.AddCashMovementResponse, error)
	PrintShiftReport(ctx context.Context, req api.PrintShiftReportRequest) error
}

type Ledger struct {
	backend      Backend
	storeName    string
	storeAddress string

	mu           sync.Mutex
	userID       string
	shift        *domain.Shift
	movements    []domain.CashMovement
	movementsFor string
}

func New(backend Backend, storeName, storeAddress string) *Ledger {
	return &Ledger{backend: backend, storeName: storeName, storeAddress: storeAddress}
}

// ParseCash reads a cash amount typed by the cashier. Unlike checkout amounts,
// blank or malformed input is rejected rather than read as zero.
func ParseCash(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, apperr.Invalid("ledger.ParseCash", ErrInvalidAmount, s)
	}
	return d, nil
}

// Load binds the ledger to userID and fetches that user's open shift.
func (l *Ledger) Load(ctx context.Context, userID string) error {
	l.mu.Lock()
	if l.userID != userID {
		l.shift = nil
		l.movements = nil
		l.movementsFor = ""
	}
	l.userID = userID
	l.mu.Unlock()
	return l.reloadShift(ctx, "ledger.Load")
}

// Reset forgets the user and every cached shift value.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.userID = ""
	l.shift = nil
	l.movements = nil
	l.movementsFor = ""
}

func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.shift != nil && l.shift.Status == domain.ShiftOpen {
		return ShiftOpen
	}
	return NoActiveShift
}

// Current returns a copy of the open shift.
func (l *Ledger) Current() (domain.Shift, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.shift == nil {
		return domain.Shift{}, false
	}
	return *l.shift, true
}

// Open starts a shift with initialCash in the drawer and reloads it from the
// backend. A second open for the same user fails with ErrShiftAlreadyOpen.
func (l *Ledger) Open(ctx context.Context, initialCash decimal.Decimal) (string, error) {
	const op = "ledger.Open"
	if initialCash.IsNegative() {
		return "", apperr.Invalid(op, ErrInvalidAmount, initialCash.String())
	}
	userID, err := l.user(op)
	if err != nil {
		return "", err
	}
	if l.State() == ShiftOpen {
		return "", apperr.Invalid(op, ErrShiftAlreadyOpen, "")
	}

	resp, err := l.backend.OpenCashShift(ctx, api.OpenCashShiftRequest{UserID: userID, InitialCash: initialCash})
	if err != nil {
		return "", apperr.Wrap(op, apperr.Backend, err)
	}
	return resp.ShiftID, l.reloadShift(ctx, op)
}

// PreviewClose is the drawer difference the cashier sees before submitting.
// The backend recomputes and stores the authoritative value.
func (l *Ledger) PreviewClose(actualCash decimal.Decimal) (decimal.Decimal, error) {
	shift, ok := l.Current()
	if !ok {
		return decimal.Zero, apperr.Invalid("ledger.PreviewClose", ErrNoActiveShift, "")
	}
	return actualCash.Sub(shift.ExpectedCash), nil
}

// Close ends the open shift, prints its report and refreshes the shift state.
// When only the print fails the report is still returned together with an
// error wrapping ErrReportNotPrinted.
func (l *Ledger) Close(ctx context.Context, actualCash decimal.Decimal, notes string) (*domain.ShiftReport, error) {
	const op = "ledger.Close"
	if actualCash.IsNegative() {
		return nil, apperr.Invalid(op, ErrInvalidAmount, actualCash.String())
	}
	shift, ok := l.Current()
	if !ok {
		return nil, apperr.Invalid(op, ErrNoActiveShift, "")
	}

	req := api.CloseCashShiftRequest{ShiftID: shift.ID, ActualCash: actualCash, UserID: shift.UserID}
	if n := strings.TrimSpace(notes); n != "" {
		req.Notes = &n
	}
	resp, err := l.backend.CloseCashShift(ctx, req)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.Backend, err)
	}

	printErr := l.backend.PrintShiftReport(ctx, api.PrintShiftReportRequest{
		ShiftID:      shift.ID,
		StoreName:    l.storeName,
		StoreAddress: l.storeAddress,
	})

	l.mu.Lock()
	l.shift = nil
	l.movements = nil
	l.movementsFor = ""
	l.mu.Unlock()
	reloadErr := l.reloadShift(ctx, op)

	report := resp.Report
	if printErr != nil {
		return &report, &apperr.Error{Kind: apperr.Backend, Op: op, Err: errors.Join(ErrReportNotPrinted, printErr)}
	}
	return &report, reloadErr
}

// Movements returns the open shift's movements. They are fetched again only
// when the shift changed since the last fetch.
func (l *Ledger) Movements(ctx context.Context) ([]domain.CashMovement, error) {
	const op = "ledger.Movements"
	shift, ok := l.Current()
	if !ok {
		return nil, nil
	}

	l.mu.Lock()
	if l.movementsFor == shift.ID {
		out := append([]domain.CashMovement(nil), l.movements...)
		l.mu.Unlock()
		return out, nil
	}
	l.mu.Unlock()

	return l.fetchMovements(ctx, op, shift.ID)
}

// Refresh reloads the shift and refetches its movements unconditionally.
func (l *Ledger) Refresh(ctx context.Context) error {
	const op = "ledger.Refresh"
	if err := l.reloadShift(ctx, op); err != nil {
		return err
	}
	shift, ok := l.Current()
	if !ok {
		return nil
	}
	_, err := l.fetchMovements(ctx, op, shift.ID)
	return err
}

// RecordMovement adds a manual cash_in, cash_out or adjustment entry and
// refreshes the ledger so the new expected cash is shown.
func (l *Ledger) RecordMovement(ctx context.Context, kind domain.MovementType, amount decimal.Decimal, reason string) (string, error) {
	const op = "ledger.RecordMovement"
	shift, ok := l.Current()
	if !ok {
		return "", apperr.Invalid(op, ErrNoActiveShift, "")
	}
	req := api.AddCashMovementRequest{ShiftID: shift.ID, MovementType: kind, Amount: amount}
	if r := strings.TrimSpace(reason); r != "" {
		req.Reason = &r
	}
	if err := req.Validate(); err != nil {
		return "", apperr.Invalid(op, err, "")
	}

	resp, err := l.backend.AddCashMovement(ctx, req)
	if err != nil {
		return "", apperr.Wrap(op, apperr.Backend, err)
	}
	return resp.MovementID, l.Refresh(ctx)
}

func (l *Ledger) user(op string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.userID == "" {
		return "", apperr.Invalid(op, ErrNoUser, "")
	}
	return l.userID, nil
}

func (l *Ledger) reloadShift(ctx context.Context, op string) error {
	userID, err := l.user(op)
	if err != nil {
		return err
	}
	shift, err := l.backend.GetCurrentShift(ctx, userID)
	if err != nil {
		return apperr.Wrap(op, apperr.Backend, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if shift != nil && shift.Status != domain.ShiftOpen {
		shift = nil
	}
	if shift == nil || l.movementsFor != shift.ID {
		l.movements = nil
		l.movementsFor = ""
	}
	l.shift = shift
	return nil
}

func (l *Ledger) fetchMovements(ctx context.Context, op, shiftID string) ([]domain.CashMovement, error) {
	movements, err := l.backend.GetCashMovements(ctx, shiftID)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.Backend, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.movements = append([]domain.CashMovement(nil), movements...)
	l.movementsFor = shiftID
	return movements, nil
}
