package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"tillpos-backend/internal/db"
	"tillpos-backend/internal/domain"
)

type ShiftRepository struct {
	DB *db.Postgres
}

const shiftColumns = `
	s.id, s.user_id, u.full_name, s.cash_register_id, s.start_time, s.end_time,
	s.initial_cash, s.expected_cash, s.actual_cash, s.difference, s.status, s.notes`

const shiftFrom = `
	FROM cash_shifts s
	JOIN users u ON u.id = s.user_id`

// Current returns the user's open shift or ErrNotFound.
func (r ShiftRepository) Current(ctx context.Context, userID string) (*domain.Shift, error) {
	return getShift(ctx, r.DB.Pool, `WHERE s.user_id=$1 AND s.status='open'`, userID)
}

func (r ShiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	return getShift(ctx, r.DB.Pool, `WHERE s.id=$1`, id)
}

func getShift(ctx context.Context, q querier, where string, args ...any) (*domain.Shift, error) {
	s, err := scanShift(q.QueryRow(ctx, `SELECT `+shiftColumns+shiftFrom+` `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// Open starts a shift on registerID with an opening cash_in movement.
func (r ShiftRepository) Open(ctx context.Context, userID, registerID string, initialCash decimal.Decimal) (string, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	id := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO cash_shifts (id, user_id, cash_register_id, start_time, initial_cash, expected_cash, status)
		VALUES ($1,$2,$3, now(), $4, 0, 'open')
	`, id, userID, registerID, initialCash)
	if err != nil {
		if IsDuplicate(err) {
			return "", domain.ErrShiftAlreadyOpen
		}
		return "", err
	}

	reason := "Opening cash"
	err = insertMovement(ctx, tx, domain.CashMovement{
		ShiftID:      id,
		MovementType: domain.MovementCashIn,
		Amount:       initialCash,
		Reason:       &reason,
		UserID:       userID,
	})
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

type AddMovementInput struct {
	ShiftID      string
	UserID       string
	MovementType domain.MovementType
	Amount       decimal.Decimal
	Reason       *string
}

// AddMovement appends a manual movement to an open shift.
func (r ShiftRepository) AddMovement(ctx context.Context, in AddMovementInput) (string, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if _, err := lockOpenShift(ctx, tx, in.ShiftID); err != nil {
		return "", err
	}

	m := domain.CashMovement{
		ID:           uuid.NewString(),
		ShiftID:      in.ShiftID,
		MovementType: in.MovementType,
		Amount:       in.Amount,
		Reason:       in.Reason,
		UserID:       in.UserID,
	}
	if err := insertMovement(ctx, tx, m); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return m.ID, nil
}

// insertMovement records m and applies its signed amount to the shift's
// expected cash.
func insertMovement(ctx context.Context, q querier, m domain.CashMovement) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO cash_movements (id, shift_id, transaction_id, movement_type, amount, reason, timestamp, user_id)
		VALUES ($1,$2,$3,$4,$5,$6, now(), $7)
	`, m.ID, m.ShiftID, m.TransactionID, m.MovementType, m.Amount, m.Reason, m.UserID)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		UPDATE cash_shifts SET expected_cash = expected_cash + $1 WHERE id=$2
	`, m.MovementType.Signed(m.Amount), m.ShiftID)
	return err
}

func lockOpenShift(ctx context.Context, tx pgx.Tx, shiftID string) (*domain.Shift, error) {
	s, err := getShift(ctx, tx, `WHERE s.id=$1 FOR UPDATE OF s`, shiftID)
	if err != nil {
		return nil, err
	}
	if s.Status != domain.ShiftOpen {
		return nil, domain.ErrShiftClosed
	}
	return s, nil
}

// Movements lists a shift's movements oldest first.
func (r ShiftRepository) Movements(ctx context.Context, shiftID string) ([]domain.CashMovement, error) {
	return listMovements(ctx, r.DB.Pool, shiftID)
}

func listMovements(ctx context.Context, q querier, shiftID string) ([]domain.CashMovement, error) {
	rows, err := q.Query(ctx, `
		SELECT m.id, m.shift_id, m.transaction_id, m.movement_type, m.amount, m.reason, m.timestamp, m.user_id, u.full_name
		FROM cash_movements m
		JOIN users u ON u.id = m.user_id
		WHERE m.shift_id=$1
		ORDER BY m.timestamp ASC, m.id ASC
	`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.CashMovement{}
	for rows.Next() {
		var m domain.CashMovement
		var kind string
		if err := rows.Scan(&m.ID, &m.ShiftID, &m.TransactionID, &kind, &m.Amount, &m.Reason, &m.Timestamp, &m.UserID, &m.UserName); err != nil {
			return nil, err
		}
		m.MovementType = domain.MovementType(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

type CloseShiftInput struct {
	ShiftID    string
	UserID     string
	ActualCash decimal.Decimal
	Notes      *string
}

// ReportBuilder turns a closed shift and its records into report data.
type ReportBuilder func(info domain.ShiftInfo, movements []domain.CashMovement, txs []domain.Transaction) domain.ShiftReportData

// Close ends an open shift and stores its report in the same database
// transaction.
func (r ShiftRepository) Close(ctx context.Context, in CloseShiftInput, build ReportBuilder) (*domain.ShiftReport, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	shift, err := lockOpenShift(ctx, tx, in.ShiftID)
	if err != nil {
		return nil, err
	}

	end := time.Now().UTC()
	actual := in.ActualCash
	diff := actual.Sub(shift.ExpectedCash)
	_, err = tx.Exec(ctx, `
		UPDATE cash_shifts
		SET end_time=$1, actual_cash=$2, difference=$3, status='closed', notes=$4
		WHERE id=$5
	`, end, actual, diff, in.Notes, in.ShiftID)
	if err != nil {
		return nil, err
	}
	shift.EndTime = &end
	shift.ActualCash = &actual
	shift.Difference = &diff
	shift.Status = domain.ShiftClosed
	shift.Notes = in.Notes

	info := domain.ShiftInfo{Shift: *shift}
	if err := tx.QueryRow(ctx, `SELECT name FROM cash_registers WHERE id=$1`, shift.CashRegisterID).Scan(&info.RegisterName); err != nil {
		return nil, err
	}

	movements, err := listMovements(ctx, tx, in.ShiftID)
	if err != nil {
		return nil, err
	}
	txs, err := listTransactions(ctx, tx, `WHERE shift_id=$1 ORDER BY timestamp ASC`, in.ShiftID)
	if err != nil {
		return nil, err
	}

	report := domain.ShiftReport{
		ID:          uuid.NewString(),
		ShiftID:     in.ShiftID,
		ReportType:  domain.ReportDaily,
		Data:        build(info, movements, txs),
		GeneratedAt: end,
		GeneratedBy: in.UserID,
	}
	data, err := json.Marshal(report.Data)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO shift_reports (id, shift_id, report_type, data, generated_at, generated_by)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, report.ID, report.ShiftID, report.ReportType, data, report.GeneratedAt, report.GeneratedBy)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &report, nil
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	var (
		s          domain.Shift
		status     string
		actual     decimal.NullDecimal
		difference decimal.NullDecimal
	)
	if err := row.Scan(
		&s.ID, &s.UserID, &s.UserName, &s.CashRegisterID, &s.StartTime, &s.EndTime,
		&s.InitialCash, &s.ExpectedCash, &actual, &difference, &status, &s.Notes,
	); err != nil {
		return nil, err
	}
	s.Status = domain.ShiftStatus(status)
	if actual.Valid {
		s.ActualCash = &actual.Decimal
	}
	if difference.Valid {
		s.Difference = &difference.Decimal
	}
	return &s, nil
}
