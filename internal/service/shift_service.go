package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/ledger"
	"tillpos-backend/internal/metrics"
	"tillpos-backend/internal/ports"
	"tillpos-backend/internal/receipt"
	"tillpos-backend/internal/repository"
)

type ShiftService struct {
	Shifts    ports.ShiftStore
	Registers ports.RegisterStore
	Reports   ports.ReportStore
	Documents Documents
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Current returns the user's open shift, or nil when there is none.
func (s ShiftService) Current(ctx context.Context, userID string) (*domain.Shift, error) {
	if !api.ValidID(userID) {
		return nil, fmt.Errorf("%w: userId %q is not a valid id", api.ErrInvalidRequest, userID)
	}
	shift, err := s.Shifts.Current(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return shift, nil
}

func (s ShiftService) Open(ctx context.Context, req api.OpenCashShiftRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	reg, err := s.Registers.Default(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", errors.New("no active cash register configured")
		}
		return "", err
	}
	id, err := s.Shifts.Open(ctx, req.UserID, reg.ID, req.InitialCash)
	if err != nil {
		return "", err
	}
	s.Metrics.ShiftOpened()
	s.Logger.Info("shift opened", "shift", id, "user", req.UserID, "register", reg.Name)
	return id, nil
}

// Close ends the shift and returns its stored report.
func (s ShiftService) Close(ctx context.Context, req api.CloseCashShiftRequest) (*domain.ShiftReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	report, err := s.Shifts.Close(ctx, repository.CloseShiftInput{
		ShiftID:    req.ShiftID,
		UserID:     req.UserID,
		ActualCash: req.ActualCash,
		Notes:      req.Notes,
	}, ledger.BuildReport)
	if err != nil {
		return nil, err
	}
	if diff := report.Data.CashSummary.Difference; diff != nil {
		s.Metrics.ShiftClosed(*diff)
		s.Logger.Info("shift closed", "shift", req.ShiftID, "difference", diff.String())
	}
	return report, nil
}

func (s ShiftService) AddMovement(ctx context.Context, userID string, req api.AddCashMovementRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return s.Shifts.AddMovement(ctx, repository.AddMovementInput{
		ShiftID:      req.ShiftID,
		UserID:       userID,
		MovementType: req.MovementType,
		Amount:       req.Amount,
		Reason:       req.Reason,
	})
}

func (s ShiftService) Movements(ctx context.Context, shiftID string) ([]domain.CashMovement, error) {
	if _, err := s.Shift(ctx, shiftID); err != nil {
		return nil, err
	}
	return s.Shifts.Movements(ctx, shiftID)
}

// Shift returns a shift by id. Malformed ids match no shift.
func (s ShiftService) Shift(ctx context.Context, id string) (*domain.Shift, error) {
	if !api.ValidID(id) {
		return nil, fmt.Errorf("shift %q: %w", id, domain.ErrNotFound)
	}
	return s.Shifts.GetByID(ctx, id)
}

// PrintReport prints the stored report of a closed shift.
func (s ShiftService) PrintReport(ctx context.Context, req api.PrintShiftReportRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	report, err := s.Reports.GetByShift(ctx, req.ShiftID)
	if err != nil {
		return err
	}
	name, address := s.Documents.store(req.StoreName, req.StoreAddress)
	doc := receipt.RenderShiftReport(s.Documents.Template, name, address, *report)
	if err := s.Documents.Printer.Print(ctx, doc); err != nil {
		return fmt.Errorf("print shift report %s: %w", req.ShiftID, err)
	}
	return nil
}

func (s ShiftService) ListReports(ctx context.Context) ([]domain.ShiftReport, error) {
	return s.Reports.List(ctx, DefaultListLimit)
}
