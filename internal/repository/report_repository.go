package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tillpos-backend/internal/db"
	"tillpos-backend/internal/domain"
)

type ReportRepository struct {
	DB *db.Postgres
}

const reportColumns = `id, shift_id, report_type, data, generated_at, generated_by`

// List returns stored shift reports, newest first.
func (r ReportRepository) List(ctx context.Context, limit int) ([]domain.ShiftReport, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM shift_reports
		ORDER BY generated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ShiftReport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rep)
	}
	return out, rows.Err()
}

func (r ReportRepository) GetByShift(ctx context.Context, shiftID string) (*domain.ShiftReport, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM shift_reports WHERE shift_id=$1`, shiftID)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

func scanReport(row rowScanner) (*domain.ShiftReport, error) {
	var rep domain.ShiftReport
	var data []byte
	if err := row.Scan(&rep.ID, &rep.ShiftID, &rep.ReportType, &data, &rep.GeneratedAt, &rep.GeneratedBy); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &rep.Data); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", rep.ID, err)
	}
	return &rep, nil
}
