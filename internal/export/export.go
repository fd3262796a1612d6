// Package export writes transaction lists as CSV or XLSX files.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tillpos-backend/internal/domain"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var ErrUnknownFormat = errors.New("invalid format (use csv or xlsx)")

var header = []string{"Transaction ID", "Date", "Payment Method", "Total", "Items"}

// ItemsSummary renders items as "name xqty" joined by sep.
func ItemsSummary(items []domain.TransactionItem, sep string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	return strings.Join(parts, sep)
}

// ParseFormat normalises a format name. "" means CSV and "excel" means XLSX.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", ErrUnknownFormat
}

// ContentType and Filename describe the file Transactions produces.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func Filename(format string, now time.Time) string {
	return fmt.Sprintf("transactions_%s.%s", now.Format("2006-01-02"), format)
}

// Transactions renders txs in format.
func Transactions(format string, txs []domain.Transaction) ([]byte, error) {
	switch format {
	case FormatCSV:
		return transactionsCSV(txs)
	case FormatXLSX:
		return transactionsXLSX(txs)
	}
	return nil, ErrUnknownFormat
}

func transactionsCSV(txs []domain.Transaction) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(header)
	for _, tx := range txs {
		_ = w.Write([]string{
			tx.ID,
			tx.Timestamp.Format(time.RFC3339),
			string(tx.PaymentMethod),
			tx.DiscountedTotal.String(),
			ItemsSummary(tx.Items, "; "),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func transactionsXLSX(txs []domain.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Transactions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, tx := range txs {
		total, _ := tx.DiscountedTotal.Float64()
		values := []any{
			tx.ID,
			tx.Timestamp.Format("2006-01-02 15:04:05"),
			string(tx.PaymentMethod),
			total,
			ItemsSummary(tx.Items, "; "),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 40)
	_ = f.SetColWidth(sheet, "B", "B", 20)
	_ = f.SetColWidth(sheet, "C", "C", 16)
	_ = f.SetColWidth(sheet, "D", "D", 14)
	_ = f.SetColWidth(sheet, "E", "E", 48)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "E1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
