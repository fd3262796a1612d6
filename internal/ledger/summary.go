package ledger

import (
	"github.com/shopspring/decimal"

	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/export"
)

// Summary aggregates a shift's movement list.
type Summary struct {
	TotalCashIn  decimal.Decimal `json:"total_cash_in"`
	TotalCashOut decimal.Decimal `json:"total_cash_out"`
	NetMovement  decimal.Decimal `json:"net_movement"`
}

// Summarize counts cash_in and sale as money in, cash_out and adjustment as
// money out.
func Summarize(movements []domain.CashMovement) Summary {
	in, out := decimal.Zero, decimal.Zero
	for _, m := range movements {
		switch {
		case m.MovementType.Inflow():
			in = in.Add(m.Amount)
		case m.MovementType.Outflow():
			out = out.Add(m.Amount)
		}
	}
	return Summary{TotalCashIn: in, TotalCashOut: out, NetMovement: in.Sub(out)}
}

// BuildReport assembles the report data of a closed shift.
func BuildReport(info domain.ShiftInfo, movements []domain.CashMovement, txs []domain.Transaction) domain.ShiftReportData {
	sum := Summarize(movements)
	data := domain.ShiftReportData{
		ShiftInfo: info,
		CashSummary: domain.CashSummary{
			TotalCashIn:  sum.TotalCashIn,
			TotalCashOut: sum.TotalCashOut,
			NetMovement:  sum.NetMovement,
			InitialCash:  info.InitialCash,
			ExpectedCash: info.ExpectedCash,
			ActualCash:   info.ActualCash,
			Difference:   info.Difference,
		},
		Movements:    movements,
		Transactions: make([]domain.ReportTransaction, 0, len(txs)),
	}
	if data.Movements == nil {
		data.Movements = []domain.CashMovement{}
	}
	for _, tx := range txs {
		data.Transactions = append(data.Transactions, domain.ReportTransaction{
			ID:            tx.ID,
			Total:         tx.DiscountedTotal,
			Timestamp:     tx.Timestamp,
			PaymentMethod: tx.PaymentMethod,
			Items:         export.ItemsSummary(tx.Items, ", "),
		})
	}
	return data
}
