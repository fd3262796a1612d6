package receipt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"tillpos-backend/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

// RenderReceipt lays out one sale.
func RenderReceipt(t Template, storeName, storeAddress string, tx domain.Transaction) string {
	var b page
	b.width = t.PaperWidth

	if t.Header.ShowStoreName && storeName != "" {
		b.aligned(t.Header.TextAlign, "=== "+storeName+" ===")
	}
	if t.Header.ShowAddress && storeAddress != "" {
		for _, l := range wrap(storeAddress, b.width) {
			b.aligned(t.Header.TextAlign, l)
		}
	}
	b.rule()
	b.line("Transaction: " + tx.ID)
	b.line("Date: " + tx.Timestamp.Local().Format(timeLayout))
	b.rule()

	for _, it := range tx.Items {
		name := truncate(fmt.Sprintf("%s x%d", it.Name, it.Quantity), t.Items.MaxItemLength)
		b.pair(name, money(t, it.Subtotal))
		if t.Totals.ShowDiscount && it.Discount.IsPositive() {
			b.pair("  disc", "-"+money(t, it.Discount))
		}
	}
	b.rule()

	discount := tx.Total.Sub(tx.DiscountedTotal)
	if t.Totals.ShowSubtotal && !discount.IsZero() {
		b.pair("Subtotal", money(t, tx.Total))
	}
	if t.Totals.ShowDiscount && discount.IsPositive() {
		label := "Discount"
		if tx.DiscountType == domain.DiscountPercentage {
			label = fmt.Sprintf("Discount (%s%%)", tx.DiscountValue.String())
		}
		b.pair(label, "-"+money(t, discount))
	}
	b.pair("TOTAL", money(t, tx.DiscountedTotal))
	b.pair("Payment ("+string(tx.PaymentMethod)+")", money(t, tx.PaymentAmount))
	if tx.Change.IsPositive() {
		b.pair("Change", money(t, tx.Change))
	}
	b.rule()

	if msg := t.Footer.ThankYouMessage; msg != "" {
		b.aligned(t.Footer.TextAlign, msg)
	}
	for _, l := range wrap(t.Footer.ReturnPolicy, b.width) {
		b.aligned(t.Footer.TextAlign, l)
	}
	return b.String()
}

// RenderShiftReport lays out a closed shift's report.
func RenderShiftReport(t Template, storeName, storeAddress string, r domain.ShiftReport) string {
	var b page
	b.width = t.PaperWidth
	info := r.Data.ShiftInfo
	sum := r.Data.CashSummary

	b.aligned("center", "SHIFT REPORT")
	if storeName != "" {
		b.aligned("center", storeName)
	}
	for _, l := range wrap(storeAddress, b.width) {
		b.aligned("center", l)
	}
	b.rule()
	b.line("Shift: " + info.ID)
	b.line("Cashier: " + info.UserName)
	if info.RegisterName != "" {
		b.line("Register: " + info.RegisterName)
	}
	b.line("Start: " + info.StartTime.Local().Format(timeLayout))
	if info.EndTime != nil {
		b.line("End: " + info.EndTime.Local().Format(timeLayout))
	}
	b.rule()

	b.pair("Initial cash", money(t, sum.InitialCash))
	b.pair("Cash in", money(t, sum.TotalCashIn))
	b.pair("Cash out", money(t, sum.TotalCashOut))
	b.pair("Net movement", money(t, sum.NetMovement))
	b.pair("Expected", money(t, sum.ExpectedCash))
	if sum.ActualCash != nil {
		b.pair("Actual", money(t, *sum.ActualCash))
	}
	if sum.Difference != nil {
		b.pair("Difference", signedMoney(t, *sum.Difference))
	}
	b.rule()

	b.line(fmt.Sprintf("Transactions: %d", len(r.Data.Transactions)))
	for _, tx := range r.Data.Transactions {
		b.pair(truncate(tx.Timestamp.Local().Format("15:04")+" "+string(tx.PaymentMethod), b.width/2), money(t, tx.Total))
	}
	if info.Notes != nil && *info.Notes != "" {
		b.rule()
		for _, l := range wrap("Notes: "+*info.Notes, b.width) {
			b.line(l)
		}
	}
	b.rule()
	b.line("Generated: " + r.GeneratedAt.Local().Format(timeLayout))
	return b.String()
}

type page struct {
	strings.Builder
	width int
}

func (p *page) line(s string) {
	p.WriteString(s)
	p.WriteByte('\n')
}

func (p *page) rule() { p.line(strings.Repeat("-", p.width)) }

func (p *page) aligned(align, s string) {
	n := utf8.RuneCountInString(s)
	if align != "center" || n >= p.width {
		p.line(s)
		return
	}
	p.line(strings.Repeat(" ", (p.width-n)/2) + s)
}

// pair prints left and right on one line, right-aligned to the page width.
// When both do not fit, right moves to its own line.
func (p *page) pair(left, right string) {
	gap := p.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		p.line(left)
		p.line(strings.Repeat(" ", max(p.width-utf8.RuneCountInString(right), 0)) + right)
		return
	}
	p.line(left + strings.Repeat(" ", gap) + right)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func wrap(s string, width int) []string {
	var out []string
	var cur string
	for _, w := range strings.Fields(s) {
		switch {
		case cur == "":
			cur = w
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(w) <= width:
			cur += " " + w
		default:
			out = append(out, cur)
			cur = w
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func signedMoney(t Template, d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + money(t, d)
	}
	return money(t, d)
}

// money formats d with thousands separators and the template currency.
// Whole amounts print without decimals.
func money(t Template, d decimal.Decimal) string {
	s := FormatAmount(d)
	if t.Currency == "" {
		return s
	}
	if strings.HasPrefix(s, "-") {
		return "-" + t.Currency + s[1:]
	}
	return t.Currency + s
}

// FormatAmount renders d as 100,000 or 12,345.50.
func FormatAmount(d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs()

	var s string
	if d.Equal(d.Truncate(0)) {
		s = d.StringFixed(0)
	} else {
		s = d.StringFixed(2)
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
