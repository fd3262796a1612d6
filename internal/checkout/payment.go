package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"tillpos-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Breakdown is the payment view of a cart total.
type Breakdown struct {
	Total           decimal.Decimal     `json:"total"`
	DiscountType    domain.DiscountType `json:"discountType"`
	DiscountValue   decimal.Decimal     `json:"discountValue"`
	Discount        decimal.Decimal     `json:"discount"`
	DiscountedTotal decimal.Decimal     `json:"discountedTotal"`
	PaymentAmount   decimal.Decimal     `json:"paymentAmount"`
	Change          decimal.Decimal     `json:"change"`
	Shortage        decimal.Decimal     `json:"shortage"`
}

// Compute applies one cart-level discount and splits the payment into change
// or shortage. Negative discount values and payments count as zero.
func Compute(total decimal.Decimal, discountType domain.DiscountType, discountValue, paymentAmount decimal.Decimal) Breakdown {
	if discountType == "" {
		discountType = domain.DiscountPercentage
	}
	discountValue = nonNegative(discountValue)
	payment := nonNegative(paymentAmount)

	var discount decimal.Decimal
	if discountType == domain.DiscountPercentage {
		discount = discountValue.Div(hundred).Mul(total)
	} else {
		discount = decimal.Min(discountValue, total)
	}
	discountedTotal := decimal.Max(decimal.Zero, total.Sub(discount))

	b := Breakdown{
		Total:           total,
		DiscountType:    discountType,
		DiscountValue:   discountValue,
		Discount:        total.Sub(discountedTotal),
		DiscountedTotal: discountedTotal,
		PaymentAmount:   payment,
		Change:          decimal.Zero,
		Shortage:        decimal.Zero,
	}
	if payment.GreaterThanOrEqual(discountedTotal) {
		b.Change = payment.Sub(discountedTotal)
	} else {
		b.Shortage = discountedTotal.Sub(payment)
	}
	return b
}

// CanSettle reports whether the breakdown can be submitted with method.
// Only cash needs the tendered amount to cover the discounted total.
func (b Breakdown) CanSettle(method domain.PaymentMethod) bool {
	if method != domain.PaymentCash {
		return true
	}
	return b.PaymentAmount.GreaterThanOrEqual(b.DiscountedTotal)
}

// ForMethod returns the breakdown as it is submitted for method. Non-cash
// payments are taken for exactly the discounted total.
func (b Breakdown) ForMethod(method domain.PaymentMethod) Breakdown {
	if method == domain.PaymentCash {
		return b
	}
	b.PaymentAmount = b.DiscountedTotal
	b.Change = decimal.Zero
	b.Shortage = decimal.Zero
	return b
}

// ParseAmount reads a user-entered amount. Blank or unparseable input is zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// Accept grouping commas as typed on the till ("100,000").
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
