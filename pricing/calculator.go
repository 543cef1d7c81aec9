package pricing

import "github.com/shopspring/decimal"

// ItemCalculation is one per-item pricing row.
type ItemCalculation struct {
	Item           LineItem
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	// DiscountSkipped flags rows the winning discount did not reach (ad-hoc
	// items, restriction mismatch); the row still counts toward subtotal.
	DiscountSkipped bool
	SkipReason      string
}

// Calculation is the full pricing result for a cart. TotalDiscount may be
// less than the winner's nominal value: fixed-amount proration floors each
// share and the remainder is deliberately not redistributed. When a cap
// rescales the per-item amounts, TotalDiscount equals the cap exactly.
type Calculation struct {
	Items         []ItemCalculation
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	Applied       *Applied
}

// Calculate applies the winning discount (nil for none) to the available
// line items. Unavailable items must be excluded by the caller before this
// stage.
func Calculate(items []LineItem, winner *Candidate) Calculation {
	calc := Calculation{
		Items:         make([]ItemCalculation, len(items)),
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
	}

	eligibleSubtotal := decimal.Zero
	for i, li := range items {
		row := ItemCalculation{Item: li, Subtotal: li.Subtotal()}
		calc.Subtotal = calc.Subtotal.Add(row.Subtotal)

		if winner != nil {
			if _, adHoc := li.Ref.(AdHocRef); adHoc {
				row.DiscountSkipped = true
				row.SkipReason = "discounts do not apply to free-form offer items"
			} else if !winner.appliesTo(li.Ref) {
				row.DiscountSkipped = true
				row.SkipReason = "item does not match the discount's category or brand restriction"
			} else {
				eligibleSubtotal = eligibleSubtotal.Add(row.Subtotal)
			}
		}
		calc.Items[i] = row
	}

	if winner == nil || eligibleSubtotal.IsZero() {
		for i := range calc.Items {
			calc.Items[i].Total = calc.Items[i].Subtotal
		}
		return calc
	}

	summed := decimal.Zero
	for i := range calc.Items {
		row := &calc.Items[i]
		if row.DiscountSkipped {
			continue
		}
		var d decimal.Decimal
		switch v := winner.Value.(type) {
		case Percent:
			d = row.Subtotal.Mul(v.Rate).Div(hundred).Floor()
		case Fixed:
			d = v.Amount.Mul(row.Subtotal).Div(eligibleSubtotal).Floor()
		}
		// Item totals never go negative.
		if d.GreaterThan(row.Subtotal) {
			d = row.Subtotal
		}
		row.DiscountAmount = d
		summed = summed.Add(d)
	}

	total := summed
	if cap := winner.Value.Cap(); cap != nil && summed.GreaterThan(*cap) {
		// Rescale every per-item amount proportionally; the realized total
		// becomes exactly the cap.
		for i := range calc.Items {
			row := &calc.Items[i]
			if row.DiscountSkipped || row.DiscountAmount.IsZero() {
				continue
			}
			row.DiscountAmount = row.DiscountAmount.Mul(*cap).Div(summed).Floor()
		}
		total = *cap
	}

	for i := range calc.Items {
		calc.Items[i].Total = calc.Items[i].Subtotal.Sub(calc.Items[i].DiscountAmount)
	}

	calc.TotalDiscount = total
	applied := Applied{Candidate: *winner, TotalAmount: total}
	calc.Applied = &applied
	return calc
}
