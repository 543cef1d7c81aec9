// Package pricing implements discount resolution and line-item price
// computation for a priced cart. It is pure: no persistence, no transport.
// All monetary math uses decimals floored to whole currency units.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Kind discriminates discount candidates. Order is priority: a personal
// discount always outranks a group one, a group one always outranks a promo,
// regardless of monetary value. Discounts never stack: exactly zero or one
// candidate wins per cart.
type Kind int

const (
	KindPersonal Kind = iota
	KindGroup
	KindPromo
)

func (k Kind) String() string {
	switch k {
	case KindPersonal:
		return "personal"
	case KindGroup:
		return "group"
	case KindPromo:
		return "promo"
	default:
		return "unknown"
	}
}

// Value is a sealed union: Percent or Fixed.
type Value interface {
	// Realized is the monetary value of the discount at the given subtotal,
	// after capping. Used both for tie-breaking and for reporting.
	Realized(subtotal decimal.Decimal) decimal.Decimal
	// Cap returns the max-discount cap, if any.
	Cap() *decimal.Decimal

	sealedValue()
}

// Percent discounts a percentage (0-100) of eligible item subtotals,
// optionally capped at MaxAmount.
type Percent struct {
	Rate      decimal.Decimal
	MaxAmount *decimal.Decimal
}

func (p Percent) Realized(subtotal decimal.Decimal) decimal.Decimal {
	v := subtotal.Mul(p.Rate).Div(hundred).Floor()
	if p.MaxAmount != nil && v.GreaterThan(*p.MaxAmount) {
		v = *p.MaxAmount
	}
	return v
}

func (p Percent) Cap() *decimal.Decimal { return p.MaxAmount }

func (Percent) sealedValue() {}

// Fixed discounts a fixed amount, prorated across eligible items, optionally
// capped at MaxAmount.
type Fixed struct {
	Amount    decimal.Decimal
	MaxAmount *decimal.Decimal
}

func (f Fixed) Realized(subtotal decimal.Decimal) decimal.Decimal {
	v := f.Amount
	if v.GreaterThan(subtotal) {
		v = subtotal
	}
	if f.MaxAmount != nil && v.GreaterThan(*f.MaxAmount) {
		v = *f.MaxAmount
	}
	return v
}

func (f Fixed) Cap() *decimal.Decimal { return f.MaxAmount }

func (Fixed) sealedValue() {}

// Candidate is a potential discount before selection. Ephemeral: built per
// calculation, never persisted. A Rejected candidate (e.g. a promo code that
// failed validation) is carried through resolution for UI transparency but
// can never win.
type Candidate struct {
	Kind  Kind
	Label string
	Value Value

	// Conditions. Empty category/brand sets mean "whole cart".
	MinCartAmount *decimal.Decimal
	CategoryIDs   []uint
	BrandIDs      []uint

	// Source identifiers.
	RuleID    *uint
	PromoID   *uint
	PromoCode string

	Rejected bool
	Reason   string
}

// restricted reports whether the candidate limits itself to particular
// categories or brands.
func (c Candidate) restricted() bool {
	return len(c.CategoryIDs) > 0 || len(c.BrandIDs) > 0
}

// appliesTo reports whether a catalog item reference satisfies the
// candidate's category/brand restriction. Ad-hoc items never match a
// restricted candidate.
func (c Candidate) appliesTo(ref ItemRef) bool {
	if !c.restricted() {
		return true
	}
	cat, ok := ref.(CatalogRef)
	if !ok {
		return false
	}
	for _, want := range c.BrandIDs {
		if cat.BrandID != nil && *cat.BrandID == want {
			return true
		}
	}
	for _, want := range c.CategoryIDs {
		for _, have := range cat.CategoryIDs {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Applied is the winning candidate plus the realized amount actually
// deducted after proration and capping.
type Applied struct {
	Candidate
	TotalAmount decimal.Decimal
}
