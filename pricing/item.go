package pricing

import "github.com/shopspring/decimal"

// ItemRef is a sealed union: a line item points either at a catalog product
// or at a free-form offer created in chat.
type ItemRef interface {
	sealedRef()
}

// CatalogRef identifies a catalog product together with the metadata
// discount restrictions match against.
type CatalogRef struct {
	ProductID   uint
	BrandID     *uint
	CategoryIDs []uint
}

func (CatalogRef) sealedRef() {}

// AdHocRef is a free-form chat-originated offer. It carries no catalog
// metadata, so restricted discounts never apply to it.
type AdHocRef struct {
	Title string
}

func (AdHocRef) sealedRef() {}

// LineItem is the pricing view of one cart entry. UnitPrice is the snapshot
// captured at add-to-cart time.
type LineItem struct {
	ID        uint
	Ref       ItemRef
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// SubtotalOf sums the line totals of the given items.
func SubtotalOf(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.Subtotal())
	}
	return sum
}
