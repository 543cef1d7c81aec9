package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"cart_id"`
	UserID    string     `gorm:"uniqueIndex" json:"user_id"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem references either a catalog product (ProductID set) or a
// free-form offer negotiated in chat (OfferTitle set). Exactly one of the
// two is present. UnitPrice is snapshotted at add-to-cart time and does not
// follow later catalog price changes.
type CartItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CartID     uint            `gorm:"index" json:"cart_id"`
	ProductID  *uint           `json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	OfferTitle string          `json:"offer_title,omitempty"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	AddedAt    time.Time       `json:"added_at"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
