package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode is a redeemable code. Exactly one of Percent / FixedAmount is
// set. A non-nil OwnerUserID makes the code personal: only that user may
// redeem it. UsageLimit 0 means unlimited.
type PromoCode struct {
	ID                uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Code              string           `gorm:"uniqueIndex;not null" json:"code"`
	Percent           *decimal.Decimal `gorm:"type:decimal(5,2)" json:"percent,omitempty"`
	FixedAmount       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"fixed_amount,omitempty"`
	MinCartAmount     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"min_cart_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_discount_amount,omitempty"`
	StartsAt          *time.Time       `json:"starts_at,omitempty"`
	EndsAt            *time.Time       `json:"ends_at,omitempty"`
	UsageLimit        int              `json:"usage_limit"`
	UsageCount        int              `json:"usage_count"`
	OwnerUserID       *string          `json:"owner_user_id,omitempty"`
	IsActive          bool             `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time        `json:"created_at"`
}

// PromoCodeUsage records a redemption. The (promo, user) pair is unique:
// each user may redeem a given code at most once.
type PromoCodeUsage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PromoCodeID uint      `gorm:"uniqueIndex:idx_promo_user;not null" json:"promo_code_id"`
	UserID      string    `gorm:"uniqueIndex:idx_promo_user;not null" json:"user_id"`
	OrderID     uint      `gorm:"not null" json:"order_id"`
	CreatedAt   time.Time `json:"created_at"`
}
