package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupDiscountRule is a conditional discount attached to a customer group.
// Exactly one of Percent / FixedAmount is set. Category and brand lists, when
// non-empty, restrict the rule to carts containing at least one matching item.
type GroupDiscountRule struct {
	ID                uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerGroupID   uint             `gorm:"index;not null" json:"customer_group_id"`
	Name              string           `gorm:"not null" json:"name"`
	Percent           *decimal.Decimal `gorm:"type:decimal(5,2)" json:"percent,omitempty"`
	FixedAmount       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"fixed_amount,omitempty"`
	MinCartAmount     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"min_cart_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_discount_amount,omitempty"`
	Categories        []Category       `gorm:"many2many:rule_categories" json:"categories"`
	Brands            []Brand          `gorm:"many2many:rule_brands" json:"brands"`
	ActiveFrom        *time.Time       `json:"active_from,omitempty"`
	ActiveUntil       *time.Time       `json:"active_until,omitempty"`
	IsActive          bool             `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time        `json:"created_at"`
}

// ActiveAt reports whether the rule's date window covers t.
func (r GroupDiscountRule) ActiveAt(t time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.ActiveFrom != nil && t.Before(*r.ActiveFrom) {
		return false
	}
	if r.ActiveUntil != nil && t.After(*r.ActiveUntil) {
		return false
	}
	return true
}
