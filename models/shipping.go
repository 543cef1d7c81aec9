package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryMethod configures a shipping option. Weekdays is a comma-separated
// list of time.Weekday numbers (0 = Sunday); empty means every day.
// OpenFrom/OpenUntil are "HH:MM" bounds on order placement; empty means no
// bound.
type DeliveryMethod struct {
	ID                    uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                  string           `gorm:"not null" json:"name"`
	Price                 decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	FreeShippingThreshold *decimal.Decimal `gorm:"type:decimal(12,2)" json:"free_shipping_threshold,omitempty"`
	Weekdays              string           `json:"weekdays"`
	OpenFrom              string           `json:"open_from"`
	OpenUntil             string           `json:"open_until"`
	IsActive              bool             `gorm:"default:true" json:"is_active"`
}

// AvailableAt reports whether orders may be placed with this method at t.
func (m DeliveryMethod) AvailableAt(t time.Time) bool {
	if m.Weekdays != "" {
		ok := false
		for _, part := range strings.Split(m.Weekdays, ",") {
			d, err := strconv.Atoi(strings.TrimSpace(part))
			if err == nil && time.Weekday(d) == t.Weekday() {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	hm := t.Format("15:04")
	if m.OpenFrom != "" && hm < m.OpenFrom {
		return false
	}
	if m.OpenUntil != "" && hm > m.OpenUntil {
		return false
	}
	return true
}

// ShippingFor returns the shipping charge for a given goods amount
// (post-discount), honouring the free-shipping threshold.
func (m DeliveryMethod) ShippingFor(amount decimal.Decimal) decimal.Decimal {
	if m.FreeShippingThreshold != nil && amount.GreaterThanOrEqual(*m.FreeShippingThreshold) {
		return decimal.Zero
	}
	return m.Price
}

// PaymentMethod configures how an order may be paid. Min/MaxOrderAmount
// bound the order total; nil means unbounded. IsOnline methods get a payment
// URL generated after checkout.
type PaymentMethod struct {
	ID             uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string           `gorm:"not null" json:"name"`
	Code           string           `gorm:"unique;not null" json:"code"`
	MinOrderAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"min_order_amount,omitempty"`
	MaxOrderAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_order_amount,omitempty"`
	IsOnline       bool             `json:"is_online"`
	IsActive       bool             `gorm:"default:true" json:"is_active"`
}

// Allows reports whether total falls inside the method's amount bounds.
func (m PaymentMethod) Allows(total decimal.Decimal) bool {
	if m.MinOrderAmount != nil && total.LessThan(*m.MinOrderAmount) {
		return false
	}
	if m.MaxOrderAmount != nil && total.GreaterThan(*m.MaxOrderAmount) {
		return false
	}
	return true
}
