package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Well-known status codes. The OrderStatus table is the source of truth for
// flags and ordering; these constants only name the rows the code has to
// recognise explicitly.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusConfirmed  = "confirmed"
	StatusPaid       = "paid"
	StatusPacking    = "packing"
	StatusShipping   = "shipping"
	StatusDelivering = "delivering"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

type OrderStatus struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string `gorm:"unique;not null" json:"code"`
	Name           string `gorm:"not null" json:"name"`
	IsInitial      bool   `json:"is_initial"`
	IsFinalSuccess bool   `json:"is_final_success"`
	IsFinalFailure bool   `json:"is_final_failure"`
	CanCancelOrder bool   `json:"can_cancel_order"` // owner may self-cancel while in this status
	SortOrder      int    `json:"sort_order"`
	IsActive       bool   `gorm:"default:true" json:"is_active"`
}

func (s OrderStatus) IsTerminal() bool {
	return s.IsFinalSuccess || s.IsFinalFailure
}

type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderNumber      string          `gorm:"uniqueIndex;not null" json:"order_number"` // YYMMDD-NNN, sequence resets daily
	UserID           string          `gorm:"not null" json:"user_id"`
	User             User            `gorm:"foreignKey:UserID" json:"user"`
	StatusID         uint            `gorm:"not null" json:"status_id"`
	Status           OrderStatus     `gorm:"foreignKey:StatusID" json:"status"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	ShippingAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_amount"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DeliveryMethodID uint            `json:"delivery_method_id"`
	DeliveryMethod   DeliveryMethod  `gorm:"foreignKey:DeliveryMethodID" json:"delivery_method"`
	PaymentMethodID  uint            `json:"payment_method_id"`
	PaymentMethod    PaymentMethod   `gorm:"foreignKey:PaymentMethodID" json:"payment_method"`
	PromoCodeID      *uint           `json:"promo_code_id"`
	ShippingAddress  Address         `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	Comment          string          `json:"comment"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	StatusLogs       []OrderStatusLog `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_logs"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderItem is immutable once created. ProductID is nil for free-form
// chat-originated offers; Title always carries the display name snapshot.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index" json:"order_id"`
	ProductID *uint           `json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Title     string          `gorm:"not null" json:"title"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"` // line total after discount
}

// OrderStatusLog is append-only: one row per transition, never updated or
// deleted. The previous status is implied by the prior entry.
type OrderStatusLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"index" json:"order_id"`
	StatusID  uint        `gorm:"not null" json:"status_id"`
	Status    OrderStatus `gorm:"foreignKey:StatusID" json:"status"`
	ActorID   string      `json:"actor_id"`
	Comment   string      `json:"comment"`
	CreatedAt time.Time   `json:"created_at"`
}

// SeedOrderStatuses inserts the reference status set if missing. Safe to run
// on every boot.
func SeedOrderStatuses(db *gorm.DB) error {
	statuses := []OrderStatus{
		{Code: StatusNew, Name: "New", IsInitial: true, CanCancelOrder: true, SortOrder: 1, IsActive: true},
		{Code: StatusProcessing, Name: "Processing", CanCancelOrder: true, SortOrder: 2, IsActive: true},
		{Code: StatusConfirmed, Name: "Confirmed", CanCancelOrder: true, SortOrder: 3, IsActive: true},
		{Code: StatusPaid, Name: "Paid", SortOrder: 4, IsActive: true},
		{Code: StatusPacking, Name: "Packing", SortOrder: 5, IsActive: true},
		{Code: StatusShipping, Name: "Shipping", SortOrder: 6, IsActive: true},
		{Code: StatusDelivering, Name: "Delivering", SortOrder: 7, IsActive: true},
		{Code: StatusCompleted, Name: "Completed", IsFinalSuccess: true, SortOrder: 8, IsActive: true},
		{Code: StatusCancelled, Name: "Cancelled", IsFinalFailure: true, SortOrder: 9, IsActive: true},
		{Code: StatusRefunded, Name: "Refunded", IsFinalFailure: true, SortOrder: 10, IsActive: true},
	}
	for _, s := range statuses {
		var existing OrderStatus
		err := db.Where("code = ?", s.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&s).Error; err != nil {
			return err
		}
	}
	return nil
}
