package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin" // top privilege: may force any status transition
)

type User struct {
	ID              string          `gorm:"primaryKey" json:"id"`
	Email           string          `gorm:"unique;not null" json:"email"`
	PasswordHash    string          `json:"-"`
	Phone           string          `json:"phone"`
	Name            string          `json:"name"`
	Role            Role            `gorm:"type:VARCHAR(20);default:'customer'" json:"role"`
	PersonalPercent decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"personal_percent"` // personal discount, 0 = none
	CustomerGroupID *uint           `json:"customer_group_id"`
	CustomerGroup   *CustomerGroup  `gorm:"foreignKey:CustomerGroupID" json:"customer_group,omitempty"`
	Address         Address         `gorm:"embedded" json:"address"`
	Cart            Cart            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"cart"`
	Orders          []Order         `gorm:"foreignKey:UserID" json:"orders"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Address is embedded in User and snapshotted onto every Order.
type Address struct {
	Country    string `json:"country"`
	Region     string `json:"region"`
	City       string `json:"city"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
}

type CustomerGroup struct {
	ID          uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string              `gorm:"unique;not null" json:"name"`
	BasePercent decimal.Decimal     `gorm:"type:decimal(5,2);default:0" json:"base_percent"`
	Rules       []GroupDiscountRule `gorm:"foreignKey:CustomerGroupID;constraint:OnDelete:CASCADE" json:"rules"`
	CreatedAt   time.Time           `json:"created_at"`
}
