package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string          `gorm:"not null" json:"name"`
	SKU        string          `gorm:"unique;not null" json:"sku"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock      int             `json:"stock"`
	BrandID    *uint           `json:"brand_id"`
	Brand      *Brand          `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	Categories []Category      `gorm:"many2many:product_categories" json:"categories"`
	IsActive   bool            `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

type Brand struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null" json:"name"`
}

type Category struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string    `gorm:"unique;not null" json:"name"`
	ParentID *uint     `json:"parent_id"`
	Products []Product `gorm:"many2many:product_categories" json:"-"`
}
