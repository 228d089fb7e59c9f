package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog item. Stock is a denormalized total
// over the product's variants; checkout and the resync sweep rewrite it from
// SUM(product_variants.stock), so direct variant edits may drift it only
// transiently.
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id,string"`
	Name        string          `gorm:"index;size:200" json:"name" form:"name"`
	Description string          `gorm:"type:text" json:"description" form:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Stock       int64           `gorm:"default:0" json:"stock"`
	ProductCode string          `gorm:"size:64;uniqueIndex" json:"product_code" form:"product_code"`
	Colors      string          `gorm:"size:255" json:"colors" form:"colors"`
	IsActive    bool            `gorm:"default:true" json:"is_active" form:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// ProductVariant is a purchasable size/color/sku combination under a product,
// each with its own stock count and optional price.
type ProductVariant struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id,string"`
	ProductID int64            `gorm:"index;not null" json:"product_id,string" form:"product_id"`
	Size      string           `gorm:"size:32" json:"size" form:"size"`
	Color     *string          `gorm:"size:64" json:"color" form:"color"`
	Sku       string           `gorm:"size:64;uniqueIndex;not null" json:"sku" form:"sku"`
	Stock     int64            `gorm:"not null;default:0" json:"stock" form:"stock"`
	Price     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName Specify table name
func (ProductVariant) TableName() string {
	return "product_variants"
}

// DisplayPrice returns the variant price, falling back to the product price
// when the variant has none set. Display concern only; checkout snapshots
// unit prices itself.
func (v *ProductVariant) DisplayPrice(p *Product) decimal.Decimal {
	if v.Price != nil {
		return *v.Price
	}
	if p != nil {
		return p.Price
	}
	return decimal.Zero
}
