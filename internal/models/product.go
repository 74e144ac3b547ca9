package models

import "gorm.io/gorm"

// DefaultUnit is the display unit used when a product row carries none.
const DefaultUnit = "UND"

// Product represents a product in the store catalog.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Unit        string  `json:"unit" gorm:"type:varchar(20)"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	Active      bool    `json:"active" gorm:"default:true"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// DisplayUnit returns the product's unit label, falling back to DefaultUnit.
func (p *Product) DisplayUnit() string {
	if p.Unit == "" {
		return DefaultUnit
	}
	return p.Unit
}
