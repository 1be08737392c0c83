package model

import (
	"time"

	"gorm.io/gorm"
)

// MaxGalleryImages bounds the gallery of every product.
const MaxGalleryImages = 5

type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Name            string         `gorm:"not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	RichDescription string         `gorm:"type:text" json:"rich_description"`
	Brand           string         `json:"brand"`
	Price           float64        `gorm:"not null;default:0" json:"price"`
	Rating          float64        `gorm:"default:0" json:"rating"`
	NumReviews      int            `gorm:"default:0" json:"num_reviews"`
	CountInStock    int            `gorm:"not null;default:0" json:"count_in_stock"`
	Image           string         `json:"image"`
	Images          []string       `gorm:"serializer:json" json:"images"`
	CategoryID      uint           `gorm:"not null;index" json:"category_id"`
	IsFeatured      bool           `gorm:"default:false" json:"is_featured"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Category   Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:ProductID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
