package models

import (
	"time"

	"gorm.io/gorm"
)

// Product kinds. Each kind owns a parallel subtree under the media root.
const (
	KindOfertado   = "ofertado"
	KindDisponible = "disponible"
)

type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" validate:"required,max=50"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Kind      string         `gorm:"type:varchar(20);not null;index" json:"kind" validate:"oneof=ofertado disponible"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Images []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"imagenes,omitempty"`
}

// BeforeCreate validates the kind before inserting
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.Kind != KindOfertado && p.Kind != KindDisponible {
		return gorm.ErrInvalidValue
	}
	return nil
}

// FindProductByKindAndCode finds a product by kind and code
func FindProductByKindAndCode(db *gorm.DB, kind, code string) (*Product, error) {
	var product Product
	result := db.Where("kind = ? AND code = ?", kind, code).First(&product)
	return &product, result.Error
}
