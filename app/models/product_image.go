package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductImage is one logical reference image of a product together with the
// relative paths of its derived variants. All paths are relative to the
// configured media root; the master path prefers the WebP variant when the
// derivation produced one.
type ProductImage struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	UUID      string  `gorm:"type:char(36);uniqueIndex;not null" json:"id"`
	ProductID uint    `gorm:"index;uniqueIndex:idx_image_product_order,priority:1;not null" json:"-"`
	Product   Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`

	PathMaster    string  `gorm:"type:varchar(255);not null" json:"-"`
	PathOriginal  string  `gorm:"type:varchar(255);not null" json:"-"`
	PathThumbnail *string `gorm:"type:varchar(255)" json:"-"`
	PathWebP      *string `gorm:"type:varchar(255)" json:"-"`

	// The composite unique index backs the single-primary/unique-order
	// guarantee against concurrent inserts: two transactions that computed
	// the same slot cannot both commit.
	DisplayOrder int  `gorm:"column:display_order;type:int;not null;default:0;uniqueIndex:idx_image_product_order,priority:2" json:"order"`
	IsPrimary    bool `gorm:"default:false" json:"is_primary"`

	Title       string `gorm:"type:varchar(255)" json:"title" validate:"max=255"`
	AltText     string `gorm:"type:varchar(255)" json:"alt_text" validate:"max=255"`
	Description string `gorm:"type:text" json:"description"`
	Tags        string `gorm:"type:varchar(500)" json:"tags" validate:"max=500"`

	Width    int    `gorm:"type:int" json:"width"`
	Height   int    `gorm:"type:int" json:"height"`
	Format   string `gorm:"type:varchar(20)" json:"format"`
	FileSize int64  `gorm:"type:bigint" json:"file_size"`
	Metadata *JSON  `gorm:"type:json" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for the ProductImage model
func (ProductImage) TableName() string {
	return "product_images"
}

// BeforeCreate fills the UUID when the caller did not set one
func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.New().String()
	}
	return nil
}

// MasterPath computes the served canonical path: the WebP variant when
// present, otherwise the untouched original.
func (i *ProductImage) MasterPath() string {
	if i.PathWebP != nil && *i.PathWebP != "" {
		return *i.PathWebP
	}
	return i.PathOriginal
}

// FindProductImageByUUID finds an image record by its UUID
func FindProductImageByUUID(db *gorm.DB, id string) (*ProductImage, error) {
	var image ProductImage
	result := db.Where("uuid = ?", id).First(&image)
	return &image, result.Error
}

// FindProductImagesByProductID returns all records of a product ordered for display
func FindProductImagesByProductID(db *gorm.DB, productID uint) ([]ProductImage, error) {
	var images []ProductImage
	result := db.Where("product_id = ?", productID).Order("display_order ASC").Find(&images)
	return images, result.Error
}
