package repository

import (
	"gorm.io/gorm"

	"github.com/sumimedical/suministros-backend/app/models"
)

// VariantPaths carries the media-root-relative paths of one derived variant
// set. Original is mandatory; thumbnail and WebP may be missing when their
// derivation failed (reconciled legacy uploads).
type VariantPaths struct {
	Original  string
	Thumbnail *string
	WebP      *string
}

// ImageMetadata carries the descriptive fields supplied at creation time.
type ImageMetadata struct {
	Title       string
	AltText     string
	Description string
	Tags        string
	Width       int
	Height      int
	Format      string
	FileSize    int64
	Extra       *models.JSON
}

// MetadataUpdate holds the patchable fields; nil pointers leave the stored
// value untouched.
type MetadataUpdate struct {
	Title       *string
	AltText     *string
	Description *string
	Tags        *string
}

// ProductRepository defines the product lookups the pipeline needs.
type ProductRepository interface {
	Create(product *models.Product) error
	GetByKindAndCode(kind, code string) (*models.Product, error)
	ListByKind(kind string) ([]models.Product, error)
	Delete(id uint) error
}

// ImageRepository is the authoritative index of product image records. All
// mutating operations run in a transaction and re-check the index invariants
// before commit: exactly one primary per non-empty product, unique display
// orders, relative paths, master path matching the WebP-else-original rule.
type ImageRepository interface {
	Create(productID uint, variants VariantPaths, meta ImageMetadata) (*models.ProductImage, error)
	GetByUUID(uuid string) (*models.ProductImage, error)
	ListByProduct(productID uint) ([]models.ProductImage, error)
	FindByProductAndOriginal(productID uint, pathOriginal string) (*models.ProductImage, error)
	UpdateMetadata(uuid string, update MetadataUpdate) (*models.ProductImage, error)
	SetPrimary(uuid string) (*models.ProductImage, error)
	Reorder(productID uint, uuids []string) error
	Delete(uuid string) (*models.ProductImage, error)
	Purge(productID uint) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Product ProductRepository
	Image   ImageRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product: NewProductRepository(db),
		Image:   NewImageRepository(db),
	}
}
