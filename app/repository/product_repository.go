package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sumimedical/suministros-backend/app/models"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepository) GetByKindAndCode(kind, code string) (*models.Product, error) {
	product, err := models.FindProductByKindAndCode(r.db, kind, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) ListByKind(kind string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("kind = ?", kind).Order("code ASC").Find(&products).Error
	return products, err
}

// Delete removes a product; its image rows go with it via the cascade.
func (r *productRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
}
