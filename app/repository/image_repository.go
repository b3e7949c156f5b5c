package repository

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/sumimedical/suministros-backend/app/models"
)

// imageRepository implements the ImageRepository interface
type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new image repository instance
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

// transact runs fn in a transaction and retries once when the database
// reports a conflict with a concurrent writer; a second failure surfaces.
func (r *imageRepository) transact(fn func(tx *gorm.DB) error) error {
	err := r.db.Transaction(fn)
	if err != nil && isWriteConflict(err) {
		err = r.db.Transaction(fn)
	}
	return err
}

// isWriteConflict covers deadlocks and unique-key collisions on the
// (product_id, display_order) index. Under snapshot isolation two concurrent
// inserts can compute the same slot; the loser hits the index and the retry
// recomputes order and primary against the committed sibling.
func isWriteConflict(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "1213") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint")
}

func validateVariants(variants VariantPaths) error {
	if variants.Original == "" {
		return fmt.Errorf("%w: original path is empty", ErrInvariantViolation)
	}
	for _, p := range []*string{&variants.Original, variants.Thumbnail, variants.WebP} {
		if p == nil || *p == "" {
			continue
		}
		if filepath.IsAbs(*p) || strings.HasPrefix(*p, "/") {
			return fmt.Errorf("%w: absolute path %s in index", ErrInvariantViolation, *p)
		}
	}
	return nil
}

// checkInvariants re-reads the product's records inside the transaction and
// verifies I1-I5 before commit.
func checkInvariants(tx *gorm.DB, productID uint) error {
	var records []models.ProductImage
	if err := tx.Where("product_id = ?", productID).Find(&records).Error; err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	primaries := 0
	orders := make(map[int]bool, len(records))
	for _, rec := range records {
		if rec.IsPrimary {
			primaries++
		}
		if rec.DisplayOrder < 0 || orders[rec.DisplayOrder] {
			return fmt.Errorf("%w: duplicate or negative order %d for product %d", ErrInvariantViolation, rec.DisplayOrder, productID)
		}
		orders[rec.DisplayOrder] = true
		if rec.PathOriginal == "" || strings.HasPrefix(rec.PathOriginal, "/") {
			return fmt.Errorf("%w: bad original path %q", ErrInvariantViolation, rec.PathOriginal)
		}
		if rec.PathMaster != rec.MasterPath() {
			return fmt.Errorf("%w: master path %q does not follow the WebP-else-original rule", ErrInvariantViolation, rec.PathMaster)
		}
	}
	if primaries != 1 {
		return fmt.Errorf("%w: product %d has %d primary images", ErrInvariantViolation, productID, primaries)
	}
	return nil
}

// Create inserts a new record. The first record of a product becomes primary
// with order 0; later records append after the current maximum.
func (r *imageRepository) Create(productID uint, variants VariantPaths, meta ImageMetadata) (*models.ProductImage, error) {
	if err := validateVariants(variants); err != nil {
		return nil, err
	}

	record := &models.ProductImage{
		ProductID:     productID,
		PathOriginal:  variants.Original,
		PathThumbnail: variants.Thumbnail,
		PathWebP:      variants.WebP,
		Title:         meta.Title,
		AltText:       meta.AltText,
		Description:   meta.Description,
		Tags:          meta.Tags,
		Width:         meta.Width,
		Height:        meta.Height,
		Format:        meta.Format,
		FileSize:      meta.FileSize,
		Metadata:      meta.Extra,
	}
	record.PathMaster = record.MasterPath()

	err := r.transact(func(tx *gorm.DB) error {
		record.ID = 0
		var count int64
		if err := tx.Model(&models.ProductImage{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			record.IsPrimary = true
			record.DisplayOrder = 0
		} else {
			var maxOrder int
			row := tx.Model(&models.ProductImage{}).Where("product_id = ?", productID).
				Select("COALESCE(MAX(display_order), -1)").Row()
			if err := row.Scan(&maxOrder); err != nil {
				return err
			}
			record.IsPrimary = false
			record.DisplayOrder = maxOrder + 1
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return checkInvariants(tx, productID)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *imageRepository) GetByUUID(uuid string) (*models.ProductImage, error) {
	record, err := models.FindProductImageByUUID(r.db, uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *imageRepository) ListByProduct(productID uint) ([]models.ProductImage, error) {
	return models.FindProductImagesByProductID(r.db, productID)
}

func (r *imageRepository) FindByProductAndOriginal(productID uint, pathOriginal string) (*models.ProductImage, error) {
	var record models.ProductImage
	err := r.db.Where("product_id = ? AND path_original = ?", productID, pathOriginal).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// UpdateMetadata patches the descriptive fields of a record.
func (r *imageRepository) UpdateMetadata(uuid string, update MetadataUpdate) (*models.ProductImage, error) {
	var record models.ProductImage
	err := r.transact(func(tx *gorm.DB) error {
		if err := tx.Where("uuid = ?", uuid).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		updates := map[string]interface{}{}
		if update.Title != nil {
			updates["title"] = *update.Title
			record.Title = *update.Title
		}
		if update.AltText != nil {
			updates["alt_text"] = *update.AltText
			record.AltText = *update.AltText
		}
		if update.Description != nil {
			updates["description"] = *update.Description
			record.Description = *update.Description
		}
		if update.Tags != nil {
			updates["tags"] = *update.Tags
			record.Tags = *update.Tags
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&record).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SetPrimary atomically moves the primary flag to the target record.
func (r *imageRepository) SetPrimary(uuid string) (*models.ProductImage, error) {
	var record models.ProductImage
	err := r.transact(func(tx *gorm.DB) error {
		if err := tx.Where("uuid = ?", uuid).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&models.ProductImage{}).
			Where("product_id = ? AND id <> ?", record.ProductID, record.ID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&record).Update("is_primary", true).Error; err != nil {
			return err
		}
		record.IsPrimary = true
		return checkInvariants(tx, record.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Reorder rewrites the display order to the supplied sequence. The sequence
// must permute the product's existing records.
func (r *imageRepository) Reorder(productID uint, uuids []string) error {
	return r.transact(func(tx *gorm.DB) error {
		var records []models.ProductImage
		if err := tx.Where("product_id = ?", productID).Find(&records).Error; err != nil {
			return err
		}
		if len(records) != len(uuids) {
			return ErrInvalidReorder
		}
		existing := make(map[string]uint, len(records))
		for _, rec := range records {
			existing[rec.UUID] = rec.ID
		}
		ids := make([]uint, 0, len(uuids))
		for _, id := range uuids {
			recID, ok := existing[id]
			if !ok {
				return ErrInvalidReorder
			}
			delete(existing, id)
			ids = append(ids, recID)
		}
		// Two passes through a negative scratch range keep the
		// (product_id, display_order) index unique at every statement.
		for idx, recID := range ids {
			if err := tx.Model(&models.ProductImage{}).Where("id = ?", recID).
				Update("display_order", -(idx + 1)).Error; err != nil {
				return err
			}
		}
		for idx, recID := range ids {
			if err := tx.Model(&models.ProductImage{}).Where("id = ?", recID).
				Update("display_order", idx).Error; err != nil {
				return err
			}
		}
		return checkInvariants(tx, productID)
	})
}

// Delete removes a record. When the primary record is deleted and siblings
// remain, the sibling with the lowest order is promoted. The removed record
// is returned so callers can delete its files.
func (r *imageRepository) Delete(uuid string) (*models.ProductImage, error) {
	var record models.ProductImage
	err := r.transact(func(tx *gorm.DB) error {
		if err := tx.Where("uuid = ?", uuid).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Delete(&models.ProductImage{}, record.ID).Error; err != nil {
			return err
		}
		if record.IsPrimary {
			var successor models.ProductImage
			err := tx.Where("product_id = ?", record.ProductID).
				Order("display_order ASC").First(&successor).Error
			if err == nil {
				if err := tx.Model(&successor).Update("is_primary", true).Error; err != nil {
					return err
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return checkInvariants(tx, record.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Purge deletes all records of a product (rebuild reconciliation).
func (r *imageRepository) Purge(productID uint) error {
	return r.transact(func(tx *gorm.DB) error {
		return tx.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error
	})
}
