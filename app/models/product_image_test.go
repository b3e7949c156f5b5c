package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}, &ProductImage{}))
	return db
}

func TestFinders(t *testing.T) {
	t.Parallel()

	db := setupDB(t)
	product := &Product{Code: "OFT-1", Name: "Oximetro", Kind: KindOfertado}
	require.NoError(t, db.Create(product).Error)

	second := &ProductImage{
		ProductID:    product.ID,
		PathMaster:   "productos/productosofertados/imagenes/OFT-1/originales/original_20240101_110000.jpg",
		PathOriginal: "productos/productosofertados/imagenes/OFT-1/originales/original_20240101_110000.jpg",
		DisplayOrder: 1,
	}
	require.NoError(t, db.Create(second).Error)
	first := &ProductImage{
		ProductID:    product.ID,
		PathMaster:   "productos/productosofertados/imagenes/OFT-1/originales/original_20240101_100000.jpg",
		PathOriginal: "productos/productosofertados/imagenes/OFT-1/originales/original_20240101_100000.jpg",
		DisplayOrder: 0,
		IsPrimary:    true,
	}
	require.NoError(t, db.Create(first).Error)

	// BeforeCreate filled the UUID.
	assert.NotEmpty(t, first.UUID)

	found, err := FindProductByKindAndCode(db, KindOfertado, "OFT-1")
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)
	_, err = FindProductByKindAndCode(db, KindDisponible, "OFT-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	record, err := FindProductImageByUUID(db, first.UUID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, record.ID)

	// Listing is display-order ascending regardless of insert order.
	records, err := FindProductImagesByProductID(db, product.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.UUID, records[0].UUID)
	assert.Equal(t, second.UUID, records[1].UUID)
}

func TestMasterPathPrefersWebP(t *testing.T) {
	t.Parallel()

	webp := "productos/x/webp/webp_20240101_100000.webp"
	record := ProductImage{PathOriginal: "productos/x/originales/original_20240101_100000.jpg", PathWebP: &webp}
	assert.Equal(t, webp, record.MasterPath())

	record.PathWebP = nil
	assert.Equal(t, record.PathOriginal, record.MasterPath())
}
