// Package uploader coordinates the ingress path: resolve the owning
// product, derive the variant set, then register it in the image index.
// It owns the failure contract of that sequence — the index never holds a
// row whose files are missing, and failed uploads leave no files behind.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2/log"

	"github.com/sumimedical/suministros-backend/app/models"
	"github.com/sumimedical/suministros-backend/app/repository"
	"github.com/sumimedical/suministros-backend/internal/pkg/config"
	"github.com/sumimedical/suministros-backend/internal/pkg/imageprocessor"
	"github.com/sumimedical/suministros-backend/internal/pkg/mediapath"
)

// ErrUnknownProduct is returned when the addressed product does not exist.
var ErrUnknownProduct = errors.New("uploader: unknown product")

// Metadata carries the caller-supplied descriptive fields of an upload.
type Metadata struct {
	Title       string
	AltText     string
	Description string
	Tags        string
}

type Uploader struct {
	media     config.Media
	processor *imageprocessor.Processor
	products  repository.ProductRepository
	images    repository.ImageRepository
}

func New(media config.Media, processor *imageprocessor.Processor, products repository.ProductRepository, images repository.ImageRepository) *Uploader {
	return &Uploader{
		media:     media,
		processor: processor,
		products:  products,
		images:    images,
	}
}

// Upload ingests one source image for the product addressed by kind+code.
func (u *Uploader) Upload(ctx context.Context, kind, code string, src io.Reader, filenameHint string, meta Metadata) (*models.ProductImage, error) {
	product, err := u.products.GetByKindAndCode(kind, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrUnknownProduct, kind, code)
		}
		return nil, err
	}

	baseDir, err := mediapath.ProductDir(u.media.Root, product.Kind, product.Code)
	if err != nil {
		return nil, err
	}

	result, err := u.processor.Process(ctx, src, filenameHint, baseDir)
	if err != nil {
		return nil, err
	}

	variants, err := u.relativize(result)
	if err != nil {
		u.removeArtifacts(result)
		return nil, err
	}

	// EXIF capture is best-effort; a plain catalog photo has none.
	scratch := models.ProductImage{}
	if err := imageprocessor.ExtractMetadata(&scratch, result.OriginalPath); err != nil {
		log.Warn(fmt.Sprintf("[Uploader] EXIF extraction failed for %s: %v", result.OriginalPath, err))
	}

	record, err := u.images.Create(product.ID, variants, repository.ImageMetadata{
		Title:       meta.Title,
		AltText:     meta.AltText,
		Description: meta.Description,
		Tags:        meta.Tags,
		Width:       result.Width,
		Height:      result.Height,
		Format:      result.Format,
		FileSize:    result.FileSize,
		Extra:       scratch.Metadata,
	})
	if err != nil {
		// No orphan rows and no orphan files: the derived set goes away
		// together with the failed insert.
		u.removeArtifacts(result)
		return nil, err
	}

	log.Info(fmt.Sprintf("[Uploader] Stored image %s for product %s (order %d)", record.UUID, product.Code, record.DisplayOrder))
	return record, nil
}

// Delete removes a record and its variant files. Files already missing on
// disk are not an error.
func (u *Uploader) Delete(uuid string) error {
	record, err := u.images.Delete(uuid)
	if err != nil {
		return err
	}
	u.removeRelative(record.PathOriginal)
	if record.PathThumbnail != nil {
		u.removeRelative(*record.PathThumbnail)
	}
	if record.PathWebP != nil {
		u.removeRelative(*record.PathWebP)
	}
	return nil
}

func (u *Uploader) relativize(result *imageprocessor.Result) (repository.VariantPaths, error) {
	original, err := mediapath.RelFromRoot(u.media.Root, result.OriginalPath)
	if err != nil {
		return repository.VariantPaths{}, err
	}
	thumbnail, err := mediapath.RelFromRoot(u.media.Root, result.ThumbnailPath)
	if err != nil {
		return repository.VariantPaths{}, err
	}
	webp, err := mediapath.RelFromRoot(u.media.Root, result.WebPPath)
	if err != nil {
		return repository.VariantPaths{}, err
	}
	return repository.VariantPaths{
		Original:  original,
		Thumbnail: &thumbnail,
		WebP:      &webp,
	}, nil
}

func (u *Uploader) removeArtifacts(result *imageprocessor.Result) {
	for _, path := range []string{result.OriginalPath, result.ThumbnailPath, result.WebPPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Error(fmt.Sprintf("[Uploader] Failed to remove artifact %s: %v", path, err))
		}
	}
}

func (u *Uploader) removeRelative(rel string) {
	if rel == "" {
		return
	}
	path := filepath.Join(u.media.Root, filepath.FromSlash(rel))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Error(fmt.Sprintf("[Uploader] Failed to remove file %s: %v", path, err))
	}
}
