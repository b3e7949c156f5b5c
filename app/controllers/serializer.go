package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sumimedical/suministros-backend/app/models"
	"github.com/sumimedical/suministros-backend/internal/pkg/urlresolver"
)

// placeholderPath is served from the static assets, not the media tree, and
// stands in as master URL for products that have no image yet.
const placeholderPath = "/img/placeholder.png"

// serializeImage renders the public JSON shape of one image record. URLs are
// absolute when a request context is available.
func serializeImage(record *models.ProductImage, reqCtx *urlresolver.RequestContext) fiber.Map {
	payload := fiber.Map{
		"id":         record.UUID,
		"is_primary": record.IsPrimary,
		"order":      record.DisplayOrder,
		"title":      record.Title,
		"alt_text":   record.AltText,
		"width":      record.Width,
		"height":     record.Height,
		"file_size":  record.FileSize,
		"created_at": record.CreatedAt,
	}

	payload["original_url"] = resolver.ResolveAbsolute(record.PathOriginal, reqCtx)
	payload["imagen_url"] = resolver.ResolveAbsolute(record.MasterPath(), reqCtx)

	payload["thumbnail_url"] = nil
	if record.PathThumbnail != nil && *record.PathThumbnail != "" {
		payload["thumbnail_url"] = resolver.ResolveAbsolute(*record.PathThumbnail, reqCtx)
	}
	payload["webp_url"] = nil
	if record.PathWebP != nil && *record.PathWebP != "" {
		payload["webp_url"] = resolver.ResolveAbsolute(*record.PathWebP, reqCtx)
	}

	return payload
}

// serializeProduct renders a product with its ordered image records. The
// top-level imagen_url is the primary record's master URL, or the placeholder
// when the product has none.
func serializeProduct(product *models.Product, records []models.ProductImage, reqCtx *urlresolver.RequestContext) fiber.Map {
	images := make([]fiber.Map, 0, len(records))
	masterURL := placeholderURL(reqCtx)
	for i := range records {
		record := &records[i]
		images = append(images, serializeImage(record, reqCtx))
		if record.IsPrimary {
			masterURL = resolver.ResolveAbsolute(record.MasterPath(), reqCtx)
		}
	}

	return fiber.Map{
		"id":         product.ID,
		"code":       product.Code,
		"name":       product.Name,
		"kind":       product.Kind,
		"imagen_url": masterURL,
		"imagenes":   images,
		"created_at": product.CreatedAt,
		"updated_at": product.UpdatedAt,
	}
}

func placeholderURL(reqCtx *urlresolver.RequestContext) string {
	if reqCtx != nil && reqCtx.Host != "" {
		scheme := reqCtx.Scheme
		if scheme == "" {
			scheme = "http"
		}
		return scheme + "://" + reqCtx.Host + placeholderPath
	}
	return placeholderPath
}
