package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sumimedical/suministros-backend/internal/pkg/mediapath"
	"github.com/sumimedical/suministros-backend/internal/pkg/uploader"
	"github.com/sumimedical/suministros-backend/internal/pkg/urlresolver"
)

var (
	imageUploader *uploader.Uploader
	resolver      *urlresolver.Resolver
)

// InitializeImageController wires the controllers with the uploader and URL
// resolver built at startup. Must run before the routes are installed.
func InitializeImageController(up *uploader.Uploader, res *urlresolver.Resolver) {
	imageUploader = up
	resolver = res
}

// detail renders the uniform 4xx error body.
func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

// requestContext captures scheme and host of the current request for
// absolute URL building.
func requestContext(c *fiber.Ctx) *urlresolver.RequestContext {
	return &urlresolver.RequestContext{
		Scheme: c.Protocol(),
		Host:   c.Hostname(),
	}
}

// kindFromParams maps the URL path segment (productosofertados or
// productosdisponibles) to the stored product kind.
func kindFromParams(c *fiber.Ctx) (string, error) {
	return mediapath.KindFromSegment(c.Params("kind"))
}
