package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/sumimedical/suministros-backend/app/repository"
)

// HandleGetProductAPI returns one product with its ordered image records.
func HandleGetProductAPI(c *fiber.Ctx) error {
	kind, err := kindFromParams(c)
	if err != nil {
		return detail(c, fiber.StatusNotFound, "unknown product collection")
	}
	code := c.Params("code")

	repos := repository.GetGlobalFactory()
	product, err := repos.GetProductRepository().GetByKindAndCode(kind, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return detail(c, fiber.StatusNotFound, "product not found")
		}
		log.Error(fmt.Sprintf("[API] Product lookup %s/%s failed: %v", kind, code, err))
		return detail(c, fiber.StatusInternalServerError, "lookup failed")
	}

	records, err := repos.GetImageRepository().ListByProduct(product.ID)
	if err != nil {
		log.Error(fmt.Sprintf("[API] Listing images of %s failed: %v", code, err))
		return detail(c, fiber.StatusInternalServerError, "lookup failed")
	}

	return c.JSON(serializeProduct(product, records, requestContext(c)))
}
