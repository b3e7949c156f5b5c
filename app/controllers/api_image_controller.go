package controllers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/sumimedical/suministros-backend/app/repository"
	"github.com/sumimedical/suministros-backend/internal/pkg/imageprocessor"
	"github.com/sumimedical/suministros-backend/internal/pkg/uploader"
)

var validate = validator.New()

// HandleUploadImageAPI ingests one image for the product addressed by
// kind+code and returns the created record.
func HandleUploadImageAPI(c *fiber.Ctx) error {
	kind, err := kindFromParams(c)
	if err != nil {
		return detail(c, fiber.StatusNotFound, "unknown product collection")
	}
	code := c.Params("code")

	fileHeader, err := c.FormFile("imagen")
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "missing image file field 'imagen'")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "unreadable upload")
	}
	defer src.Close()

	meta := uploader.Metadata{
		Title:       c.FormValue("title"),
		AltText:     c.FormValue("alt_text"),
		Description: c.FormValue("description"),
		Tags:        c.FormValue("tags"),
	}

	record, err := imageUploader.Upload(c.UserContext(), kind, code, src, fileHeader.Filename, meta)
	if err != nil {
		switch {
		case errors.Is(err, uploader.ErrUnknownProduct):
			return detail(c, fiber.StatusNotFound, "product not found")
		case errors.Is(err, imageprocessor.ErrUnsupportedFormat):
			return detail(c, fiber.StatusBadRequest, "unsupported image format")
		case errors.Is(err, imageprocessor.ErrDecodeFailure):
			return detail(c, fiber.StatusBadRequest, "image could not be decoded")
		default:
			log.Error(fmt.Sprintf("[API] Upload for %s/%s failed: %v", kind, code, err))
			return detail(c, fiber.StatusInternalServerError, "upload failed")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(serializeImage(record, requestContext(c)))
}

type imagePatchInput struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	AltText     *string `json:"alt_text" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	Tags        *string `json:"tags" validate:"omitempty,max=500"`
	IsPrimary   *bool   `json:"is_primary"`
}

// HandlePatchImageAPI updates a record's descriptive metadata and can promote
// it to primary. Demoting the primary directly is rejected; promote a sibling
// instead.
func HandlePatchImageAPI(c *fiber.Ctx) error {
	uuid := c.Params("uuid")

	var input imagePatchInput
	if err := c.BodyParser(&input); err != nil {
		return detail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&input); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid field values")
	}
	if input.IsPrimary != nil && !*input.IsPrimary {
		return detail(c, fiber.StatusBadRequest, "cannot unset is_primary, promote another image instead")
	}

	imgRepo := repository.GetGlobalFactory().GetImageRepository()
	record, err := imgRepo.UpdateMetadata(uuid, repository.MetadataUpdate{
		Title:       input.Title,
		AltText:     input.AltText,
		Description: input.Description,
		Tags:        input.Tags,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return detail(c, fiber.StatusNotFound, "image not found")
		}
		log.Error(fmt.Sprintf("[API] Metadata update for %s failed: %v", uuid, err))
		return detail(c, fiber.StatusInternalServerError, "update failed")
	}

	if input.IsPrimary != nil && *input.IsPrimary {
		record, err = imgRepo.SetPrimary(uuid)
		if err != nil {
			log.Error(fmt.Sprintf("[API] SetPrimary for %s failed: %v", uuid, err))
			return detail(c, fiber.StatusInternalServerError, "update failed")
		}
	}

	return c.JSON(serializeImage(record, requestContext(c)))
}

// HandleDeleteImageAPI removes a record together with its variant files.
func HandleDeleteImageAPI(c *fiber.Ctx) error {
	uuid := c.Params("uuid")

	if err := imageUploader.Delete(uuid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return detail(c, fiber.StatusNotFound, "image not found")
		}
		log.Error(fmt.Sprintf("[API] Delete for %s failed: %v", uuid, err))
		return detail(c, fiber.StatusInternalServerError, "delete failed")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
