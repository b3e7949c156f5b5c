package imageprocessor

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/sumimedical/suministros-backend/app/models"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// ExtractMetadata reads EXIF data from a stored original into the record's
// metadata document. Images without EXIF data are not an error.
func ExtractMetadata(record *models.ProductImage, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("error opening image file: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		log.Debug(fmt.Sprintf("[Metadata] No EXIF data in %s: %v", filePath, err))
		return nil
	}

	allMetadata := make(map[string]interface{})
	for _, tag := range []exif.FieldName{
		exif.Model, exif.Make, exif.Software, exif.Artist, exif.Copyright,
		exif.DateTime, exif.DateTimeOriginal, exif.Orientation,
		exif.XResolution, exif.YResolution, exif.ColorSpace,
	} {
		if tagVal, err := x.Get(tag); err == nil {
			allMetadata[string(tag)] = trimQuotes(tagVal.String())
		}
	}
	if len(allMetadata) == 0 {
		return nil
	}

	metadataJSON, err := json.Marshal(allMetadata)
	if err != nil {
		log.Error(fmt.Sprintf("[Metadata] Error marshaling metadata: %v", err))
		return nil
	}
	meta := models.JSON(metadataJSON)
	record.Metadata = &meta
	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
