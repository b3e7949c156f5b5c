package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sumimedical/suministros-backend/app/models"
	"github.com/sumimedical/suministros-backend/app/repository"
	"github.com/sumimedical/suministros-backend/internal/pkg/config"
	"github.com/sumimedical/suministros-backend/internal/pkg/imageprocessor"
	"github.com/sumimedical/suministros-backend/internal/pkg/uploader"
	"github.com/sumimedical/suministros-backend/internal/pkg/urlresolver"
)

// setupApp wires a fresh database, media root and fiber app. Controller tests
// run sequentially because the controllers hold package-level dependencies.
func setupApp(t *testing.T) (*fiber.App, *repository.Repositories) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.ProductImage{}))
	repository.InitializeFactory(db)
	repos := repository.GetGlobalFactory().GetRepositories()

	media := config.Media{Root: t.TempDir(), BaseURL: "/media/"}
	up := uploader.New(media, imageprocessor.New(config.Processor{}), repos.Product, repos.Image)
	InitializeImageController(up, urlresolver.New(media))

	app := fiber.New()
	app.Get("/api/productos/:kind/:code/", HandleGetProductAPI)
	app.Post("/api/productos/:kind/:code/imagenes/", HandleUploadImageAPI)
	app.Patch("/api/productos/imagenes/:uuid/", HandlePatchImageAPI)
	app.Delete("/api/productos/imagenes/:uuid/", HandleDeleteImageAPI)
	return app, repos
}

func multipartUpload(t *testing.T, url string, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("imagen", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("title", "Vista frontal"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Host = "api.suministros.test"
	return req
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 11), G: uint8(y * 19), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestUploadImageEndpoint(t *testing.T) {
	app, repos := setupApp(t)

	product := &models.Product{Code: "OFT-1", Name: "Oximetro", Kind: models.KindOfertado}
	require.NoError(t, repos.Product.Create(product))

	req := multipartUpload(t, "/api/productos/productosofertados/OFT-1/imagenes/", "oximetro.png", pngUpload(t))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.NotEmpty(t, payload["id"])
	assert.Equal(t, true, payload["is_primary"])
	assert.Equal(t, float64(0), payload["order"])
	assert.Equal(t, "Vista frontal", payload["title"])
	assert.Equal(t, float64(20), payload["width"])

	for _, key := range []string{"original_url", "thumbnail_url", "webp_url", "imagen_url"} {
		url, ok := payload[key].(string)
		require.True(t, ok, key)
		assert.True(t, strings.HasPrefix(url, "http://api.suministros.test/media/productos/productosofertados/imagenes/OFT-1/"), url)
	}
	assert.Equal(t, payload["webp_url"], payload["imagen_url"])
}

func TestUploadImageUnknownProduct(t *testing.T) {
	app, _ := setupApp(t)

	req := multipartUpload(t, "/api/productos/productosofertados/NO-SUCH/imagenes/", "x.png", pngUpload(t))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.NotEmpty(t, payload["detail"])
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	app, repos := setupApp(t)

	product := &models.Product{Code: "OFT-1", Name: "Oximetro", Kind: models.KindOfertado}
	require.NoError(t, repos.Product.Create(product))

	req := multipartUpload(t, "/api/productos/productosofertados/OFT-1/imagenes/", "notas.txt", []byte("just text"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.NotEmpty(t, payload["detail"])

	// Nothing was indexed.
	records, err := repos.Image.ListByProduct(product.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetProductWithOrderedImages(t *testing.T) {
	app, repos := setupApp(t)

	product := &models.Product{Code: "DSP-2", Name: "Nebulizador", Kind: models.KindDisponible}
	require.NoError(t, repos.Product.Create(product))

	for i, name := range []string{"a.png", "b.png"} {
		req := multipartUpload(t, "/api/productos/productosdisponibles/DSP-2/imagenes/", name, pngUpload(t))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, "upload %d", i)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/productos/productosdisponibles/DSP-2/", nil)
	req.Host = "api.suministros.test"
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "DSP-2", payload["code"])

	images, ok := payload["imagenes"].([]interface{})
	require.True(t, ok)
	require.Len(t, images, 2)
	first := images[0].(map[string]interface{})
	second := images[1].(map[string]interface{})
	assert.Equal(t, float64(0), first["order"])
	assert.Equal(t, true, first["is_primary"])
	assert.Equal(t, float64(1), second["order"])

	// The product-level master URL is the primary record's master.
	assert.Equal(t, first["imagen_url"], payload["imagen_url"])
}

func TestGetProductWithoutImagesUsesPlaceholder(t *testing.T) {
	app, repos := setupApp(t)

	product := &models.Product{Code: "OFT-9", Name: "Camilla", Kind: models.KindOfertado}
	require.NoError(t, repos.Product.Create(product))

	req := httptest.NewRequest(http.MethodGet, "/api/productos/productosofertados/OFT-9/", nil)
	req.Host = "api.suministros.test"
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "http://api.suministros.test"+placeholderPath, payload["imagen_url"])
	assert.Empty(t, payload["imagenes"])
}

func TestGetProductUnknownCollection(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/productos/catalogo/OFT-9/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPatchImageMetadataAndPrimary(t *testing.T) {
	app, repos := setupApp(t)

	product := &models.Product{Code: "OFT-1", Name: "Oximetro", Kind: models.KindOfertado}
	require.NoError(t, repos.Product.Create(product))

	var uuids []string
	for _, name := range []string{"a.png", "b.png"} {
		req := multipartUpload(t, "/api/productos/productosofertados/OFT-1/imagenes/", name, pngUpload(t))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		uuids = append(uuids, decodeBody(t, resp)["id"].(string))
	}

	body := strings.NewReader(`{"title": "Detalle", "is_primary": true}`)
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/productos/imagenes/%s/", uuids[1]), body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "Detalle", payload["title"])
	assert.Equal(t, true, payload["is_primary"])

	// The primary flag moved off the first record.
	first, err := repos.Image.GetByUUID(uuids[0])
	require.NoError(t, err)
	assert.False(t, first.IsPrimary)
}

func TestPatchImageRejectsPrimaryDemotion(t *testing.T) {
	app, repos := setupApp(t)

	product := &models.Product{Code: "OFT-1", Name: "Oximetro", Kind: models.KindOfertado}
	require.NoError(t, repos.Product.Create(product))

	req := multipartUpload(t, "/api/productos/productosofertados/OFT-1/imagenes/", "a.png", pngUpload(t))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	uuid := decodeBody(t, resp)["id"].(string)

	body := strings.NewReader(`{"is_primary": false}`)
	patch := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/productos/imagenes/%s/", uuid), body)
	patch.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(patch, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPatchImageNotFound(t *testing.T) {
	app, _ := setupApp(t)

	body := strings.NewReader(`{"title": "x"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/productos/imagenes/00000000-0000-0000-0000-000000000000/", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteImagePromotesSibling(t *testing.T) {
	app, repos := setupApp(t)

	product := &models.Product{Code: "OFT-1", Name: "Oximetro", Kind: models.KindOfertado}
	require.NoError(t, repos.Product.Create(product))

	var uuids []string
	for _, name := range []string{"a.png", "b.png"} {
		req := multipartUpload(t, "/api/productos/productosofertados/OFT-1/imagenes/", name, pngUpload(t))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		uuids = append(uuids, decodeBody(t, resp)["id"].(string))
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/productos/imagenes/%s/", uuids[0]), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	survivor, err := repos.Image.GetByUUID(uuids[1])
	require.NoError(t, err)
	assert.True(t, survivor.IsPrimary)

	// Deleting again is a 404.
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/productos/imagenes/%s/", uuids[0]), nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
