package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sumimedical/suministros-backend/app/controllers"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")

	productos := api.Group("/productos")
	productos.Get("/:kind/:code/", controllers.HandleGetProductAPI)
	productos.Post("/:kind/:code/imagenes/", controllers.HandleUploadImageAPI)
	productos.Patch("/imagenes/:uuid/", controllers.HandlePatchImageAPI)
	productos.Delete("/imagenes/:uuid/", controllers.HandleDeleteImageAPI)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
