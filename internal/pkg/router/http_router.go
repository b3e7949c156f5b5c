package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sumimedical/suministros-backend/app/controllers"
	"github.com/sumimedical/suministros-backend/app/repository"
	"github.com/sumimedical/suministros-backend/internal/pkg/config"
	"github.com/sumimedical/suministros-backend/internal/pkg/imageprocessor"
	"github.com/sumimedical/suministros-backend/internal/pkg/uploader"
	"github.com/sumimedical/suministros-backend/internal/pkg/urlresolver"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	media := config.LoadMedia()
	processor := imageprocessor.New(config.LoadProcessor())

	repos := repository.GetGlobalFactory()
	up := uploader.New(media, processor, repos.GetProductRepository(), repos.GetImageRepository())
	resolver := urlresolver.New(media)

	controllers.InitializeImageController(up, resolver)

	// The media tree is served directly under the media base URL.
	app.Static(mediaMount(media), media.Root)
	app.Static("/", "./public/assets")
}

// mediaMount strips the trailing slash fiber's Static does not expect.
func mediaMount(media config.Media) string {
	base := media.BaseURL
	if base == "" {
		base = "/media/"
	}
	if len(base) > 1 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
