package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/sumimedical/suministros-backend/app/repository"
	"github.com/sumimedical/suministros-backend/internal/pkg/cache"
	"github.com/sumimedical/suministros-backend/internal/pkg/database"
	"github.com/sumimedical/suministros-backend/internal/pkg/env"
	"github.com/sumimedical/suministros-backend/internal/pkg/router"
)

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		BodyLimit: 52428800, // 50 MiB
	})
	app.Use(recover.New(), logger.New())

	router.InstallRouter(app)

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}
