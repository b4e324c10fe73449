package handler

import (
	"inventory-sync-service/app/middleware"
	"inventory-sync-service/config"

	"github.com/gofiber/fiber/v2"
)

func SetupRouter(app *fiber.App, productHandler *ProductHandler, syncHandler *SyncHandler, cfg *config.Config) {
	auth := middleware.Auth(cfg.Jwt.SecretKey)

	api := app.Group("/inventory")
	api.Get("/all", productHandler.GetAll)
	api.Get("/product/:product_id", productHandler.GetByID)
	api.Post("/add-product", auth, productHandler.Create)
	api.Post("/update-stock/:product_id", auth, productHandler.UpdateStock)

	api.Get("/mirror", syncHandler.Mirror)
	api.Get("/mirror/:product_id", syncHandler.MirrorEntry)
	api.Get("/stream", syncHandler.Stream)
	api.Get("/sync/status", syncHandler.Status)

	internal := app.Group("/internal/inventory").Use(middleware.AuthInternal(cfg))
	internal.Post("/resync", syncHandler.Resync)
}
