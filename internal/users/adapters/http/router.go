package http

import (
	"github.com/gofiber/fiber/v3"

	"ecomshop/internal/users/adapters/http/middleware"
)

// SetupRouter настраивает маршрутизацию HTTP сервера.
func SetupRouter(app *fiber.App, handler *Handler, auth fiber.Handler) {
	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	app.Get("/health", handler.Health)

	users := app.Group("/api/users", auth)
	users.Get("/authenticated", handler.GetAuthenticatedUser)
	users.Put("/authenticated/address", handler.UpdateAuthenticatedUserAddress)
	users.Get("/:publicId", handler.GetUser)

	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": ErrorRouteNotFound,
		})
	})
}
