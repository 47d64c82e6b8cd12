package middleware

import (
	"github.com/gofiber/fiber/v3"

	"ecomshop/pkg/logger"
)

// HeaderRequestID - заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-ID"

// NewRequestIDMiddleware берет идентификатор из заголовка запроса или
// генерирует новый и возвращает его в ответе.
func NewRequestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		requestID := logger.NormalizeRequestID(c.Get(HeaderRequestID))
		c.Locals(localsRequestID, requestID)
		c.Set(HeaderRequestID, requestID)
		return c.Next()
	}
}
