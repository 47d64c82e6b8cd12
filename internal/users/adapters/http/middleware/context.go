// Package middleware содержит промежуточное ПО HTTP сервера пользователей.
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"ecomshop/internal/users/ports/api"
	"ecomshop/pkg/logger"
)

// Ключи c.Locals.
const (
	localsRequestID = "request_id"
	localsPrincipal = "principal"
)

// RequestContext возвращает контекст запроса с идентификатором запроса.
func RequestContext(c fiber.Ctx) context.Context {
	ctx := context.Context(c.Context())
	if requestID, ok := c.Locals(localsRequestID).(string); ok && requestID != "" {
		ctx = logger.NewRequestIDContext(ctx, requestID)
	}
	return ctx
}

// PrincipalFrom возвращает субъекта, сохраненного NewAuthMiddleware.
func PrincipalFrom(c fiber.Ctx) (api.Principal, bool) {
	principal, ok := c.Locals(localsPrincipal).(api.Principal)
	return principal, ok
}
