// Package http содержит HTTP обработчики сервиса пользователей.
package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"ecomshop/internal/users/adapters/http/middleware"
	"ecomshop/internal/users/domain/entities"
	"ecomshop/internal/users/domain/values"
	"ecomshop/internal/users/ports/api"
	"ecomshop/pkg/logger"
	"ecomshop/pkg/validation"
)

// Константы для логирования.
const (
	LogHandlerGetAuthenticated = "users handler: get authenticated user"
	LogHandlerUpdateAddress    = "users handler: update address"
	LogHandlerGetUser          = "users handler: get user"
)

// Имена операций в путях нарушений параметров.
const (
	opGetAuthenticatedUser = "getAuthenticatedUser"
	opGetUser              = "getUser"
)

// HealthCheck проверяет доступность зависимостей.
type HealthCheck func(ctx context.Context) error

// Handler содержит HTTP обработчики пользователей.
type Handler struct {
	users     api.UserUseCase
	validator *validation.Validator
	adminRole string
	health    HealthCheck
}

// NewHandler создает обработчик. adminRole дает доступ к чужим профилям.
func NewHandler(users api.UserUseCase, validator *validation.Validator, adminRole string, health HealthCheck) *Handler {
	return &Handler{
		users:     users,
		validator: validator,
		adminRole: adminRole,
		health:    health,
	}
}

// GetAuthenticatedUser синхронизирует и возвращает текущего пользователя.
func (h *Handler) GetAuthenticatedUser(c fiber.Ctx) error {
	requestCtx := middleware.RequestContext(c)
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerGetAuthenticated)

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrorUnauthenticated})
	}

	raw := c.Query("forceResync")
	if err := h.validator.Params(opGetAuthenticatedUser,
		validation.Param{Name: "forceResync", Value: raw, Tag: "omitempty,boolean"},
	); err != nil {
		return writeError(c, err)
	}
	forceResync := false
	if raw != "" {
		forceResync, _ = strconv.ParseBool(raw)
	}

	user, err := h.users.SyncAuthenticatedUser(requestCtx, principal, forceResync)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(NewRestUser(user))
}

// UpdateAuthenticatedUserAddress заменяет адрес текущего пользователя.
func (h *Handler) UpdateAuthenticatedUserAddress(c fiber.Ctx) error {
	requestCtx := middleware.RequestContext(c)
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerUpdateAddress)

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrorUnauthenticated})
	}

	var req AddressRequest
	if err := c.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrorInvalidRequest})
	}
	if err := h.validator.Struct(req); err != nil {
		return writeError(c, err)
	}

	user, err := h.users.UpdateAuthenticatedUserAddress(requestCtx, principal, values.AddressParams{
		Street:  req.Street,
		City:    req.City,
		ZipCode: req.ZipCode,
		Country: req.Country,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(NewRestUser(user))
}

// GetUser возвращает пользователя по publicId. Доступен администратору
// и самому пользователю.
func (h *Handler) GetUser(c fiber.Ctx) error {
	requestCtx := middleware.RequestContext(c)
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerGetUser)

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrorUnauthenticated})
	}

	publicID := c.Params("publicId")
	if err := h.validator.Params(opGetUser,
		validation.Param{Name: "publicId", Value: publicID, Tag: "required,uuid"},
	); err != nil {
		return writeError(c, err)
	}

	user, err := h.users.GetUser(requestCtx, publicID)
	if err != nil {
		return writeError(c, err)
	}
	if !h.canRead(principal, user) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ErrorForbidden})
	}
	return c.Status(fiber.StatusOK).JSON(NewRestUser(user))
}

// canRead разрешает доступ администратору и владельцу email из токена.
func (h *Handler) canRead(principal api.Principal, user *entities.User) bool {
	for _, role := range principal.Roles {
		if role == h.adminRole {
			return true
		}
	}
	claimed, ok := principal.Claims[entities.ClaimEmail].(string)
	if !ok {
		return false
	}
	email, ok := user.Email()
	return ok && email.Value() == claimed
}

// Health отвечает 200, если зависимости доступны, иначе 503.
func (h *Handler) Health(c fiber.Ctx) error {
	requestCtx := middleware.RequestContext(c)
	if h.health != nil {
		if err := h.health(requestCtx); err != nil {
			logger.Log(requestCtx).Warn(requestCtx, "health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
