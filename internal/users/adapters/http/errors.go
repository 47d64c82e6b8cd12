package http

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"ecomshop/internal/users/adapters/http/middleware"
	"ecomshop/internal/users/domain/entities"
	"ecomshop/internal/users/domain/values"
	"ecomshop/pkg/logger"
	"ecomshop/pkg/problem"
)

// Тексты ошибок в ответах.
const (
	ErrorInvalidRequest  = "invalid request body"
	ErrorUserNotFound    = "user not found"
	ErrorForbidden       = "access denied"
	ErrorInternal        = "internal server error"
	ErrorRouteNotFound   = "Route not found"
	ErrorUnauthenticated = "authentication required"
)

// writeError переводит ошибку слоя приложения в HTTP ответ.
func writeError(c fiber.Ctx, err error) error {
	requestCtx := middleware.RequestContext(c)
	log := logger.Log(requestCtx)

	detail, handled, buildErr := validationProblem(err)
	if handled {
		if buildErr != nil {
			log.Error(requestCtx, "failed to build validation problem", zap.Error(buildErr))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrorInternal})
		}
		log.Debug(requestCtx, "validation failed", zap.Error(err))
		return c.Status(detail.Status).JSON(detail, problem.ContentType)
	}

	if errors.Is(err, entities.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": ErrorUserNotFound})
	}

	log.Error(requestCtx, "request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrorInternal})
}

// validationProblem распознает нарушения транспорта (*problem.ValidationError)
// и доменные ошибки значений (values.FieldError).
func validationProblem(err error) (*problem.Detail, bool, error) {
	if detail, ok, buildErr := problem.FromError(err); ok {
		return detail, true, buildErr
	}
	if !errors.Is(err, values.ErrValidation) {
		return nil, false, nil
	}

	fieldErrs := values.FieldErrors(err)
	violations := make([]problem.FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, problem.FieldViolation{Field: fe.Field, Message: fe.Message})
	}
	detail, buildErr := problem.FromFieldViolations(violations)
	return detail, true, buildErr
}

// NewErrorHandler обрабатывает ошибки, не записанные обработчиками.
func NewErrorHandler() fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}
		return writeError(c, err)
	}
}
