package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"ecomshop/internal/users/domain/values"
	"ecomshop/internal/users/ports/api"
	"ecomshop/pkg/logger"
)

// Константы для логирования.
const (
	LogAuthMiddleware = "auth middleware"

	ErrorNoAuthHeader       = "no authorization header provided"
	ErrorInvalidTokenFormat = "invalid token format"
	ErrorInvalidToken       = "invalid or expired token"
)

// ErrInvalidAlgorithm - токен подписан не HMAC.
var ErrInvalidAlgorithm = errors.New("invalid signing algorithm")

// AuthConfig задает проверку bearer-токенов.
type AuthConfig struct {
	SecretKey []byte
	// Issuer проверяется, если не пуст.
	Issuer string
	// RolesClaim - имя claim со списком ролей.
	RolesClaim string
	Leeway     time.Duration
}

// NewAuthMiddleware проверяет bearer-токен и сохраняет api.Principal в c.Locals.
func NewAuthMiddleware(cfg AuthConfig) fiber.Handler {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAlgorithm, token.Header["alg"])
		}
		return cfg.SecretKey, nil
	}

	return func(c fiber.Ctx) error {
		requestCtx := RequestContext(c)
		log := logger.Log(requestCtx).With(zap.String("middleware", "auth"))
		log.Debug(requestCtx, LogAuthMiddleware)

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Debug(requestCtx, ErrorNoAuthHeader)
			return unauthorized(c, ErrorNoAuthHeader)
		}

		raw, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			log.Debug(requestCtx, ErrorInvalidTokenFormat)
			return unauthorized(c, ErrorInvalidTokenFormat)
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, keyFunc); err != nil {
			log.Debug(requestCtx, ErrorInvalidToken, zap.Error(err))
			return unauthorized(c, ErrorInvalidToken)
		}

		subject, _ := claims.GetSubject()
		principal := api.Principal{
			Subject: subject,
			Claims:  claims,
			Roles:   roles(claims[cfg.RolesClaim]),
		}
		c.Locals(localsPrincipal, principal)

		if username, ok := displayName(claims); ok {
			log.Debug(requestCtx, "principal authenticated", zap.String("username", username.Value()))
		}
		return c.Next()
	}
}

func unauthorized(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}

// roles принимает массив строк или строку с ролями через пробел.
func roles(claim any) []string {
	switch v := claim.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		return strings.Fields(v)
	default:
		return []string{}
	}
}

// displayName выбирает preferred_username, иначе sub.
func displayName(claims jwt.MapClaims) (values.Username, bool) {
	if name, ok := claims["preferred_username"].(string); ok {
		if username, ok := values.UsernameOf(name); ok {
			return username, true
		}
	}
	if sub, ok := claims["sub"].(string); ok {
		return values.UsernameOf(sub)
	}
	return values.Username{}, false
}
