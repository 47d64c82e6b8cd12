package middleware

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomshop/pkg/logger"
)

var secret = []byte("middleware-secret")

func newAuthApp(t *testing.T, cfg AuthConfig) (*fiber.App, *[]string) {
	t.Helper()
	logger.SetGlobalLogger(logger.NewNop())

	var seenRoles []string
	app := fiber.New()
	app.Use(NewRequestIDMiddleware())
	app.Use(NewAuthMiddleware(cfg))
	app.Get("/me", func(c fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		seenRoles = principal.Roles
		return c.SendString(principal.Subject)
	})
	return app, &seenRoles
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func call(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	testCases := []struct {
		name      string
		cfg       AuthConfig
		token     func(t *testing.T) string
		wantCode  int
		wantRoles []string
	}{
		{
			name: "valid token with roles array",
			cfg:  AuthConfig{SecretKey: secret, RolesClaim: "roles"},
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "u1", "exp": exp, "roles": []string{"ROLE_USER", "ROLE_ADMIN"}})
			},
			wantCode:  nethttp.StatusOK,
			wantRoles: []string{"ROLE_USER", "ROLE_ADMIN"},
		},
		{
			name: "space separated roles",
			cfg:  AuthConfig{SecretKey: secret, RolesClaim: "scope"},
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS512, secret, jwt.MapClaims{"sub": "u1", "exp": exp, "scope": "ROLE_USER  ROLE_ADMIN"})
			},
			wantCode:  nethttp.StatusOK,
			wantRoles: []string{"ROLE_USER", "ROLE_ADMIN"},
		},
		{
			name: "missing roles claim",
			cfg:  AuthConfig{SecretKey: secret, RolesClaim: "roles"},
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "u1", "exp": exp})
			},
			wantCode:  nethttp.StatusOK,
			wantRoles: []string{},
		},
		{
			name: "expiration is required",
			cfg:  AuthConfig{SecretKey: secret, RolesClaim: "roles"},
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "u1"})
			},
			wantCode: nethttp.StatusUnauthorized,
		},
		{
			name: "leeway accepts recently expired token",
			cfg:  AuthConfig{SecretKey: secret, RolesClaim: "roles", Leeway: time.Minute},
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-10 * time.Second).Unix()})
			},
			wantCode:  nethttp.StatusOK,
			wantRoles: []string{},
		},
		{
			name: "issuer mismatch",
			cfg:  AuthConfig{SecretKey: secret, RolesClaim: "roles", Issuer: "https://id.example.com"},
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "u1", "exp": exp, "iss": "https://evil.example.com"})
			},
			wantCode: nethttp.StatusUnauthorized,
		},
		{
			name: "unsigned token",
			cfg:  AuthConfig{SecretKey: secret, RolesClaim: "roles"},
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "u1", "exp": exp})
			},
			wantCode: nethttp.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app, seenRoles := newAuthApp(t, tc.cfg)

			code := call(t, app, tc.token(t))
			assert.Equal(t, tc.wantCode, code)
			if tc.wantCode == nethttp.StatusOK {
				assert.Equal(t, tc.wantRoles, *seenRoles)
			}
		})
	}
}

func TestRoles(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, roles([]any{"a", 1, "b"}))
	assert.Equal(t, []string{"a"}, roles([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, roles(" a b "))
	assert.Equal(t, []string{}, roles(nil))
	assert.Equal(t, []string{}, roles(42))
}

func TestDisplayName(t *testing.T) {
	name, ok := displayName(jwt.MapClaims{"preferred_username": "ada", "sub": "u1"})
	require.True(t, ok)
	assert.Equal(t, "ada", name.Value())

	name, ok = displayName(jwt.MapClaims{"sub": "u1"})
	require.True(t, ok)
	assert.Equal(t, "u1", name.Value())

	_, ok = displayName(jwt.MapClaims{})
	assert.False(t, ok)
}
