package jwtware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/goliatone/go-jobboard-auth/middleware/jwtware"
)

const validToken = "valid-token"

func stubValidator(principal auth.Principal) auth.TokenValidator {
	return auth.TokenValidatorFunc(func(raw string) (auth.Principal, error) {
		switch raw {
		case validToken:
			return principal, nil
		case "expired-token":
			return auth.Principal{}, auth.ErrTokenExpired
		default:
			return auth.Principal{}, auth.ErrTokenMalformed
		}
	})
}

func writeError(c router.Context, err error) error {
	status := router.StatusUnauthorized
	if err == auth.ErrTokenExpired {
		status = router.StatusForbidden
	}
	return c.Status(status).SendString(err.Error())
}

func newApp(principal auth.Principal, cfg jwtware.Config) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App { return app })

	if cfg.TokenValidator == nil {
		cfg.TokenValidator = stubValidator(principal)
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = writeError
	}

	srv.Router().Get("/", func(c router.Context) error {
		fromLocals, okLocals := jwtware.PrincipalFromLocals(c, cfg.ContextKey)
		fromCtx, okCtx := auth.PrincipalFromContext(c.Context())
		if !okLocals && !okCtx {
			return c.SendString("anonymous")
		}
		if fromLocals != fromCtx {
			return c.Status(router.StatusInternalServerError).SendString("principal mismatch")
		}
		return c.SendString(fromLocals.AccountID.String())
	}, jwtware.New(cfg))
	return app
}

func body(t *testing.T, res *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(data)
}

func TestJWTWare_BearerHeader(t *testing.T) {
	principal := auth.Principal{AccountID: uuid.New(), Role: auth.RoleCompanyOwner}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer " + validToken, wantStatus: router.StatusOK, wantBody: principal.AccountID.String()},
		{name: "case insensitive scheme", header: "bearer " + validToken, wantStatus: router.StatusOK, wantBody: principal.AccountID.String()},
		{name: "missing header", header: "", wantStatus: router.StatusUnauthorized, wantBody: auth.ErrUnauthenticated.Error()},
		{name: "wrong scheme", header: "Basic " + validToken, wantStatus: router.StatusUnauthorized, wantBody: auth.ErrUnauthenticated.Error()},
		{name: "invalid token", header: "Bearer garbage", wantStatus: router.StatusUnauthorized, wantBody: auth.ErrTokenMalformed.Error()},
		{name: "expired token", header: "Bearer expired-token", wantStatus: router.StatusForbidden, wantBody: auth.ErrTokenExpired.Error()},
	}

	app := newApp(principal, jwtware.Config{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(router.HeaderAuthorization, tt.header)
			}

			res, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantBody, body(t, res))
		})
	}
}

func TestJWTWare_CustomLookup(t *testing.T) {
	principal := auth.Principal{AccountID: uuid.New(), Role: auth.RoleEmployee}
	app := newApp(principal, jwtware.Config{
		TokenLookup: "query:token,cookie:jwt",
		ContextKey:  "user",
	})

	t.Run("query", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest(http.MethodGet, "/?token="+validToken, nil))
		require.NoError(t, err)
		assert.Equal(t, principal.AccountID.String(), body(t, res))
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: validToken})
		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, principal.AccountID.String(), body(t, res))
	})

	t.Run("header is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(router.HeaderAuthorization, "Bearer "+validToken)
		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, router.StatusUnauthorized, res.StatusCode)
	})
}

func TestJWTWare_Optional(t *testing.T) {
	principal := auth.Principal{AccountID: uuid.New(), Role: auth.RoleEmployee}
	app := newApp(principal, jwtware.Config{Optional: true})

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, router.StatusOK, res.StatusCode)
	assert.Equal(t, "anonymous", body(t, res))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(router.HeaderAuthorization, "Bearer garbage")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, router.StatusUnauthorized, res.StatusCode)
}

func TestJWTWare_Filter(t *testing.T) {
	app := newApp(auth.Principal{AccountID: uuid.New()}, jwtware.Config{
		Filter: func(c router.Context) bool { return c.Query("skip", "") == "1" },
	})

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/?skip=1", nil))
	require.NoError(t, err)
	assert.Equal(t, "anonymous", body(t, res))
}

func TestJWTWare_WithTokenService(t *testing.T) {
	tokens, err := auth.NewTokenService(tokenConfig{})
	require.NoError(t, err)

	principal := auth.Principal{
		AccountID: uuid.New(),
		TenantID:  uuid.NullUUID{UUID: uuid.New(), Valid: true},
		Role:      auth.RoleCompanyOwner,
		Email:     "owner@example.com",
	}
	token, err := tokens.Issue(principal)
	require.NoError(t, err)

	app := newApp(principal, jwtware.Config{TokenValidator: tokens})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(router.HeaderAuthorization, "Bearer "+token)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, router.StatusOK, res.StatusCode)
	assert.Equal(t, principal.AccountID.String(), body(t, res))
}

func TestJWTWare_DefaultErrorHandlerReturnsError(t *testing.T) {
	mw := jwtware.New(jwtware.Config{TokenValidator: stubValidator(auth.Principal{AccountID: uuid.New()})})

	called := false
	handler := mw(func(c router.Context) error {
		called = true
		return nil
	})

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusTeapot).SendString(err.Error())
		},
	})
	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App { return app })
	srv.Router().Get("/", handler)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, res.StatusCode)
	assert.Equal(t, auth.ErrUnauthenticated.Error(), body(t, res))
	assert.False(t, called)
}

func TestGetDefaultConfig_RequiresValidator(t *testing.T) {
	assert.Panics(t, func() { jwtware.GetDefaultConfig() })
}

type tokenConfig struct{}

func (tokenConfig) GetSigningKey() string       { return "middleware-signing-key-32-bytes-long" }
func (tokenConfig) GetIssuer() string           { return "jobboard" }
func (tokenConfig) GetTokenExpirationDays() int { return 1 }
