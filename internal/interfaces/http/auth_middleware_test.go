package http_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/auth"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	apphttp "github.com/jhoicas/Kardex-api/internal/interfaces/http"
	"github.com/jhoicas/Kardex-api/internal/testutil"
	pkgjwt "github.com/jhoicas/Kardex-api/pkg/jwt"
)

func meApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret, testIssuer), func(c *fiber.Ctx) error {
		id, ok := auth.FromContext(c.UserContext())
		return c.JSON(fiber.Map{
			"ok":      ok,
			"user_id": apphttp.GetUserID(c),
			"ctx_id":  id.ExternalID,
			"email":   apphttp.GetEmail(c),
		})
	})
	return app
}

func getMe(t *testing.T, authHeader string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := meApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func TestAuthMiddleware_ExtraeIdentidad(t *testing.T) {
	resp, body := getMe(t, bearer(t, testutil.AcmeAuthID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, testutil.AcmeAuthID, got["user_id"])
	assert.Equal(t, testutil.AcmeAuthID, got["ctx_id"], "la identidad debe viajar en el UserContext")
	assert.Equal(t, testutil.AcmeAuthID+"@test.co", got["email"])
}

func TestAuthMiddleware_Rechazos(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, testutil.AcmeAuthID, "", testIssuer, -time.Minute)
	require.NoError(t, err)
	otherIssuer, err := pkgjwt.Generate(testJWTSecret, testutil.AcmeAuthID, "", "otro-emisor", time.Hour)
	require.NoError(t, err)
	otherSecret, err := pkgjwt.Generate("otro-secret", testutil.AcmeAuthID, "", testIssuer, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"formato", "Token abc", "INVALID_TOKEN"},
		{"malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"expirado", "Bearer " + expired, "INVALID_TOKEN"},
		{"otro emisor", "Bearer " + otherIssuer, "INVALID_TOKEN"},
		{"otro secret", "Bearer " + otherSecret, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := getMe(t, tc.header)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			var e dto.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, tc.code, e.Code)
		})
	}
}

func TestRequireModule(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, http.MethodGet, "/api/kardex", testutil.AcmeAuthID, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := srv.do(t, http.MethodGet, "/api/kardex", testutil.OrphanAuthID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "MODULE_DISABLED", decode[dto.ErrorResponse](t, body).Code)

	status, body = srv.do(t, http.MethodGet, "/api/kardex", "no-registrado", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "USER_NOT_REGISTERED", decode[dto.ErrorResponse](t, body).Code)

	srv.store.FailOn("users.get_by_auth_id", errors.New("db caída"))
	status, body = srv.do(t, http.MethodGet, "/api/kardex", "otro-no-cacheado", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "MODULE_CHECK_FAILED", decode[dto.ErrorResponse](t, body).Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", decode[dto.HealthResponse](t, body).Status)
}
