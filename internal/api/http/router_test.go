package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/api/http/handlers"
	"github.com/spec-kit/crm/internal/app"
	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/config"
	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/repository/memory"
	"github.com/spec-kit/crm/internal/service"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type apiFixture struct {
	app   *fiber.App
	core  *app.Core
	store *memory.Store
}

func newAPIFixture(t *testing.T, deps map[string]handlers.Pinger) *apiFixture {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Name: "crm", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret: "api-test", JWTAlgorithm: "HS256", TokenTTLSeconds: 600,
			PasswordHasher: "bcrypt", BcryptCost: 4, MaxLoginAttempts: 5, LockoutMinutes: 15,
		},
		Session: config.SessionConfig{FilePath: filepath.Join(t.TempDir(), "session.json"), TokenField: "token"},
	}
	core, err := app.NewCore(cfg, zap.NewNop())
	require.NoError(t, err)

	store := memory.NewStore()
	services := core.Services(app.Repositories{
		Users: store.Users(), Roles: store.Roles(), Clients: store.Clients(),
		Contracts: store.Contracts(), Events: store.Events(), LoginAttempts: store.LoginAttempts(),
	})
	ctx := context.Background()
	_, err = services.Roles.Seed(ctx, service.DefaultCatalog())
	require.NoError(t, err)
	for _, role := range domain.Roles {
		set, err := store.Roles().GetByName(ctx, string(role))
		require.NoError(t, err)
		hash, err := core.Hasher.Hash("pw")
		require.NoError(t, err)
		require.NoError(t, store.Users().Create(ctx, &domain.User{
			EmployeeNumber: string(role), Name: string(role), Email: strings.ToLower(string(role)) + "@epic.events",
			PasswordHash: hash, Department: string(role), Role: role, PermissionSetID: &set.ID,
		}))
	}

	server := fiber.New()
	RegisterMiddlewares(server, zap.NewNop(), core.Metrics, 0)
	RegisterRoutes(server, RouteConfig{
		Health:         handlers.NewHealthHandler("crm", "test", deps),
		Auth:           handlers.NewAuthHandler(services.Auth),
		Clients:        handlers.NewClientsHandler(services.Clients),
		Records:        handlers.NewRecordsHandler(services.Contracts, services.Events, services.Collaborators),
		Metrics:        handlers.NewMetricsHandler(core.Metrics),
		AuthMiddleware: auth.NewMiddleware(services.Guard),
	})
	return &apiFixture{app: server, core: core, store: store}
}

func (f *apiFixture) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func (f *apiFixture) login(t *testing.T, role domain.Role) string {
	t.Helper()
	status, body := f.do(t, fiber.MethodPost, "/auth/login", "",
		`{"email":"`+strings.ToLower(string(role))+`@epic.events","password":"pw"}`)
	require.Equal(t, fiber.StatusOK, status, body)
	data := body["data"].(map[string]any)
	return data["auth"].(map[string]any)["token"].(string)
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestLoginReturnsBearerToken(t *testing.T) {
	f := newAPIFixture(t, nil)

	token := f.login(t, domain.RoleSales)
	assert.Len(t, strings.Split(token, "."), 3)

	status, body := f.do(t, fiber.MethodPost, "/auth/login", "", `{"email":"sales@epic.events","password":"nope"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "CREDENTIAL_INVALID", errorCode(body))
}

func TestClientRoutesEnforcePolicies(t *testing.T) {
	f := newAPIFixture(t, nil)
	payload := `{"full_name":"Kevin Casey","email":"kevin@startup.io","company_name":"Cool Startup LLC"}`

	status, body := f.do(t, fiber.MethodGet, "/clients", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", errorCode(body))

	support := f.login(t, domain.RoleSupport)
	status, body = f.do(t, fiber.MethodPost, "/clients", support, payload)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "INSUFFICIENT_ROLE", errorCode(body))

	sales := f.login(t, domain.RoleSales)
	status, body = f.do(t, fiber.MethodPost, "/clients", sales, payload)
	require.Equal(t, fiber.StatusCreated, status, body)
	created := body["data"].(map[string]any)
	assert.Equal(t, float64(1), created["commercial_contact_id"])

	status, body = f.do(t, fiber.MethodGet, "/clients", support, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = f.do(t, fiber.MethodPost, "/clients", sales, `{"full_name":"","email":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestListingRoutes(t *testing.T) {
	f := newAPIFixture(t, nil)
	token := f.login(t, domain.RoleSupport)

	for _, path := range []string{"/contracts", "/events", "/collaborators", "/contracts?signed=true"} {
		status, body := f.do(t, fiber.MethodGet, path, token, "")
		assert.Equal(t, fiber.StatusOK, status, path)
		assert.Contains(t, body, "data", path)
	}

	status, body := f.do(t, fiber.MethodGet, "/events?contract_id=abc", token, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	_, body = f.do(t, fiber.MethodGet, "/collaborators", token, "")
	for _, item := range body["data"].([]any) {
		assert.NotContains(t, item.(map[string]any), "password_hash")
	}
}

func TestInvalidBearerToken(t *testing.T) {
	f := newAPIFixture(t, nil)
	status, body := f.do(t, fiber.MethodGet, "/contracts", "not-a-jwt", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "AUTHENTICATION_FAILED", errorCode(body))
}

func TestHealthProbes(t *testing.T) {
	f := newAPIFixture(t, map[string]handlers.Pinger{"postgres": stubPinger{}})
	status, body := f.do(t, fiber.MethodGet, "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = f.do(t, fiber.MethodGet, "/health/ready", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	f = newAPIFixture(t, map[string]handlers.Pinger{"postgres": stubPinger{err: errors.New("down")}})
	status, body = f.do(t, fiber.MethodGet, "/health/ready", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))
}

func TestMetricsCountRequests(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.do(t, fiber.MethodGet, "/clients", "", "")
	f.login(t, domain.RoleSales)

	status, body := f.do(t, fiber.MethodGet, "/metrics", "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["requests"])
	assert.NotEmpty(t, body["errors"])
	events := body["events"].(map[string]any)
	assert.Nil(t, events["session_opened"], "API logins issue tokens without opening a local session")
}
