package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/app"
	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/config"
	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/repository/memory"
	"github.com/spec-kit/crm/internal/service"
	"github.com/spec-kit/crm/internal/session"
	"github.com/spec-kit/crm/pkg/password"
)

const (
	testSecret   = "cli-test-secret"
	testPassword = "Secret123!"
)

// harness runs command lines against an in-memory store. Each run builds a
// fresh command tree, like a separate process sharing the session file.
type harness struct {
	t           *testing.T
	store       *memory.Store
	cfg         *config.Config
	connects    int
	configLoads int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:     t,
		store: memory.NewStore(),
		cfg: &config.Config{
			App: config.AppConfig{Name: "crm", Env: "test"},
			Auth: config.AuthConfig{
				JWTSecret:        testSecret,
				JWTAlgorithm:     "HS256",
				TokenTTLSeconds:  3600,
				PasswordHasher:   "bcrypt",
				BcryptCost:       4,
				MaxLoginAttempts: 5,
				LockoutMinutes:   15,
			},
			Session: config.SessionConfig{
				FilePath:   filepath.Join(t.TempDir(), "crm", "session.json"),
				TokenField: session.DefaultTokenField,
			},
		},
	}
}

// seeded adds the default catalog and one collaborator per role.
func (h *harness) seeded() *harness {
	h.t.Helper()
	ctx := context.Background()
	_, err := service.NewRoleService(h.store.Roles(), nil).Seed(ctx, service.DefaultCatalog())
	require.NoError(h.t, err)

	hash, err := password.BcryptHasher{Cost: 4}.Hash(testPassword)
	require.NoError(h.t, err)
	for i, role := range domain.Roles {
		set, err := h.store.Roles().GetByName(ctx, string(role))
		require.NoError(h.t, err)
		require.NoError(h.t, h.store.Users().Create(ctx, &domain.User{
			EmployeeNumber:  "E00" + string(rune('1'+i)),
			Name:            strings.ToLower(string(role)) + " collaborator",
			Email:           emailFor(role),
			PasswordHash:    hash,
			Department:      string(role),
			Role:            role,
			PermissionSetID: &set.ID,
		}))
	}
	return h
}

func emailFor(role domain.Role) string {
	return strings.ToLower(string(role)) + "@epic.events"
}

func (h *harness) options() Options {
	return Options{
		LoadConfig: func() (*config.Config, error) {
			h.configLoads++
			return h.cfg, nil
		},
		Connect: func(context.Context, *app.Core) (app.Repositories, func(), error) {
			h.connects++
			return app.Repositories{
				Users:         h.store.Users(),
				Roles:         h.store.Roles(),
				Clients:       h.store.Clients(),
				Contracts:     h.store.Contracts(),
				Events:        h.store.Events(),
				LoginAttempts: h.store.LoginAttempts(),
			}, func() {}, nil
		},
		Migrate: func(context.Context, *app.Core) (int64, error) {
			return 1, nil
		},
		ReadPassword: func(string) (string, error) { return testPassword, nil },
		NewLogger:    func(config.LoggerConfig) (*zap.Logger, error) { return zap.NewNop(), nil },
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (h *harness) run(args ...string) result {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), h.options(), args, strings.NewReader(""), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (h *harness) login(role domain.Role) {
	h.t.Helper()
	res := h.run("login", "--email", emailFor(role), "--password", testPassword)
	require.Equal(h.t, 0, res.code, "login as %s failed: %s", role, res.stderr)
}

func TestLoginListAndRoleGatedWrite(t *testing.T) {
	for _, role := range domain.Roles {
		t.Run(string(role), func(t *testing.T) {
			h := newHarness(t).seeded()
			h.login(role)

			res := h.run("client", "list")
			assert.Equal(t, 0, res.code, "read-only list must work for %s: %s", role, res.stderr)

			res = h.run("client", "add", "--name", "Kevin Casey", "--email", "kevin@startup.io", "--company", "Cool Startup LLC")
			if role == domain.RoleSales {
				require.Equal(t, 0, res.code, res.stderr)
				assert.Contains(t, res.stdout, "Client 1 created.")

				res = h.run("client", "list")
				require.Equal(t, 0, res.code)
				assert.Contains(t, res.stdout, "Kevin Casey")
				return
			}
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, "Unauthorized: Insufficient permissions.")
		})
	}
}

func TestGuardedCommandWithoutSession(t *testing.T) {
	h := newHarness(t).seeded()

	res := h.run("client", "list")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Authentication required: Please log in first.")
	assert.Empty(t, res.stdout)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newHarness(t).seeded()

	res := h.run("login", "--email", emailFor(domain.RoleSales), "--password", "wrong")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Invalid email or password")

	_, err := os.Stat(h.cfg.Session.FilePath)
	assert.True(t, os.IsNotExist(err), "a failed login must not create a session")
}

func TestLoginPromptsForMissingCredentials(t *testing.T) {
	h := newHarness(t).seeded()
	var stdout, stderr bytes.Buffer

	code := Run(context.Background(), h.options(), []string{"login"},
		strings.NewReader(emailFor(domain.RoleSupport)+"\n"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stderr.String(), "Email: ")
	assert.Contains(t, stdout.String(), "Logged in as support collaborator (SUPPORT)")
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t).seeded()
	h.login(domain.RoleManagement)

	res := h.run("logout")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "Logged out.")

	res = h.run("whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Authentication required")

	res = h.run("logout")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "No active session.")
	assert.Equal(t, 2, h.connects, "only login and whoami open the database")
}

func TestExpiredSessionIsRejected(t *testing.T) {
	h := newHarness(t).seeded()
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret: testSecret,
		TTL:    time.Hour,
		Now:    func() time.Time { return time.Now().Add(-2 * time.Hour) },
	})
	require.NoError(t, err)
	token, _, err := tokens.Issue(1)
	require.NoError(t, err)
	require.NoError(t, session.NewFileStore(h.cfg.Session.FilePath, session.DefaultTokenField).Save(token))

	res := h.run("whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Authentication failed: Token has expired")
}

func TestWhoamiJSON(t *testing.T) {
	h := newHarness(t).seeded()
	h.login(domain.RoleSales)

	res := h.run("-o", "json", "whoami")
	require.Equal(t, 0, res.code, res.stderr)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &body))
	assert.Equal(t, "SALES", body["role"])
	assert.Equal(t, "sales@epic.events", body["email"])
	assert.NotContains(t, res.stdout, "password")
}

func TestErrorsAsJSON(t *testing.T) {
	h := newHarness(t).seeded()

	res := h.run("-o", "json", "client", "list")
	require.Equal(t, 1, res.code)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &body))
	assert.Equal(t, "AUTHENTICATION_REQUIRED", body["code"])
	assert.Equal(t, float64(401), body["status"])
}

func TestContractAndEventWorkflow(t *testing.T) {
	h := newHarness(t).seeded()

	h.login(domain.RoleSales)
	require.Equal(t, 0, h.run("client", "add", "--name", "Kevin Casey", "--email", "kevin@startup.io").code)

	res := h.run("contract", "add", "--client", "1", "--total", "1000")
	assert.Equal(t, 1, res.code, "only MANAGEMENT creates contracts")

	h.login(domain.RoleManagement)
	res = h.run("contract", "add", "--client", "1", "--total", "1000")
	require.Equal(t, 0, res.code, res.stderr)

	h.login(domain.RoleSales)
	res = h.run("contract", "update", "1", "--signed", "--remaining", "250")
	require.Equal(t, 0, res.code, res.stderr)

	res = h.run("event", "add", "--contract", "1", "--client-name", "Kevin Casey", "--client-contact", "kevin@startup.io",
		"--start", "2024-06-04", "--end", "2024-06-05", "--location", "Candé-sur-Beuvron", "--attendees", "75")
	require.Equal(t, 0, res.code, res.stderr)

	h.login(domain.RoleSupport)
	res = h.run("event", "update", "1", "--support", "3", "--notes", "Wedding")
	require.Equal(t, 0, res.code, res.stderr)

	res = h.run("-o", "json", "event", "list", "--mine")
	require.Equal(t, 0, res.code, res.stderr)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Wedding", list[0]["notes"])

	res = h.run("event", "delete", "1")
	assert.Equal(t, 1, res.code, "SUPPORT cannot delete events")
}

func TestCollaboratorManagement(t *testing.T) {
	h := newHarness(t).seeded()
	h.login(domain.RoleManagement)

	res := h.run("collaborator", "add", "--employee", "E100", "--name", "Anna", "--email", "anna@epic.events",
		"--department", "Support", "--role", "support")
	require.Equal(t, 0, res.code, res.stderr)

	res = h.run("collaborator", "list")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "anna@epic.events")

	res = h.run("collaborator", "delete", "2")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "cannot delete their own account")

	h.login(domain.RoleSales)
	res = h.run("collaborator", "list")
	assert.Equal(t, 0, res.code, "collaborator list is read-only for other roles")
}

func TestRoleCommands(t *testing.T) {
	h := newHarness(t).seeded()
	h.login(domain.RoleManagement)

	res := h.run("role", "add", "AUDIT", "--permission", "view_client,view_contract")
	require.Equal(t, 0, res.code, res.stderr)

	res = h.run("-o", "json", "role", "seed")
	require.Equal(t, 0, res.code, res.stderr)
	assert.JSONEq(t, `{"created":0,"updated":0}`, res.stdout)

	res = h.run("role", "list")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "AUDIT")

	h.login(domain.RoleSupport)
	res = h.run("role", "delete", "AUDIT")
	assert.Equal(t, 1, res.code)
}

func TestBootstrapOnlyOnEmptyStore(t *testing.T) {
	h := newHarness(t)

	res := h.run("bootstrap", "--employee", "E001", "--name", "Alice Admin", "--email", "alice@epic.events")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Log in as alice@epic.events.")

	res = h.run("login", "--email", "alice@epic.events")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "(MANAGEMENT)")

	res = h.run("bootstrap", "--employee", "E002", "--name", "Bob", "--email", "bob@epic.events")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "already bootstrapped")
}

func TestUnguardedCommandsSkipTheDatabase(t *testing.T) {
	h := newHarness(t)

	res := h.run("version")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "crm version")

	res = h.run("migrate")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "version 1")

	assert.Zero(t, h.connects)
	assert.Equal(t, 1, h.configLoads, "version needs no configuration")
}

func TestRejectsUnknownOutputFormat(t *testing.T) {
	h := newHarness(t)
	res := h.run("-o", "yaml", "version")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unsupported output format")
}

func TestInvalidIDIsAValidationError(t *testing.T) {
	h := newHarness(t).seeded()
	h.login(domain.RoleSales)

	res := h.run("client", "delete", "abc")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "client id must be a positive integer")
}
