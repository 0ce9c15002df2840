package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/config"
	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/events"
	"github.com/spec-kit/crm/internal/repository/memory"
	"github.com/spec-kit/crm/internal/session"
	"github.com/spec-kit/crm/pkg/password"
)

const testPassword = "Secret123!"

// recordingDispatcher keeps every published event.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	store      *memory.Store
	dispatcher *recordingDispatcher
	tokens     *auth.TokenManager
	sessions   *session.FileStore
	hasher     password.Hasher
	roles      *RoleService
	users      map[domain.Role]*domain.User
}

// newTestEnv seeds the default catalog and one collaborator per role.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokenManager(auth.TokenConfig{Secret: "service-test"})
	require.NoError(t, err)

	env := &testEnv{
		store:      memory.NewStore(),
		dispatcher: &recordingDispatcher{},
		tokens:     tokens,
		sessions:   session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), "token"),
		hasher:     fastHasher(),
		users:      map[domain.Role]*domain.User{},
	}
	env.roles = NewRoleService(env.store.Roles(), nil)
	_, err = env.roles.Seed(context.Background(), DefaultCatalog())
	require.NoError(t, err)

	for i, role := range domain.Roles {
		env.users[role] = env.addUser(t, role, string(role), i)
	}
	return env
}

func (e *testEnv) addUser(t *testing.T, role domain.Role, setName string, n int) *domain.User {
	t.Helper()
	ctx := context.Background()
	hash, err := e.hasher.Hash(testPassword)
	require.NoError(t, err)
	set, err := e.store.Roles().GetByName(ctx, setName)
	require.NoError(t, err)

	user := &domain.User{
		EmployeeNumber:  "E" + string(rune('A'+n)),
		Name:            string(role) + " user",
		Email:           string(role) + "@epic.events",
		PasswordHash:    hash,
		Department:      string(role),
		Role:            role,
		PermissionSetID: &set.ID,
	}
	require.NoError(t, e.store.Users().Create(ctx, user))
	return user
}

func (e *testEnv) authService(maxAttempts int) *AuthService {
	return NewAuthService(config.AuthConfig{MaxLoginAttempts: maxAttempts, LockoutMinutes: 15}, AuthDependencies{
		UserRepo:    e.store.Users(),
		AttemptRepo: e.store.LoginAttempts(),
		Tokens:      e.tokens,
		Sessions:    e.sessions,
		Dispatcher:  e.dispatcher,
	})
}

func (e *testEnv) collaboratorService() *CollaboratorService {
	return NewCollaboratorService(CollaboratorDependencies{
		UserRepo:   e.store.Users(),
		RoleRepo:   e.store.Roles(),
		Hasher:     e.hasher,
		Dispatcher: e.dispatcher,
	})
}

func ptr[T any](v T) *T { return &v }

func fastHasher() password.Hasher { return password.BcryptHasher{Cost: 4} }
