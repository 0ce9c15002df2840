package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/repository"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

type memorySource struct {
	token string
	err   error
}

func (m *memorySource) Load() (string, bool, error) {
	return m.token, m.token != "", m.err
}

type memoryUsers map[int64]*domain.User

func (m memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

type failingUsers struct{ err error }

func (f failingUsers) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, f.err
}

// recorder counts invocations and captures the injected arguments.
type recorder struct {
	calls    int
	callerID int64
	args     []string
}

func (r *recorder) op(_ context.Context, callerID int64, args []string) error {
	r.calls++
	r.callerID = callerID
	r.args = args
	return nil
}

type guardFixture struct {
	tokens *TokenManager
	source *memorySource
	users  memoryUsers
	guard  *Guard
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	tokens := newTestManager(t, TokenConfig{})
	f := &guardFixture{
		tokens: tokens,
		source: &memorySource{},
		users: memoryUsers{
			1: {ID: 1, Name: "Sam Sales", Role: domain.RoleSales},
			2: {ID: 2, Name: "Sue Support", Role: domain.RoleSupport},
			3: {ID: 3, Name: "Max Manager", Role: domain.RoleManagement},
		},
	}
	f.guard = NewGuard(f.source, tokens, f.users, nil)
	return f
}

func (f *guardFixture) loginAs(t *testing.T, id int64) {
	t.Helper()
	token, _, err := f.tokens.Issue(id)
	require.NoError(t, err)
	f.source.token = token
}

func TestGuardRequiresSession(t *testing.T) {
	f := newGuardFixture(t)
	rec := &recorder{}

	err := f.guard.Wrap(AnyAuthenticated, rec.op)(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthenticationRequired))
	assert.Equal(t, "Authentication required: Please log in first.", err.Error())
	assert.Zero(t, rec.calls)
}

func TestGuardReportsUnreadableSessionAsAuthenticationRequired(t *testing.T) {
	f := newGuardFixture(t)
	cause := errors.New("unexpected end of JSON input")
	f.source.err = cause
	rec := &recorder{}

	err := f.guard.Wrap(AnyAuthenticated, rec.op)(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.ErrorIs(t, err, cause)
	assert.Zero(t, rec.calls)
}

func TestGuardRejectsBadTokens(t *testing.T) {
	f := newGuardFixture(t)
	now, set := fixedClock(tokenEpoch)
	expiring := newTestManager(t, TokenConfig{TTL: time.Minute, Now: now})
	expired, _, err := expiring.Issue(1)
	require.NoError(t, err)
	set(tokenEpoch.Add(time.Hour))
	f.guard = NewGuard(f.source, expiring, f.users, nil)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{name: "expired", token: expired, message: "Authentication failed: Token has expired"},
		{name: "garbage", token: "abc.def.ghi", message: "Authentication failed: Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.source.token = tt.token
			rec := &recorder{}

			err := f.guard.Wrap(AnyAuthenticated, rec.op)(context.Background(), nil)
			require.ErrorIs(t, err, ErrAuthenticationFailed)
			assert.Contains(t, err.Error(), tt.message)
			assert.Zero(t, rec.calls)
		})
	}
}

func TestGuardRejectsUnknownUser(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 99)
	rec := &recorder{}

	err := f.guard.Wrap(AnyAuthenticated, rec.op)(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Equal(t, "Unauthorized: User not found.", err.Error())
	assert.Zero(t, rec.calls)
}

func TestGuardPropagatesStoreFailures(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 1)
	dbErr := errors.New("connection refused")
	guard := NewGuard(f.source, f.tokens, failingUsers{err: dbErr}, nil)
	rec := &recorder{}

	err := guard.Wrap(AnyAuthenticated, rec.op)(context.Background(), nil)
	assert.ErrorIs(t, err, dbErr)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	assert.Zero(t, rec.calls)
}

func TestGuardInsufficientRoleNeverInvokes(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 2)
	rec := &recorder{}

	err := f.guard.Wrap(RequireRoles(domain.RoleSales), rec.op)(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrInsufficientRole)
	assert.Equal(t, "Unauthorized: Insufficient permissions.", err.Error())
	assert.Zero(t, rec.calls)
}

func TestGuardReadOnlyFallbackInvokesOnce(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 2)
	rec := &recorder{}

	err := f.guard.Wrap(ReadOnlyFor(domain.RoleSales), rec.op)(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, int64(2), rec.callerID)
}

func TestGuardInjectsCallerAndArguments(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 3)
	rec := &recorder{}

	policy := RequireRoles(domain.RoleSales, domain.RoleManagement)
	err := f.guard.Wrap(policy, rec.op)(context.Background(), []string{"42", "--signed"})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, int64(3), rec.callerID)
	assert.Equal(t, []string{"42", "--signed"}, rec.args)
}

func TestGuardEmptyRolesAcceptsAnyIdentity(t *testing.T) {
	f := newGuardFixture(t)
	for id := range f.users {
		f.loginAs(t, id)
		user, err := f.guard.Authorize(context.Background(), AnyAuthenticated)
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
	}
}

func TestGuardReturnsOperationResultUnchanged(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 1)
	want := errors.New("client not found")

	err := f.guard.Wrap(RequireRoles(domain.RoleSales), func(context.Context, int64, []string) error {
		return want
	})(context.Background(), nil)
	assert.Same(t, want, err)
}

func TestGuardWithSourceUsesStaticToken(t *testing.T) {
	f := newGuardFixture(t)
	token, _, err := f.tokens.Issue(1)
	require.NoError(t, err)

	user, err := f.guard.WithSource(StaticToken(token)).Authorize(context.Background(), RequireRoles(domain.RoleSales))
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	_, err = f.guard.WithSource(StaticToken("")).Authorize(context.Background(), AnyAuthenticated)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)

	_, err = f.guard.Authorize(context.Background(), AnyAuthenticated)
	assert.ErrorIs(t, err, ErrAuthenticationRequired, "original guard keeps its own source")
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "any authenticated collaborator", AnyAuthenticated.String())
	assert.Equal(t, "SALES, MANAGEMENT", RequireRoles(domain.RoleSales, domain.RoleManagement).String())
	assert.Equal(t, "SUPPORT (read-only for others)", ReadOnlyFor(domain.RoleSupport).String())
}
