package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/persistence"
	"github.com/spec-kit/crm/internal/repository"
	"github.com/spec-kit/crm/pkg/password"
)

// integrationPool connects to the database named by CRM_INTEGRATION_DSN and
// migrates it. Tests use unique emails so they can share a database.
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("CRM_INTEGRATION_DSN")
	if dsn == "" {
		t.Skip("set CRM_INTEGRATION_DSN to run repository integration tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = persistence.RunMigrations(ctx, pool, zap.NewNop())
	require.NoError(t, err)
	return pool
}

func uniqueSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func TestUserAndRoleRepositories(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	roles := repository.NewRoleRepository(pool)
	suffix := uniqueSuffix()

	role := &domain.PermissionSet{Name: "SALES-" + suffix, Permissions: "create_client,view_client"}
	require.NoError(t, roles.Create(ctx, role))
	assert.ErrorIs(t, roles.Create(ctx, &domain.PermissionSet{Name: role.Name}), repository.ErrAlreadyExists)

	hash, err := password.BcryptHasher{Cost: 4}.Hash("Secret123!")
	require.NoError(t, err)
	user := &domain.User{
		EmployeeNumber:  "E" + suffix,
		Name:            "Integration Sales",
		Email:           "sales" + suffix + "@example.com",
		PasswordHash:    hash,
		Department:      "Sales",
		Role:            domain.RoleSales,
		PermissionSetID: &role.ID,
	}
	require.NoError(t, users.Create(ctx, user))
	assert.NotZero(t, user.ID)

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSales, got.Role)
	require.NotNil(t, got.PermissionSet)
	assert.Equal(t, "create_client,view_client", got.PermissionSet.Permissions)

	authed, err := users.Authenticate(ctx, user.Email, "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
	_, err = users.Authenticate(ctx, user.Email, "wrong")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = users.Authenticate(ctx, "nobody"+suffix+"@example.com", "Secret123!")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, roles.Delete(ctx, role.ID))
	got, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PermissionSet, "deleting a role detaches its collaborators")

	require.NoError(t, users.Delete(ctx, user.ID))
	_, err = users.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, user.ID), repository.ErrNotFound)
}

func TestClientContractEventRepositories(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	suffix := uniqueSuffix()
	clients := repository.NewClientRepository(pool)
	contracts := repository.NewContractRepository(pool)
	events := repository.NewEventRepository(pool)

	client := &domain.Client{FullName: "Kevin Casey", Email: "kevin" + suffix + "@startup.io", Phone: "0612345678", CompanyName: "Cool Startup LLC"}
	require.NoError(t, clients.Create(ctx, client))
	assert.ErrorIs(t, clients.Create(ctx, &domain.Client{FullName: "Dup", Email: client.Email}), repository.ErrAlreadyExists)

	contract := &domain.Contract{ClientID: client.ID, TotalAmount: 1000, AmountRemaining: 250}
	require.NoError(t, contracts.Create(ctx, contract))
	assert.ErrorIs(t, contracts.Create(ctx, &domain.Contract{ClientID: -1, TotalAmount: 1}), repository.ErrInvalidReference)

	contract.Signed = true
	require.NoError(t, contracts.Update(ctx, contract))
	signed := true
	list, err := contracts.List(ctx, repository.ContractFilter{ClientID: &client.ID, Signed: &signed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 250.0, list[0].AmountRemaining)

	start := time.Date(2024, time.June, 4, 0, 0, 0, 0, time.UTC)
	event := &domain.Event{
		ContractID:    contract.ID,
		ClientName:    client.FullName,
		ClientContact: client.Email,
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, 1),
		Location:      "53 Rue du Château, 41120 Candé-sur-Beuvron",
		Attendees:     75,
	}
	require.NoError(t, events.Create(ctx, event))
	gotEvent, err := events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, start.Equal(gotEvent.StartDate))

	require.NoError(t, clients.Delete(ctx, client.ID))
	_, err = events.GetByID(ctx, event.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "events cascade with their contract and client")
}

func TestLoginAttemptRepository(t *testing.T) {
	addr := os.Getenv("CRM_INTEGRATION_REDIS")
	if addr == "" {
		t.Skip("set CRM_INTEGRATION_REDIS to run the login attempt integration test")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	attempts := repository.NewLoginAttemptRepository(client)
	email := "throttle" + uniqueSuffix() + "@example.com"

	for want := int64(1); want <= 3; want++ {
		got, err := attempts.RecordFailure(ctx, email, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	failures, err := attempts.Failures(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, int64(3), failures)

	require.NoError(t, attempts.Reset(ctx, email))
	failures, err = attempts.Failures(ctx, email)
	require.NoError(t, err)
	assert.Zero(t, failures)
}

func TestNoopLoginAttempts(t *testing.T) {
	attempts := repository.NewLoginAttemptRepository(nil)
	got, err := attempts.RecordFailure(context.Background(), "a@b.co", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, got)
}
