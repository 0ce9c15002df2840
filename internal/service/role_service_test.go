package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/repository/memory"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	names := make([]string, 0, len(catalog.Roles))
	for _, role := range catalog.Roles {
		names = append(names, role.Name)
	}
	assert.ElementsMatch(t, []string{"SALES", "MANAGEMENT", "SUPPORT"}, names)
}

func TestParseCatalogErrors(t *testing.T) {
	tests := map[string]string{
		"empty":     "roles: []",
		"no name":   "roles:\n  - permissions: [a]",
		"duplicate": "roles:\n  - name: A\n  - name: A",
		"comma":     "roles:\n  - name: A\n    permissions: ['a,b']",
		"not yaml":  "roles: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  - name: AUDIT\n    permissions: [view_client]\n"), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Roles, 1)
	assert.Equal(t, []string{"view_client"}, catalog.Roles[0].Permissions)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc := NewRoleService(memory.NewStore().Roles(), nil)
	ctx := context.Background()

	result, err := svc.Seed(ctx, DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Created: 3}, result)

	result, err = svc.Seed(ctx, DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, result)

	catalog := &Catalog{Roles: []CatalogRole{{Name: "SALES", Permissions: []string{"view_client"}}}}
	result, err = svc.Seed(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Updated: 1}, result)

	role, err := svc.GetByName(ctx, "SALES")
	require.NoError(t, err)
	assert.Equal(t, "view_client", role.Permissions)
}

func TestRoleServiceCRUD(t *testing.T) {
	store := memory.NewStore()
	svc := NewRoleService(store.Roles(), nil)
	ctx := context.Background()

	role, err := svc.Create(ctx, "AUDIT", []string{"view_client", " view_event "})
	require.NoError(t, err)
	assert.Equal(t, "view_client,view_event", role.Permissions)

	_, err = svc.Create(ctx, "AUDIT", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	updated, err := svc.Update(ctx, "AUDIT", ptr("AUDITORS"), nil)
	require.NoError(t, err)
	assert.Equal(t, "AUDITORS", updated.Name)
	assert.Equal(t, "view_client,view_event", updated.Permissions, "nil permissions keep the tokens")

	user := &domain.User{EmployeeNumber: "E1", Email: "a@b.co", Role: domain.RoleSupport, PermissionSetID: &role.ID}
	require.NoError(t, store.Users().Create(ctx, user))

	require.NoError(t, svc.Delete(ctx, "AUDITORS"))
	got, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PermissionSet)

	err = svc.Delete(ctx, "AUDITORS")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestBootstrap(t *testing.T) {
	store := memory.NewStore()
	roles := NewRoleService(store.Roles(), nil)
	dispatcher := &recordingDispatcher{}
	collaborators := NewCollaboratorService(CollaboratorDependencies{
		UserRepo: store.Users(), RoleRepo: store.Roles(), Hasher: fastHasher(),
	})
	svc := NewBootstrapService(store.Users(), roles, collaborators, dispatcher, nil)
	ctx := context.Background()
	input := CollaboratorInput{
		EmployeeNumber: "E001", Name: "Admin", Email: "admin@epic.events", Password: "Welcome1!", Department: "Management",
		Role: domain.RoleSales,
	}

	user, err := svc.Bootstrap(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManagement, user.Role, "bootstrap always creates a MANAGEMENT collaborator")
	assert.Len(t, dispatcher.events, 1)

	authz := NewAuthorizationService(store.Users())
	require.NoError(t, authz.CheckPermission(ctx, user.ID, PermissionCreateUser))

	_, err = svc.Bootstrap(ctx, input)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}
