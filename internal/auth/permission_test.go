package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm/internal/domain"
)

func TestHasPermissionExactMembership(t *testing.T) {
	user := &domain.User{
		ID:            1,
		Role:          domain.RoleSales,
		PermissionSet: &domain.PermissionSet{Name: "SALES", Permissions: "create_client,view_client"},
	}

	tests := []struct {
		permission string
		want       bool
	}{
		{permission: "create_client", want: true},
		{permission: "view_client", want: true},
		{permission: "update_client", want: false},
		{permission: "create", want: false},
		{permission: "create_client,view_client", want: false},
		{permission: "CREATE_CLIENT", want: false},
		{permission: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.permission, func(t *testing.T) {
			got, err := HasPermission(user, tt.permission)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasPermissionComparesStoredElementsVerbatim(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		permission string
		want       bool
	}{
		{name: "leading space", stored: "create_client, view_client", permission: "view_client", want: false},
		{name: "stored with space", stored: "create_client, view_client", permission: " view_client", want: true},
		{name: "trailing space", stored: "create_user ,delete_user", permission: "create_user", want: false},
		{name: "empty set", stored: "", permission: "view_client", want: false},
		{name: "empty set empty token", stored: "", permission: "", want: true},
		{name: "trailing comma empty token", stored: "create_user,", permission: "", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &domain.User{PermissionSet: &domain.PermissionSet{Permissions: tt.stored}}
			got, err := HasPermission(user, tt.permission)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasPermissionWithoutPermissionSet(t *testing.T) {
	_, err := HasPermission(&domain.User{ID: 1, Role: domain.RoleManagement}, "create_user")
	assert.ErrorIs(t, err, ErrPermissionModelMisconfigured)

	_, err = HasPermission(nil, "create_user")
	assert.ErrorIs(t, err, ErrPermissionModelMisconfigured)
}
