package auth

import (
	"net/http"
	"strings"

	"github.com/spec-kit/crm/internal/domain"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// ErrPermissionModelMisconfigured is returned when an identity carries no permission set.
var ErrPermissionModelMisconfigured = apperrors.NewDomainError(apperrors.CodePermissionModelMisconfigured,
	"User has no role assigned", http.StatusForbidden, nil)

// HasPermission reports whether permission is an exact element of the
// comma-split permission string of the identity's permission set. Stored
// elements are not trimmed: " view_client" does not grant "view_client".
func HasPermission(user *domain.User, permission string) (bool, error) {
	if user == nil || user.PermissionSet == nil {
		return false, ErrPermissionModelMisconfigured
	}
	for _, token := range strings.Split(user.PermissionSet.Permissions, ",") {
		if token == permission {
			return true, nil
		}
	}
	return false, nil
}
