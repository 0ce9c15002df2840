package auth

import (
	"strings"

	"github.com/spec-kit/crm/internal/domain"
)

// HasRole reports whether role is one of allowed.
func HasRole(role domain.Role, allowed ...domain.Role) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

// String renders the policy for help text, e.g. "MANAGEMENT (read-only for others)".
func (p Policy) String() string {
	if len(p.Roles) == 0 {
		return "any authenticated collaborator"
	}
	names := make([]string, len(p.Roles))
	for i, role := range p.Roles {
		names[i] = string(role)
	}
	out := strings.Join(names, ", ")
	if p.ReadOnly {
		out += " (read-only for others)"
	}
	return out
}
