package domain

import "strings"

// Role is the coarse tag gating command access.
type Role string

const (
	RoleSales      Role = "SALES"
	RoleManagement Role = "MANAGEMENT"
	RoleSupport    Role = "SUPPORT"
)

// Roles lists every known role tag.
var Roles = []Role{RoleSales, RoleManagement, RoleSupport}

// ParseRole normalizes a role tag, reporting whether it is known.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Roles {
		if role == known {
			return role, true
		}
	}
	return role, false
}

// PermissionSet is a named role record owning a comma-separated permission list.
type PermissionSet struct {
	ID          int64
	Name        string
	Permissions string
}

// Tokens splits the stored permission string on commas, keeping every element
// exactly as stored. An empty string yields no tokens.
func (p PermissionSet) Tokens() []string {
	if p.Permissions == "" {
		return []string{}
	}
	return strings.Split(p.Permissions, ",")
}

// JoinPermissions renders tokens in the stored comma-separated form. Tokens
// are trimmed and blanks dropped, so everything written through it matches
// exactly on read.
func JoinPermissions(tokens []string) string {
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, ",")
}
