// Package structs defines the caller identity shared by every module.
package structs

import "slices"

// Role is an authorization role carried by the token.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleFaculty    Role = "FACULTY"
	RoleHeadAdmin  Role = "HEAD_ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Scope is the resolved set of identity attributes used by every
// authorization decision.
type Scope struct {
	TenantID    string `json:"tenant_id"`
	Department  string `json:"department"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	Year        int    `json:"year"`
}

// CompleteFor reports whether the scope carries what a caller holding roles
// needs: a tenant, plus a department unless the caller is staff. Staff have
// no department-scoped rules.
func (s *Scope) CompleteFor(roles []Role) bool {
	if s == nil || s.TenantID == "" {
		return false
	}
	return s.Department != "" || (&Actor{Roles: roles}).IsStaff()
}

// Actor is the authenticated caller.
type Actor struct {
	ID    string `json:"id"`
	Roles []Role `json:"roles"`
	Scope Scope  `json:"scope"`
}

// HasRole reports whether the actor holds any of roles.
func (a *Actor) HasRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if slices.Contains(a.Roles, r) {
			return true
		}
	}
	return false
}

func (a *Actor) IsStudent() bool    { return a.HasRole(RoleStudent) }
func (a *Actor) IsFaculty() bool    { return a.HasRole(RoleFaculty) }
func (a *Actor) IsSuperAdmin() bool { return a.HasRole(RoleSuperAdmin) }

// IsAdmin reports HEAD_ADMIN or SUPER_ADMIN.
func (a *Actor) IsAdmin() bool { return a.HasRole(RoleHeadAdmin, RoleSuperAdmin) }

// IsStaff reports any non-student role.
func (a *Actor) IsStaff() bool { return a.HasRole(RoleFaculty, RoleHeadAdmin, RoleSuperAdmin) }

// ParseRoles converts token role strings, skipping unknown values.
func ParseRoles(values []string) []Role {
	roles := make([]Role, 0, len(values))
	for _, v := range values {
		switch r := Role(v); r {
		case RoleStudent, RoleFaculty, RoleHeadAdmin, RoleSuperAdmin:
			roles = append(roles, r)
		}
	}
	return roles
}

// RoleStrings returns roles as plain strings.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
