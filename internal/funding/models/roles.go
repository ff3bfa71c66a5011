package models

import (
	dErrors "givepool/pkg/domain-errors"
)

// Role is a named grant on the platform registry.
type Role string

const (
	// RolePlatformAdmin controls fees, treasury, pause and the allowlist.
	RolePlatformAdmin Role = "platform_admin"
	// RoleCreator may create new project instances.
	RoleCreator Role = "creator"
)

var validRoles = map[Role]bool{
	RolePlatformAdmin: true,
	RoleCreator:       true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

// Permission is one guarded registry capability. Permissions decouple the
// authorization check from how role membership is stored.
type Permission string

const (
	PermCreateProject   Permission = "create_project"
	PermManageAllowlist Permission = "manage_allowlist"
	PermSetFee          Permission = "set_fee"
	PermSetTreasury     Permission = "set_treasury"
	PermPause           Permission = "pause"
	PermManageRoles     Permission = "manage_roles"
)

// rolePermissions is the enum-keyed permission set for each role.
var rolePermissions = map[Role]map[Permission]bool{
	RolePlatformAdmin: {
		PermManageAllowlist: true,
		PermSetFee:          true,
		PermSetTreasury:     true,
		PermPause:           true,
		PermManageRoles:     true,
		PermCreateProject:   true,
	},
	RoleCreator: {
		PermCreateProject: true,
	},
}

// Grants reports whether the role carries the permission.
func (r Role) Grants(p Permission) bool {
	return rolePermissions[r][p]
}
