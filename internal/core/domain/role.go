package domain

import (
	"fmt"
	"strings"
)

// Authority is the fixed set of grants a role can carry.
type Authority string

const (
	AuthorityUser       Authority = "USER"
	AuthorityAdmin      Authority = "ADMIN"
	AuthorityManager    Authority = "MANAGER"
	AuthoritySuperAdmin Authority = "SUPER_ADMIN"
)

const (
	userPermissions       = "document:create,document:read,document:update,document:delete"
	adminPermissions      = "user:create,user:read,user:update,document:create,document:read,document:update,document:delete"
	managerPermissions    = "document:create,document:read,document:update,document:delete,user:create,user:read,user:update"
	superAdminPermissions = "user:create,user:read,user:update,user:delete,document:create,document:read,document:update,document:delete"
)

var authorityPermissions = map[Authority]string{
	AuthorityUser:       userPermissions,
	AuthorityAdmin:      adminPermissions,
	AuthorityManager:    managerPermissions,
	AuthoritySuperAdmin: superAdminPermissions,
}

// Permissions returns the comma separated grants of the authority.
func (a Authority) Permissions() string {
	return authorityPermissions[a]
}

// Valid reports whether a is one of the known authorities.
func (a Authority) Valid() bool {
	_, ok := authorityPermissions[a]
	return ok
}

// ParseAuthority resolves a name case-insensitively.
func ParseAuthority(s string) (Authority, error) {
	a := Authority(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown authority %q", ErrInvalidInput, s)
	}
	return a, nil
}

// Role is a named authority. Roles are seeded, never created by the
// registration workflow.
type Role struct {
	Auditable
	Name      string    `json:"name"`
	Authority Authority `json:"authority"`
}

// NormalizeRoleName is the stored form of a role name. Lookups compare
// normalised names, so "user" finds the USER role.
func NormalizeRoleName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NewRole builds a role named after its authority.
func NewRole(a Authority) *Role {
	return &Role{Name: string(a), Authority: a}
}
