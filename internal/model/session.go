package model

import "strings"

// Role is the caller's role as asserted by the identity provider.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManufacturer Role = "manufacturer"
	RoleUnknown      Role = "unknown"
)

// ParseRole maps an external role claim onto the closed role set.
// A missing claim is treated as a manufacturer; unrecognised values are downgraded to unknown.
func ParseRole(claim string) Role {
	switch strings.ToLower(strings.TrimSpace(claim)) {
	case "":
		return RoleManufacturer
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleManufacturer):
		return RoleManufacturer
	default:
		return RoleUnknown
	}
}

// Session is the per-request caller context passed explicitly into each workflow.
type Session struct {
	Address Address
	Role    Role
}

// Anonymous reports whether the session carries no account address.
func (s Session) Anonymous() bool {
	return s.Address == ""
}
