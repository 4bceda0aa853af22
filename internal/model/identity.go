package model

// Roles carried in the identity token's "role" claim.
const (
	RoleResident = "RESIDENT"
	RoleAdmin    = "ADMIN"
)

// Identity is the authenticated caller as supplied by the identity
// collaborator.  Unit references the resident's house or apartment.
type Identity struct {
	UserID string
	Name   string
	Unit   string
	Role   string
}

// IsAdmin reports whether the caller holds the admin capability.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
