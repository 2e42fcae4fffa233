// Package domain contains core business entities and interfaces.
package domain

// TenantID identifies the customer organization that owns a record.
// The empty value is the legacy implicit global tenant.
type TenantID string

// LegacyTenant is the implicit tenant of records created before tenancy existed.
const LegacyTenant TenantID = ""

// IsLegacy returns true for the implicit global tenant.
func (t TenantID) IsLegacy() bool {
	return t == LegacyTenant
}

// String returns the tenant identifier, or "legacy" for the implicit tenant.
func (t TenantID) String() string {
	if t.IsLegacy() {
		return "legacy"
	}
	return string(t)
}

// Role is the access role of a user.
type Role string

// Valid user roles.
const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
)

// IsValid returns true if the role is a known value.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleTechnician
}

// Actor is the identity on whose behalf an operation runs.
type Actor struct {
	UserID   string   `json:"userId"`
	Name     string   `json:"name"`
	Role     Role     `json:"role"`
	TenantID TenantID `json:"tenantId"`
}

// IsAdmin returns true if the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsTechnician returns true if the actor has the technician role.
func (a Actor) IsTechnician() bool {
	return a.Role == RoleTechnician
}

// User is a member of a tenant.
type User struct {
	ID          string   `json:"id"`
	TenantID    TenantID `json:"tenantId"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Role        Role     `json:"role"`
}

// Label returns the display name, falling back to the email address.
func (u *User) Label() string {
	if u == nil {
		return UnassignedLabel
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return UnassignedLabel
}

// UnassignedLabel names the absence of a technician in history notes.
const UnassignedLabel = "Unassigned"

// Actor returns the actor identity for this user.
func (u *User) Actor() Actor {
	return Actor{
		UserID:   u.ID,
		Name:     u.Label(),
		Role:     u.Role,
		TenantID: u.TenantID,
	}
}
