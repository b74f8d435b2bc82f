package domain

import (
	"strings"
	"time"
)

// Role tags what an identity is allowed to be inside the platform.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOperator  Role = "operator"
	RoleDriver    Role = "driver"
	RolePassenger Role = "passenger"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleOperator, RoleDriver, RolePassenger}

// ParseRole maps a raw claim or column value to a known role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Roles {
		if role == known {
			return role, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// User is the persisted identity owned by the user service.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Address      *string
	Role         Role
	CreatedAt    time.Time
}

// PublicIdentity is the subset of a user that is safe to hand to clients.
type PublicIdentity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// Credential is the internal lookup record exchanged between services.
type Credential struct {
	PublicIdentity
	PasswordHash string `json:"password_hash"`
}

// Public strips secrets from the user.
func (u *User) Public() PublicIdentity {
	return PublicIdentity{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// Credential returns the record served to the auth service.
func (u *User) Credential() Credential {
	return Credential{PublicIdentity: u.Public(), PasswordHash: u.PasswordHash}
}

// Profile is a role-specific row (admins, operators, passengers, drivers)
// joined with its owning user.
type Profile struct {
	ID     int64
	UserID int64
	User   User
	Driver *DriverDetails
}

// DriverDetails holds the columns only drivers carry.
type DriverDetails struct {
	LicenseNumber string
	LicenseExpiry *time.Time
	HireDate      *time.Time
	CityID        *int64
	OperatorName  string
}
