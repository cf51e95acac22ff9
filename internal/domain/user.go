package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents an authenticated account within the platform.
type User struct {
	ID        string
	GoogleSub string
	Email     string
	Name      string
	Picture   string
	Locale    string
	Role      UserRole
	Plan      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnlimitedOverride is the per-user flag that bypasses the monthly quota
// entirely. It is granted out-of-band (access code redemption or the
// accessgrant CLI) and read on every enhancement request.
type UnlimitedOverride struct {
	Unlimited   bool
	Description string
	GrantedBy   string
	GrantedAt   time.Time
	// ExpiresAt is reserved; overrides never auto-expire today.
	ExpiresAt *time.Time
}
