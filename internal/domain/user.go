package domain

import (
	"errors"
	"time"
)

// User is the read-only view of a customer this core needs: phone lookup,
// role and current creditworthiness.
type User struct {
	ID                 string
	Email              string
	Name               string
	Phone              string
	Role               Role
	CreditworthinessID string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Role represents a user's access level
type Role string

const (
	// RoleUser may act only on endpoints and instruments they own
	RoleUser Role = "USER"

	// RoleAdmin may act on any endpoint or instrument and manage catalogs
	RoleAdmin Role = "ADMIN"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal is the authenticated caller as seen by the boundary layer.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether the principal may act on a resource owned by ownerID.
func (p Principal) CanAccess(ownerID string) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == ownerID)
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
	ErrForbidden        = errors.New("resource does not belong to the caller")
)
