package domain

import (
	"slices"
	"time"
)

type UserRole string

const (
	RoleBasicUser UserRole = "ROLE_BASIC_USER"
	RoleAdmin     UserRole = "ROLE_ADMIN"
)

type UserPrivilege string

const (
	PrivilegeViewTodos   UserPrivilege = "VIEW_TODOS"
	PrivilegeCreateTodos UserPrivilege = "CREATE_TODOS"
	PrivilegeUpdateTodos UserPrivilege = "UPDATE_TODOS"
	PrivilegeDeleteTodos UserPrivilege = "DELETE_TODOS"
)

// User represents a registered account. RoleID is nil for service accounts
// created without a role; System marks seed accounts that must never be
// deleted.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	RoleID       *int64
	System       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is immutable reference data seeded at startup.
type Role struct {
	ID       int64
	UserRole UserRole
}

// Privilege is immutable reference data seeded at startup.
type Privilege struct {
	ID            int64
	UserPrivilege UserPrivilege
}

// RolePrivilege associates a role with one granted privilege. A role's
// effective privilege set is the distinct union of its association rows.
type RolePrivilege struct {
	RoleID      int64
	PrivilegeID int64
}

// Principal is the resolved identity bound to an authenticated request.
// It is built fresh per authentication event and never persisted.
// Privileges holds deduplicated privilege names in lexicographic order.
type Principal struct {
	UserID     int64
	Email      string
	Role       UserRole // empty when the user has no role
	System     bool
	Privileges []string
}

func (p *Principal) HasPrivilege(privilege UserPrivilege) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Privileges, string(privilege))
}
