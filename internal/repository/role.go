package repository

import (
	"context"

	"todo-backend/internal/domain"
)

// RoleRepository exposes role reference data and the role to privilege
// association rows.
type RoleRepository interface {
	Init(ctx context.Context) error
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	GetByUserRole(ctx context.Context, role domain.UserRole) (*domain.Role, error)
	PrivilegeIDs(ctx context.Context, roleID int64) ([]int64, error)
}

// PrivilegeRepository exposes privilege reference data.
type PrivilegeRepository interface {
	Init(ctx context.Context) error
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Privilege, error)
}
