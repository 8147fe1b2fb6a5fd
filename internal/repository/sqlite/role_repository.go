package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

const createRolesTable = `
CREATE TABLE IF NOT EXISTS roles (
	id INTEGER PRIMARY KEY,
	user_role TEXT NOT NULL UNIQUE
);
`

const createRolePrivilegesTable = `
CREATE TABLE IF NOT EXISTS roles_privileges (
	role_id INTEGER NOT NULL REFERENCES roles(id),
	privilege_id INTEGER NOT NULL REFERENCES privileges(id),
	PRIMARY KEY (role_id, privilege_id)
);
`

// Stable identifiers for seeded reference data.
const (
	roleIDBasicUser = 1
	roleIDAdmin     = 2
)

type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) repository.RoleRepository {
	return &RoleRepository{db: db}
}

// Init creates the roles tables and seeds the reference data. It expects the
// privileges table to exist already, so PrivilegeRepository.Init must run
// first.
func (r *RoleRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRolesTable); err != nil {
		return fmt.Errorf("create roles table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createRolePrivilegesTable); err != nil {
		return fmt.Errorf("create roles_privileges table: %w", err)
	}
	return r.seed(ctx)
}

func (r *RoleRepository) seed(ctx context.Context) error {
	roles := []domain.Role{
		{ID: roleIDBasicUser, UserRole: domain.RoleBasicUser},
		{ID: roleIDAdmin, UserRole: domain.RoleAdmin},
	}
	for _, role := range roles {
		if _, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO roles (id, user_role) VALUES (?, ?)`,
			role.ID, role.UserRole,
		); err != nil {
			return fmt.Errorf("seed role %s: %w", role.UserRole, err)
		}
	}

	// both seeded roles are granted every todo privilege
	for _, roleID := range []int64{roleIDBasicUser, roleIDAdmin} {
		for _, privilegeID := range seededPrivilegeIDs {
			if _, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO roles_privileges (role_id, privilege_id) VALUES (?, ?)`,
				roleID, privilegeID,
			); err != nil {
				return fmt.Errorf("seed role privilege: %w", err)
			}
		}
	}
	return nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_role FROM roles WHERE id = ?`, id)
	return scanRole(row)
}

func (r *RoleRepository) GetByUserRole(ctx context.Context, role domain.UserRole) (*domain.Role, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_role FROM roles WHERE user_role = ?`, role)
	return scanRole(row)
}

func (r *RoleRepository) PrivilegeIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT privilege_id FROM roles_privileges WHERE role_id = ?`, roleID)
	if err != nil {
		return nil, fmt.Errorf("query role privileges: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan role privilege: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role privileges: %w", err)
	}
	return ids, nil
}

func scanRole(row interface {
	Scan(dest ...any) error
}) (*domain.Role, error) {
	var role domain.Role
	if err := row.Scan(&role.ID, &role.UserRole); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	return &role, nil
}
