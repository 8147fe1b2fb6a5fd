package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

const createPrivilegesTable = `
CREATE TABLE IF NOT EXISTS privileges (
	id INTEGER PRIMARY KEY,
	user_privilege TEXT NOT NULL UNIQUE
);
`

var seededPrivilegeIDs = []int64{1, 2, 3, 4}

type PrivilegeRepository struct {
	db *sql.DB
}

func NewPrivilegeRepository(db *sql.DB) repository.PrivilegeRepository {
	return &PrivilegeRepository{db: db}
}

func (r *PrivilegeRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPrivilegesTable); err != nil {
		return fmt.Errorf("create privileges table: %w", err)
	}

	privileges := []domain.Privilege{
		{ID: 1, UserPrivilege: domain.PrivilegeViewTodos},
		{ID: 2, UserPrivilege: domain.PrivilegeCreateTodos},
		{ID: 3, UserPrivilege: domain.PrivilegeUpdateTodos},
		{ID: 4, UserPrivilege: domain.PrivilegeDeleteTodos},
	}
	for _, privilege := range privileges {
		if _, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO privileges (id, user_privilege) VALUES (?, ?)`,
			privilege.ID, privilege.UserPrivilege,
		); err != nil {
			return fmt.Errorf("seed privilege %s: %w", privilege.UserPrivilege, err)
		}
	}
	return nil
}

func (r *PrivilegeRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Privilege, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, user_privilege FROM privileges WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query privileges: %w", err)
	}
	defer rows.Close()

	var privileges []domain.Privilege
	for rows.Next() {
		var privilege domain.Privilege
		if err := rows.Scan(&privilege.ID, &privilege.UserPrivilege); err != nil {
			return nil, fmt.Errorf("scan privilege: %w", err)
		}
		privileges = append(privileges, privilege)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate privileges: %w", err)
	}
	return privileges, nil
}

var _ repository.PrivilegeRepository = (*PrivilegeRepository)(nil)
