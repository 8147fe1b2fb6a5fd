package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

const createTodosTable = `
CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	description TEXT NOT NULL DEFAULT '',
	due_date DATETIME,
	check_mark INTEGER NOT NULL DEFAULT 0,
	completion_date DATETIME,
	user_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const createTodosUserIndex = `
CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id);
`

const todoColumns = `id, description, due_date, check_mark, completion_date, user_id, created_at, updated_at`

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) repository.TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTodosTable); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createTodosUserIndex); err != nil {
		return fmt.Errorf("create todos user index: %w", err)
	}
	return nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (int64, error) {
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO todos (description, due_date, check_mark, completion_date, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.Description,
		todo.DueDate,
		todo.CheckMark,
		todo.CompletionDate,
		todo.UserID,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert todo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("todo last insert id: %w", err)
	}
	todo.ID = id
	return id, nil
}

func (r *TodoRepository) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	return scanTodo(row)
}

func (r *TodoRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Todo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s FROM todos WHERE id IN (%s)`, todoColumns, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query todos by ids: %w", err)
	}
	defer rows.Close()
	return collectTodos(rows)
}

func (r *TodoRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+todoColumns+` FROM todos WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query todos by user: %w", err)
	}
	defer rows.Close()
	return collectTodos(rows)
}

func (r *TodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	todo.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE todos
SET description = ?, due_date = ?, check_mark = ?, completion_date = ?, updated_at = ?
WHERE id = ?`,
		todo.Description,
		todo.DueDate,
		todo.CheckMark,
		todo.CompletionDate,
		todo.UpdatedAt,
		todo.ID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("todo rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *TodoRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete todos: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := tx.ExecContext(ctx, fmt.Sprintf(`
DELETE FROM todos WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return fmt.Errorf("delete todos: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleted rows affected: %w", err)
	}
	// a row vanishing between the ownership check and the delete fails the
	// whole batch rather than reporting a partial result
	if affected != int64(len(ids)) {
		return domain.ErrTodoNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete todos: %w", err)
	}
	return nil
}

func scanTodo(row interface {
	Scan(dest ...any) error
}) (*domain.Todo, error) {
	var (
		todo           domain.Todo
		dueDate        sql.NullTime
		completionDate sql.NullTime
	)
	if err := row.Scan(
		&todo.ID,
		&todo.Description,
		&dueDate,
		&todo.CheckMark,
		&completionDate,
		&todo.UserID,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}
	if dueDate.Valid {
		todo.DueDate = &dueDate.Time
	}
	if completionDate.Valid {
		todo.CompletionDate = &completionDate.Time
	}
	return &todo, nil
}

func collectTodos(rows *sql.Rows) ([]domain.Todo, error) {
	var todos []domain.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}
