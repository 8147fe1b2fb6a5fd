package repository

import (
	"context"

	"todo-backend/internal/domain"
)

// TodoRepository exposes persistence operations for Todo entities.
type TodoRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, todo *domain.Todo) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Todo, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Todo, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) error
	// DeleteByIDs removes all given rows in a single transaction.
	DeleteByIDs(ctx context.Context, ids []int64) error
}
