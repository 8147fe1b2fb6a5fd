package service

import (
	"context"
	"time"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

// TodoInput carries the create/update payload. The owner is always taken
// from the principal, never from the payload.
type TodoInput struct {
	ID             int64
	Description    string
	DueDate        *time.Time
	CheckMark      bool
	CompletionDate *time.Time
}

// TodoService coordinates per-user todo operations with ownership checks.
type TodoService interface {
	List(ctx context.Context, principal *domain.Principal) ([]domain.Todo, error)
	Create(ctx context.Context, input TodoInput, principal *domain.Principal) (*domain.Todo, error)
	Update(ctx context.Context, input TodoInput, principal *domain.Principal) (*domain.Todo, error)
	// Delete is all-or-nothing: any id that is absent or owned by another
	// user fails the whole batch and nothing is deleted.
	Delete(ctx context.Context, ids []int64, principal *domain.Principal) ([]domain.Todo, error)
}

type todoService struct {
	todos repository.TodoRepository
	users repository.UserRepository
}

func NewTodoService(todos repository.TodoRepository, users repository.UserRepository) TodoService {
	return &todoService{
		todos: todos,
		users: users,
	}
}

func (s *todoService) List(ctx context.Context, principal *domain.Principal) ([]domain.Todo, error) {
	todos, err := s.todos.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

func (s *todoService) Create(ctx context.Context, input TodoInput, principal *domain.Principal) (*domain.Todo, error) {
	// the user may have been deleted after token issuance
	if _, err := s.users.GetByID(ctx, principal.UserID); err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		Description:    input.Description,
		DueDate:        input.DueDate,
		CheckMark:      input.CheckMark,
		CompletionDate: input.CompletionDate,
		UserID:         principal.UserID,
	}
	if _, err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Update(ctx context.Context, input TodoInput, principal *domain.Principal) (*domain.Todo, error) {
	if input.ID == 0 {
		return nil, domain.ErrTodoNotFound
	}

	existing, err := s.todos.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != principal.UserID {
		return nil, domain.ErrNotTodoOwner
	}

	existing.Description = input.Description
	existing.DueDate = input.DueDate
	existing.CheckMark = input.CheckMark
	existing.CompletionDate = input.CompletionDate
	if err := s.todos.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *todoService) Delete(ctx context.Context, ids []int64, principal *domain.Principal) ([]domain.Todo, error) {
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return nil, domain.ErrEmptyIDSet
	}

	found, err := s.todos.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Todo, len(found))
	for _, todo := range found {
		byID[todo.ID] = todo
	}

	deleted := make([]domain.Todo, 0, len(unique))
	for _, id := range unique {
		todo, ok := byID[id]
		if !ok {
			return nil, domain.ErrTodoNotFound
		}
		if todo.UserID != principal.UserID {
			return nil, domain.ErrNotTodoOwner
		}
		deleted = append(deleted, todo)
	}

	if err := s.todos.DeleteByIDs(ctx, unique); err != nil {
		return nil, err
	}
	return deleted, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
