package service

import (
	"context"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

type fakeUserRepo struct {
	users  map[string]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Init(context.Context) error { return nil }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (int64, error) {
	if _, ok := r.users[user.Email]; ok {
		return 0, domain.ErrUserAlreadyExists
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.Email] = user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type fakeRoleRepo struct {
	roles  map[int64]domain.Role
	grants map[int64][]int64
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		roles:  make(map[int64]domain.Role),
		grants: make(map[int64][]int64),
	}
}

func (r *fakeRoleRepo) Init(context.Context) error { return nil }

func (r *fakeRoleRepo) GetByID(_ context.Context, id int64) (*domain.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &role, nil
}

func (r *fakeRoleRepo) GetByUserRole(_ context.Context, userRole domain.UserRole) (*domain.Role, error) {
	for _, role := range r.roles {
		if role.UserRole == userRole {
			return &role, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r *fakeRoleRepo) PrivilegeIDs(_ context.Context, roleID int64) ([]int64, error) {
	return r.grants[roleID], nil
}

type fakePrivilegeRepo struct {
	privileges map[int64]domain.Privilege
}

func newFakePrivilegeRepo() *fakePrivilegeRepo {
	return &fakePrivilegeRepo{privileges: make(map[int64]domain.Privilege)}
}

func (r *fakePrivilegeRepo) Init(context.Context) error { return nil }

func (r *fakePrivilegeRepo) GetByIDs(_ context.Context, ids []int64) ([]domain.Privilege, error) {
	var out []domain.Privilege
	for _, id := range ids {
		if privilege, ok := r.privileges[id]; ok {
			out = append(out, privilege)
		}
	}
	return out, nil
}

type fakeTodoRepo struct {
	todos  map[int64]domain.Todo
	nextID int64
}

func newFakeTodoRepo() *fakeTodoRepo {
	return &fakeTodoRepo{todos: make(map[int64]domain.Todo)}
}

func (r *fakeTodoRepo) Init(context.Context) error { return nil }

func (r *fakeTodoRepo) Create(_ context.Context, todo *domain.Todo) (int64, error) {
	r.nextID++
	todo.ID = r.nextID
	r.todos[todo.ID] = *todo
	return todo.ID, nil
}

func (r *fakeTodoRepo) Get(_ context.Context, id int64) (*domain.Todo, error) {
	todo, ok := r.todos[id]
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	return &todo, nil
}

func (r *fakeTodoRepo) GetByIDs(_ context.Context, ids []int64) ([]domain.Todo, error) {
	var out []domain.Todo
	for _, id := range ids {
		if todo, ok := r.todos[id]; ok {
			out = append(out, todo)
		}
	}
	return out, nil
}

func (r *fakeTodoRepo) ListByUser(_ context.Context, userID int64) ([]domain.Todo, error) {
	var out []domain.Todo
	for id := int64(1); id <= r.nextID; id++ {
		if todo, ok := r.todos[id]; ok && todo.UserID == userID {
			out = append(out, todo)
		}
	}
	return out, nil
}

func (r *fakeTodoRepo) Update(_ context.Context, todo *domain.Todo) error {
	if _, ok := r.todos[todo.ID]; !ok {
		return domain.ErrTodoNotFound
	}
	r.todos[todo.ID] = *todo
	return nil
}

func (r *fakeTodoRepo) DeleteByIDs(_ context.Context, ids []int64) error {
	for _, id := range ids {
		if _, ok := r.todos[id]; !ok {
			return domain.ErrTodoNotFound
		}
	}
	for _, id := range ids {
		delete(r.todos, id)
	}
	return nil
}

var (
	_ repository.UserRepository      = (*fakeUserRepo)(nil)
	_ repository.RoleRepository      = (*fakeRoleRepo)(nil)
	_ repository.PrivilegeRepository = (*fakePrivilegeRepo)(nil)
	_ repository.TodoRepository      = (*fakeTodoRepo)(nil)
)
