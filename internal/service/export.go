package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
	"todo-backend/internal/storage"
)

// ExportInfo describes one stored snapshot.
type ExportInfo struct {
	Location     string
	Size         int64
	LastModified *time.Time
}

// ExportService writes JSON snapshots of a user's todos to object storage
// and lists the snapshots written so far.
type ExportService interface {
	Export(ctx context.Context, principal *domain.Principal) (string, error)
	ListExports(ctx context.Context, principal *domain.Principal) ([]ExportInfo, error)
}

type exportService struct {
	todos  repository.TodoRepository
	store  storage.Service
	bucket string
	prefix string
}

func NewExportService(todos repository.TodoRepository, store storage.Service, bucket, prefix string) ExportService {
	return &exportService{
		todos:  todos,
		store:  store,
		bucket: bucket,
		prefix: prefix,
	}
}

type todoSnapshot struct {
	ID             int64      `json:"id"`
	Description    string     `json:"description"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	CheckMark      bool       `json:"checkMark"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
}

type exportSnapshot struct {
	UserID     int64          `json:"userId"`
	Email      string         `json:"email"`
	ExportedAt time.Time      `json:"exportedAt"`
	Todos      []todoSnapshot `json:"todos"`
}

func (s *exportService) Export(ctx context.Context, principal *domain.Principal) (string, error) {
	todos, err := s.todos.ListByUser(ctx, principal.UserID)
	if err != nil {
		return "", err
	}

	snapshot := exportSnapshot{
		UserID:     principal.UserID,
		Email:      principal.Email,
		ExportedAt: time.Now().UTC(),
		Todos:      make([]todoSnapshot, 0, len(todos)),
	}
	for _, todo := range todos {
		snapshot.Todos = append(snapshot.Todos, todoSnapshot{
			ID:             todo.ID,
			Description:    todo.Description,
			DueDate:        todo.DueDate,
			CheckMark:      todo.CheckMark,
			CompletionDate: todo.CompletionDate,
		})
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := path.Join(
		s.userPrefix(principal),
		fmt.Sprintf("todos-%s.json", uuid.NewString()),
	)
	return s.store.PutObject(ctx, s.bucket, key, body, "application/json")
}

// ListExports returns the principal's stored snapshots, scoped to the user's
// own key prefix so one user never sees another's exports.
func (s *exportService) ListExports(ctx context.Context, principal *domain.Principal) ([]ExportInfo, error) {
	objects, err := s.store.ListObjects(ctx, s.bucket, s.userPrefix(principal)+"/")
	if err != nil {
		return nil, err
	}

	exports := make([]ExportInfo, 0, len(objects))
	for _, obj := range objects {
		exports = append(exports, ExportInfo{
			Location:     fmt.Sprintf("s3://%s/%s", s.bucket, obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return exports, nil
}

func (s *exportService) userPrefix(principal *domain.Principal) string {
	return path.Join(s.prefix, fmt.Sprintf("user-%d", principal.UserID))
}
