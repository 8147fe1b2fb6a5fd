package domain

import "time"

// Todo is a single todo item owned by exactly one user.
type Todo struct {
	ID             int64
	Description    string
	DueDate        *time.Time
	CheckMark      bool
	CompletionDate *time.Time
	UserID         int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
