package repository

import (
	"context"

	"github.com/fastygo/projecthub/domain"
)

type TaskFilter struct {
	Scope     domain.Scope
	ProjectID int64
}

type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	// List returns tasks ordered by id with ProjectName and AssigneeName resolved.
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id int64) error
}
