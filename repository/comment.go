package repository

import (
	"context"

	"github.com/fastygo/projecthub/domain"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	// ListByTask returns comments oldest first with the author username resolved.
	ListByTask(ctx context.Context, taskID int64) ([]domain.Comment, error)
}

type StoryRepository interface {
	CreateBatch(ctx context.Context, stories []domain.UserStory) error
}

type ActivityRepository interface {
	Append(ctx context.Context, activities ...domain.Activity) error
	List(ctx context.Context, limit int) ([]domain.Activity, error)
}
