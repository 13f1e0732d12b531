package repository

import (
	"context"

	"github.com/fastygo/projecthub/domain"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	// List returns the projects matching scope ordered by id, with TaskCount
	// and Members populated.
	List(ctx context.Context, scope domain.Scope) ([]domain.Project, error)
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	// Delete removes the project, its tasks, their comments and its member rows.
	Delete(ctx context.Context, id int64) error
	// Members returns the member users of a project ordered by user id.
	Members(ctx context.Context, projectID int64) ([]domain.User, error)
	// AddMember is idempotent.
	AddMember(ctx context.Context, projectID, userID int64) error
}
