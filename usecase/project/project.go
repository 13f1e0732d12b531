package project

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
	"github.com/fastygo/projecthub/usecase"
	"github.com/fastygo/projecthub/usecase/access"
)

type UseCase struct {
	store    *repository.Store
	activity usecase.ActivityRecorder
	logger   *zap.Logger
}

func New(store *repository.Store, activity usecase.ActivityRecorder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:    store,
		activity: activity,
		logger:   logger,
	}
}

type CreateInput struct {
	Name        string
	Description string
}

// UpdateInput carries a partial update; nil fields stay unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *string
}

// Detail is a project with its tasks and members.
type Detail struct {
	Project *domain.Project
	Tasks   []domain.Task
	Members []domain.User
}

// List returns the projects visible to caller.
func (uc *UseCase) List(ctx context.Context, caller domain.Caller) ([]domain.Project, error) {
	return uc.store.Projects.List(ctx, access.ProjectScope(caller))
}

func (uc *UseCase) Create(ctx context.Context, caller domain.Caller, in CreateInput) (*domain.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name is required")
	}
	project := &domain.Project{
		Name:        name,
		Description: in.Description,
		Status:      domain.DefaultProjectStatus,
		CreatedBy:   caller.ID,
	}
	if err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return uc.store.Projects.Create(ctx, project)
	}); err != nil {
		return nil, err
	}

	usecase.Report(ctx, uc.activity, uc.logger, usecase.NewActivity(caller,
		domain.ActionProjectCreated, domain.EntityProject, project.ID, map[string]string{"name": project.Name}))
	return project, nil
}

func (uc *UseCase) Get(ctx context.Context, id int64) (*Detail, error) {
	var detail *Detail
	err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		detail, err = uc.detail(ctx, id)
		return err
	})
	return detail, err
}

func (uc *UseCase) Update(ctx context.Context, caller domain.Caller, id int64, in UpdateInput) (*Detail, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Invalid("name must not be empty")
	}

	var detail *Detail
	err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		project, err := uc.store.Projects.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			project.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			project.Description = *in.Description
		}
		if in.Status != nil {
			project.Status = *in.Status
		}
		if err := uc.store.Projects.Update(ctx, project); err != nil {
			return err
		}
		detail, err = uc.detail(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	usecase.Report(ctx, uc.activity, uc.logger, usecase.NewActivity(caller,
		domain.ActionProjectUpdated, domain.EntityProject, id, nil))
	return detail, nil
}

// Delete removes the project together with its tasks, comments and memberships.
func (uc *UseCase) Delete(ctx context.Context, caller domain.Caller, id int64) error {
	if err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return uc.store.Projects.Delete(ctx, id)
	}); err != nil {
		return err
	}
	usecase.Report(ctx, uc.activity, uc.logger, usecase.NewActivity(caller,
		domain.ActionProjectDeleted, domain.EntityProject, id, nil))
	return nil
}

// AddMember adds userID to the project. Unknown users and existing members
// are accepted without change.
func (uc *UseCase) AddMember(ctx context.Context, caller domain.Caller, projectID, userID int64) error {
	if userID <= 0 {
		return domain.Invalid("user_id is required")
	}

	added := false
	err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		project, err := uc.store.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if _, err := uc.store.Users.GetByID(ctx, userID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil
			}
			return err
		}
		members, err := uc.store.Projects.Members(ctx, project.ID)
		if err != nil {
			return err
		}
		project.Members = members
		if project.HasMember(userID) {
			return nil
		}
		added = true
		return uc.store.Projects.AddMember(ctx, projectID, userID)
	})
	if err != nil {
		return err
	}

	if added {
		usecase.Report(ctx, uc.activity, uc.logger, usecase.NewActivity(caller,
			domain.ActionProjectMemberAdded, domain.EntityProject, projectID, map[string]string{"user_id": strconv.FormatInt(userID, 10)}))
	}
	return nil
}

func (uc *UseCase) detail(ctx context.Context, id int64) (*Detail, error) {
	project, err := uc.store.Projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := uc.store.Tasks.List(ctx, repository.TaskFilter{
		Scope:     domain.Scope{Kind: domain.ScopeAll},
		ProjectID: id,
	})
	if err != nil {
		return nil, err
	}
	members, err := uc.store.Projects.Members(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Members = members
	return &Detail{Project: project, Tasks: tasks, Members: members}, nil
}
