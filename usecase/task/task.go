package task

import (
	"context"
	"strings"
	"time"

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
	now      func() time.Time
}

func New(store *repository.Store, activity usecase.ActivityRecorder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:    store,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

type CreateInput struct {
	Title       string
	Description string
	Status      string
	ProjectID   int64
	AssignedTo  *int64
	Deadline    *time.Time
}

// Assignee distinguishes "leave unchanged" from "clear" in updates.
type Assignee struct {
	Set   bool
	Value *int64
}

// UpdateInput carries a partial update; nil fields stay unchanged. A nil
// Deadline never clears an existing one.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	AssignedTo  Assignee
	Deadline    *time.Time
}

// Item is a listed task with its overdue flag evaluated at listing time.
type Item struct {
	domain.Task
	Overdue bool
}

type Detail struct {
	Task     *domain.Task
	Comments []domain.Comment
}

// List returns the tasks visible to caller ordered by id.
func (uc *UseCase) List(ctx context.Context, caller domain.Caller) ([]Item, error) {
	tasks, err := uc.store.Tasks.List(ctx, repository.TaskFilter{Scope: access.TaskScope(caller)})
	if err != nil {
		return nil, err
	}
	now := uc.now()
	items := make([]Item, len(tasks))
	for i := range tasks {
		items[i] = Item{Task: tasks[i], Overdue: tasks[i].IsOverdue(now)}
	}
	return items, nil
}

func (uc *UseCase) Create(ctx context.Context, caller domain.Caller, in CreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}
	if in.ProjectID <= 0 {
		return nil, domain.Invalid("project_id is required")
	}
	status := domain.TaskTodo
	if in.Status != "" {
		status = domain.TaskStatus(in.Status)
		if !status.Valid() {
			return nil, invalidStatus()
		}
	}

	assignee := in.AssignedTo
	if assignee == nil && caller.Role == domain.RoleDeveloper {
		// Developers only see their assignments, so their own new task is theirs.
		id := caller.ID
		assignee = &id
	}

	task := &domain.Task{
		Title:       title,
		Description: in.Description,
		Status:      status,
		ProjectID:   in.ProjectID,
		AssignedTo:  assignee,
		Deadline:    in.Deadline,
	}
	err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.store.Projects.GetByID(ctx, in.ProjectID); err != nil {
			return err
		}
		if err := uc.checkAssignee(ctx, assignee); err != nil {
			return err
		}
		return uc.store.Tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	usecase.Report(ctx, uc.activity, uc.logger, usecase.NewActivity(caller,
		domain.ActionTaskCreated, domain.EntityTask, task.ID, map[string]string{"title": task.Title}))
	return task, nil
}

func (uc *UseCase) Get(ctx context.Context, id int64) (*Detail, error) {
	var detail *Detail
	err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := uc.store.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		comments, err := uc.store.Comments.ListByTask(ctx, id)
		if err != nil {
			return err
		}
		detail = &Detail{Task: task, Comments: comments}
		return nil
	})
	return detail, err
}

func (uc *UseCase) Update(ctx context.Context, caller domain.Caller, id int64, in UpdateInput) (*Detail, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, domain.Invalid("title must not be empty")
	}
	if in.Status != nil && !domain.TaskStatus(*in.Status).Valid() {
		return nil, invalidStatus()
	}

	var detail *Detail
	err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := uc.store.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Title != nil {
			task.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		if in.Status != nil {
			task.Status = domain.TaskStatus(*in.Status)
		}
		if in.AssignedTo.Set {
			if err := uc.checkAssignee(ctx, in.AssignedTo.Value); err != nil {
				return err
			}
			task.AssignedTo = in.AssignedTo.Value
		}
		if in.Deadline != nil {
			task.Deadline = in.Deadline
		}
		if err := uc.store.Tasks.Update(ctx, task); err != nil {
			return err
		}

		updated, err := uc.store.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		comments, err := uc.store.Comments.ListByTask(ctx, id)
		if err != nil {
			return err
		}
		detail = &Detail{Task: updated, Comments: comments}
		return nil
	})
	if err != nil {
		return nil, err
	}

	usecase.Report(ctx, uc.activity, uc.logger, usecase.NewActivity(caller,
		domain.ActionTaskUpdated, domain.EntityTask, id, map[string]string{"status": string(detail.Task.Status)}))
	return detail, nil
}

// Delete removes the task and its comments.
func (uc *UseCase) Delete(ctx context.Context, caller domain.Caller, id int64) error {
	if err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return uc.store.Tasks.Delete(ctx, id)
	}); err != nil {
		return err
	}
	usecase.Report(ctx, uc.activity, uc.logger, usecase.NewActivity(caller,
		domain.ActionTaskDeleted, domain.EntityTask, id, nil))
	return nil
}

func (uc *UseCase) AddComment(ctx context.Context, caller domain.Caller, taskID int64, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.Invalid("content is required")
	}
	comment := &domain.Comment{TaskID: taskID, UserID: caller.ID, Username: caller.Username, Content: content}
	err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.store.Tasks.GetByID(ctx, taskID); err != nil {
			return err
		}
		return uc.store.Comments.Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	usecase.Report(ctx, uc.activity, uc.logger, usecase.NewActivity(caller,
		domain.ActionCommentCreated, domain.EntityComment, comment.ID, nil))
	return comment, nil
}

func (uc *UseCase) checkAssignee(ctx context.Context, userID *int64) error {
	if userID == nil {
		return nil
	}
	_, err := uc.store.Users.GetByID(ctx, *userID)
	return err
}

func invalidStatus() error {
	return domain.Invalid("status must be one of todo, in_progress, done")
}
