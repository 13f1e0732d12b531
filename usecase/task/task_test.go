package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
	"github.com/fastygo/projecthub/repository/sqlite"
)

type world struct {
	uc      *UseCase
	store   *repository.Store
	admin   domain.Caller
	manager domain.Caller
	dev     domain.Caller
	project *domain.Project
}

func newWorld(t *testing.T) world {
	t.Helper()
	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := db.Store()
	ctx := context.Background()

	w := world{uc: New(store, nil, nil), store: store}
	for _, u := range []struct {
		name string
		role domain.Role
		dst  *domain.Caller
	}{
		{"root", domain.RoleAdmin, &w.admin},
		{"mia", domain.RoleManager, &w.manager},
		{"dan", domain.RoleDeveloper, &w.dev},
	} {
		user := &domain.User{Username: u.name, PasswordHash: "h", Role: u.role}
		require.NoError(t, store.Users.Create(ctx, user))
		*u.dst = user.Caller()
	}

	w.project = &domain.Project{Name: "P1", Status: domain.DefaultProjectStatus, CreatedBy: w.manager.ID}
	require.NoError(t, store.Projects.Create(ctx, w.project))
	return w
}

func ptr[T any](v T) *T { return &v }

func TestCreate_Validation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.uc.Create(ctx, w.manager, CreateInput{ProjectID: w.project.ID})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = w.uc.Create(ctx, w.manager, CreateInput{Title: "T"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = w.uc.Create(ctx, w.manager, CreateInput{Title: "T", ProjectID: w.project.ID, Status: "blocked"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = w.uc.Create(ctx, w.manager, CreateInput{Title: "T", ProjectID: 404})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = w.uc.Create(ctx, w.manager, CreateInput{Title: "T", ProjectID: w.project.ID, AssignedTo: ptr(int64(404))})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	task, err := w.uc.Create(ctx, w.manager, CreateInput{Title: "T1", ProjectID: w.project.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTodo, task.Status)
	assert.Nil(t, task.AssignedTo)
}

func TestCreate_DeveloperDefaultsToSelf(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	task, err := w.uc.Create(ctx, w.dev, CreateInput{Title: "own", ProjectID: w.project.ID})
	require.NoError(t, err)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, w.dev.ID, *task.AssignedTo)

	items, err := w.uc.List(ctx, w.dev)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "own", items[0].Title)
}

func TestList_ScopedWithOverdue(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	w.uc.now = func() time.Time { return now }

	past := now.Add(-time.Hour)
	_, err := w.uc.Create(ctx, w.manager, CreateInput{Title: "late", ProjectID: w.project.ID, AssignedTo: &w.dev.ID, Deadline: &past})
	require.NoError(t, err)
	_, err = w.uc.Create(ctx, w.manager, CreateInput{Title: "late but done", ProjectID: w.project.ID, Status: "done", Deadline: &past})
	require.NoError(t, err)

	other := &domain.Project{Name: "Other", Status: domain.DefaultProjectStatus, CreatedBy: w.admin.ID}
	require.NoError(t, w.store.Projects.Create(ctx, other))
	_, err = w.uc.Create(ctx, w.admin, CreateInput{Title: "elsewhere", ProjectID: other.ID})
	require.NoError(t, err)

	devItems, err := w.uc.List(ctx, w.dev)
	require.NoError(t, err)
	require.Len(t, devItems, 1)
	assert.Equal(t, "late", devItems[0].Title)
	assert.True(t, devItems[0].Overdue)
	require.NotNil(t, devItems[0].AssigneeName)
	assert.Equal(t, "dan", *devItems[0].AssigneeName)

	managerItems, err := w.uc.List(ctx, w.manager)
	require.NoError(t, err)
	require.Len(t, managerItems, 2)
	assert.False(t, managerItems[1].Overdue)

	adminItems, err := w.uc.List(ctx, w.admin)
	require.NoError(t, err)
	assert.Len(t, adminItems, 3)
}

func TestUpdate_Partial(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	deadline := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	task, err := w.uc.Create(ctx, w.manager, CreateInput{
		Title: "T1", Description: "desc", ProjectID: w.project.ID, AssignedTo: &w.dev.ID, Deadline: &deadline,
	})
	require.NoError(t, err)

	detail, err := w.uc.Update(ctx, w.manager, task.ID, UpdateInput{Status: ptr("in_progress")})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, detail.Task.Status)
	assert.Equal(t, "desc", detail.Task.Description)
	require.NotNil(t, detail.Task.AssignedTo)
	require.NotNil(t, detail.Task.Deadline)
	assert.True(t, deadline.Equal(*detail.Task.Deadline))

	detail, err = w.uc.Update(ctx, w.manager, task.ID, UpdateInput{AssignedTo: Assignee{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, detail.Task.AssignedTo)
	require.NotNil(t, detail.Task.Deadline)

	_, err = w.uc.Update(ctx, w.manager, task.ID, UpdateInput{Status: ptr("blocked")})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = w.uc.Update(ctx, w.manager, task.ID, UpdateInput{AssignedTo: Assignee{Set: true, Value: ptr(int64(404))}})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = w.uc.Update(ctx, w.manager, 404, UpdateInput{})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestComments(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	task, err := w.uc.Create(ctx, w.manager, CreateInput{Title: "T1", ProjectID: w.project.ID})
	require.NoError(t, err)

	_, err = w.uc.AddComment(ctx, w.dev, task.ID, "  ")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = w.uc.AddComment(ctx, w.dev, 404, "hello")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	comment, err := w.uc.AddComment(ctx, w.dev, task.ID, "hello")
	require.NoError(t, err)
	assert.NotZero(t, comment.ID)

	detail, err := w.uc.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "dan", detail.Comments[0].Username)

	require.NoError(t, w.uc.Delete(ctx, w.manager, task.ID))
	_, err = w.uc.Get(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	comments, err := w.store.Comments.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
