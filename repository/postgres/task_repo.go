package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
	"github.com/fastygo/projecthub/repository/sqlbuild"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.project_id, t.assigned_to, t.deadline, t.created_at,
		p.name, u.username
	FROM tasks t
	LEFT JOIN projects p ON p.id = t.project_id
	LEFT JOIN users u ON u.id = t.assigned_to`

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return scanTask(conn(ctx, r.pool).QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var w sqlbuild.Where
	sqlbuild.TaskScope(&w, filter.Scope)
	if filter.ProjectID > 0 {
		w.Add("t.project_id = ?", filter.ProjectID)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sqlbuild.Rebind(taskSelect+w.String()+` ORDER BY t.id`), w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (title, description, status, project_id, assigned_to, deadline, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	RETURNING id, created_at
	`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		task.ProjectID,
		task.AssignedTo,
		task.Deadline,
		nullTime(task.CreatedAt),
	).Scan(&task.ID, &task.CreatedAt); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		status = $4,
		assigned_to = $5,
		deadline = $6
	WHERE id = $1
	`
	tag, err := conn(ctx, r.pool).Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		task.AssignedTo,
		task.Deadline,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task   domain.Task
		status string
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&task.ProjectID,
		&task.AssignedTo,
		&task.Deadline,
		&task.CreatedAt,
		&task.ProjectName,
		&task.AssigneeName,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	return &task, nil
}
