package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
	"github.com/fastygo/projecthub/repository/sqlbuild"
)

type taskRepository struct {
	db *DB
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.project_id, t.assigned_to, t.deadline, t.created_at,
		p.name, u.username
	FROM tasks t
	LEFT JOIN projects p ON p.id = t.project_id
	LEFT JOIN users u ON u.id = t.assigned_to`

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return scanTask(r.db.conn(ctx).QueryRowContext(ctx, taskSelect+` WHERE t.id = ?`, id))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var w sqlbuild.Where
	sqlbuild.TaskScope(&w, filter.Scope)
	if filter.ProjectID > 0 {
		w.Add("t.project_id = ?", filter.ProjectID)
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, taskSelect+w.String()+` ORDER BY t.id`, w.Args()...)
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
	task.CreatedAt = stamp(task.CreatedAt)

	res, err := r.db.conn(ctx).ExecContext(ctx, `
	INSERT INTO tasks (title, description, status, project_id, assigned_to, deadline, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.Title,
		task.Description,
		string(task.Status),
		task.ProjectID,
		task.AssignedTo,
		utcPtr(task.Deadline),
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	if task.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	res, err := r.db.conn(ctx).ExecContext(ctx, `
	UPDATE tasks
	SET title = ?, description = ?, status = ?, assigned_to = ?, deadline = ?
	WHERE id = ?`,
		task.Title,
		task.Description,
		string(task.Status),
		task.AssignedTo,
		utcPtr(task.Deadline),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return affected(res, domain.ErrTaskNotFound)
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return affected(res, domain.ErrTaskNotFound)
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	return &task, nil
}
