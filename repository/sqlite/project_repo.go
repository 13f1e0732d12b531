package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository/sqlbuild"
)

type projectRepository struct {
	db *DB
}

const projectSelect = `
	SELECT p.id, p.name, p.description, p.status, p.created_by, p.created_at,
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id)
	FROM projects p`

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	return scanProject(r.db.conn(ctx).QueryRowContext(ctx, projectSelect+` WHERE p.id = ?`, id))
}

func (r *projectRepository) List(ctx context.Context, scope domain.Scope) ([]domain.Project, error) {
	var w sqlbuild.Where
	sqlbuild.ProjectScope(&w, scope)

	rows, err := r.db.conn(ctx).QueryContext(ctx, projectSelect+w.String()+` ORDER BY p.id`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var (
		projects []domain.Project
		ids      []any
	)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		projects = append(projects, *project)
		ids = append(ids, project.ID)
	}
	// Release the single connection before the member query.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return projects, nil
	}

	members, err := r.membersOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].Members = members[projects[i].ID]
	}
	return projects, nil
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	if project == nil {
		return domain.ErrInvalidPayload
	}
	project.CreatedAt = stamp(project.CreatedAt)

	res, err := r.db.conn(ctx).ExecContext(ctx,
		`INSERT INTO projects (name, description, status, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		project.Name, project.Description, project.Status, project.CreatedBy, project.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	if project.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	if project == nil {
		return domain.ErrInvalidPayload
	}
	res, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, status = ? WHERE id = ?`,
		project.Name, project.Description, project.Status, project.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return affected(res, domain.ErrProjectNotFound)
}

func (r *projectRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return affected(res, domain.ErrProjectNotFound)
}

func (r *projectRepository) Members(ctx context.Context, projectID int64) ([]domain.User, error) {
	members, err := r.membersOf(ctx, []any{projectID})
	if err != nil {
		return nil, err
	}
	return members[projectID], nil
}

func (r *projectRepository) AddMember(ctx context.Context, projectID, userID int64) error {
	if _, err := r.db.conn(ctx).ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id) VALUES (?, ?) ON CONFLICT (project_id, user_id) DO NOTHING`,
		projectID, userID); err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	return nil
}

func (r *projectRepository) membersOf(ctx context.Context, projectIDs []any) (map[int64][]domain.User, error) {
	query := `
	SELECT m.project_id, u.id, u.username, u.role, u.created_at
	FROM project_members m
	JOIN users u ON u.id = m.user_id
	WHERE m.project_id IN (` + sqlbuild.Placeholders(len(projectIDs)) + `)
	ORDER BY m.project_id, u.id`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, projectIDs...)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	defer rows.Close()

	members := make(map[int64][]domain.User, len(projectIDs))
	for rows.Next() {
		var (
			projectID int64
			user      domain.User
			role      string
		)
		if err := rows.Scan(&projectID, &user.ID, &user.Username, &role, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.Role = domain.Role(role)
		members[projectID] = append(members[projectID], user)
	}
	return members, rows.Err()
}

func scanProject(row scanner) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.Status,
		&project.CreatedBy,
		&project.CreatedAt,
		&project.TaskCount,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func affected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
