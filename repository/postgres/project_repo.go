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

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository returns a Postgres-backed implementation of ProjectRepository.
func NewProjectRepository(pool *pgxpool.Pool) repository.ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	const query = `
	SELECT p.id, p.name, p.description, p.status, p.created_by, p.created_at,
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id)
	FROM projects p
	WHERE p.id = $1
	`
	return scanProject(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *projectRepository) List(ctx context.Context, scope domain.Scope) ([]domain.Project, error) {
	var w sqlbuild.Where
	sqlbuild.ProjectScope(&w, scope)

	query := sqlbuild.Rebind(`
	SELECT p.id, p.name, p.description, p.status, p.created_by, p.created_at,
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id)
	FROM projects p` + w.String() + `
	ORDER BY p.id`)

	q := conn(ctx, r.pool)
	rows, err := q.Query(ctx, query, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var (
		projects []domain.Project
		ids      []int64
	)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
		ids = append(ids, project.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return projects, nil
	}

	members, err := r.membersOf(ctx, q, ids)
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

	const query = `
	INSERT INTO projects (name, description, status, created_by, created_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
	RETURNING id, created_at
	`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.Status,
		project.CreatedBy,
		nullTime(project.CreatedAt),
	).Scan(&project.ID, &project.CreatedAt); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	if project == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE projects
	SET name = $2,
		description = $3,
		status = $4
	WHERE id = $1
	`
	tag, err := conn(ctx, r.pool).Exec(ctx, query, project.ID, project.Name, project.Description, project.Status)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *projectRepository) Members(ctx context.Context, projectID int64) ([]domain.User, error) {
	members, err := r.membersOf(ctx, conn(ctx, r.pool), []int64{projectID})
	if err != nil {
		return nil, err
	}
	return members[projectID], nil
}

func (r *projectRepository) AddMember(ctx context.Context, projectID, userID int64) error {
	const query = `
	INSERT INTO project_members (project_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (project_id, user_id) DO NOTHING
	`
	if _, err := conn(ctx, r.pool).Exec(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	return nil
}

func (r *projectRepository) membersOf(ctx context.Context, q querier, projectIDs []int64) (map[int64][]domain.User, error) {
	const query = `
	SELECT m.project_id, u.id, u.username, u.role, u.created_at
	FROM project_members m
	JOIN users u ON u.id = m.user_id
	WHERE m.project_id = ANY($1)
	ORDER BY m.project_id, u.id
	`
	rows, err := q.Query(ctx, query, projectIDs)
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}
