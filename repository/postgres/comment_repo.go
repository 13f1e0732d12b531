package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
)

type commentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) repository.CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO comments (content, task_id, user_id, created_at)
	VALUES ($1, $2, $3, COALESCE($4, NOW()))
	RETURNING id, created_at
	`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		comment.Content,
		comment.TaskID,
		comment.UserID,
		nullTime(comment.CreatedAt),
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) ListByTask(ctx context.Context, taskID int64) ([]domain.Comment, error) {
	const query = `
	SELECT c.id, c.task_id, c.user_id, u.username, c.content, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
	WHERE c.task_id = $1
	ORDER BY c.created_at, c.id
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

type storyRepository struct {
	pool *pgxpool.Pool
}

func NewStoryRepository(pool *pgxpool.Pool) repository.StoryRepository {
	return &storyRepository{pool: pool}
}

// CreateBatch inserts every story or none; callers run it inside WithinTx.
func (r *storyRepository) CreateBatch(ctx context.Context, stories []domain.UserStory) error {
	const query = `
	INSERT INTO user_stories (project_id, story, created_at)
	VALUES ($1, $2, COALESCE($3, NOW()))
	RETURNING id, created_at
	`
	q := conn(ctx, r.pool)
	for i := range stories {
		s := &stories[i]
		if err := q.QueryRow(ctx, query, s.ProjectID, s.Story, nullTime(s.CreatedAt)).Scan(&s.ID, &s.CreatedAt); err != nil {
			return fmt.Errorf("insert user story %d: %w", i, err)
		}
	}
	return nil
}
