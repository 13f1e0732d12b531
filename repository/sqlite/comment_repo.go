package sqlite

import (
	"context"
	"fmt"

	"github.com/fastygo/projecthub/domain"
)

type commentRepository struct {
	db *DB
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment == nil {
		return domain.ErrInvalidPayload
	}
	comment.CreatedAt = stamp(comment.CreatedAt)

	res, err := r.db.conn(ctx).ExecContext(ctx,
		`INSERT INTO comments (content, task_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
		comment.Content, comment.TaskID, comment.UserID, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	if comment.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) ListByTask(ctx context.Context, taskID int64) ([]domain.Comment, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, `
	SELECT c.id, c.task_id, c.user_id, u.username, c.content, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
	WHERE c.task_id = ?
	ORDER BY c.created_at, c.id`, taskID)
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
	db *DB
}

func (r *storyRepository) CreateBatch(ctx context.Context, stories []domain.UserStory) error {
	q := r.db.conn(ctx)
	for i := range stories {
		s := &stories[i]
		s.CreatedAt = stamp(s.CreatedAt)

		res, err := q.ExecContext(ctx,
			`INSERT INTO user_stories (project_id, story, created_at) VALUES (?, ?, ?)`,
			s.ProjectID, s.Story, s.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert user story %d: %w", i, err)
		}
		if s.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert user story %d: %w", i, err)
		}
	}
	return nil
}
