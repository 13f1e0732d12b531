package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/bytedance/sonic"

	"github.com/fastygo/projecthub/domain"
)

type activityRepository struct {
	db *DB
}

func (r *activityRepository) Append(ctx context.Context, activities ...domain.Activity) error {
	q := r.db.conn(ctx)
	for _, a := range activities {
		if a.ID == "" {
			return domain.ErrInvalidPayload
		}
		var metadata any
		if len(a.Metadata) > 0 {
			raw, err := json.Marshal(a.Metadata)
			if err != nil {
				return fmt.Errorf("encode activity metadata: %w", err)
			}
			metadata = string(raw)
		}
		if _, err := q.ExecContext(ctx, `
		INSERT INTO activity_log (id, actor_id, action, entity, entity_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
			a.ID, a.ActorID, a.Action, a.Entity, a.EntityID, metadata, stamp(a.CreatedAt),
		); err != nil {
			return fmt.Errorf("append activity %s: %w", a.ID, err)
		}
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := r.db.conn(ctx).QueryContext(ctx, `
	SELECT id, actor_id, action, entity, entity_id, metadata, created_at
	FROM activity_log
	ORDER BY created_at DESC, id
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var (
			a        domain.Activity
			metadata sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &a.Entity, &a.EntityID, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		if metadata.Valid && metadata.String != "" {
			_ = json.Unmarshal([]byte(metadata.String), &a.Metadata)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
