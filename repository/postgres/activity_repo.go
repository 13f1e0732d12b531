package postgres

import (
	"context"
	"fmt"

	json "github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a Postgres-backed ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) repository.ActivityRepository {
	return &activityRepository{pool: pool}
}

// Append is idempotent on activity id so buffered events can be replayed.
func (r *activityRepository) Append(ctx context.Context, activities ...domain.Activity) error {
	const query = `
	INSERT INTO activity_log (id, actor_id, action, entity, entity_id, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	ON CONFLICT (id) DO NOTHING
	`
	q := conn(ctx, r.pool)
	for _, a := range activities {
		if a.ID == "" {
			return domain.ErrInvalidPayload
		}
		if _, err := q.Exec(ctx, query,
			a.ID,
			a.ActorID,
			a.Action,
			a.Entity,
			a.EntityID,
			marshalMap(a.Metadata),
			nullTime(a.CreatedAt),
		); err != nil {
			return fmt.Errorf("append activity %s: %w", a.ID, err)
		}
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, limit int) ([]domain.Activity, error) {
	const query = `
	SELECT id, actor_id, action, entity, entity_id, metadata, created_at
	FROM activity_log
	ORDER BY created_at DESC, id
	LIMIT $1
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var (
			a        domain.Activity
			metadata []byte
		)
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &a.Entity, &a.EntityID, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &a.Metadata)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
