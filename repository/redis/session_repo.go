package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
)

const (
	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

type sessionRepository struct {
	client redislib.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository. Sessions are
// stored as hashes that expire together with the token they back.
func NewSessionRepository(client redislib.UniversalClient, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionRepository{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	userID, err := strconv.ParseInt(fields[fieldUserID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session %s: bad user id: %w", id, err)
	}
	session := &domain.Session{ID: id, UserID: userID}
	if session.CreatedAt, err = parseUnix(fields[fieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	if session.ExpiresAt, err = parseUnix(fields[fieldExpiresAt]); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	if session.IsExpired(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" || session.UserID <= 0 {
		return domain.ErrInvalidPayload
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	key := r.key(session.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldUserID, strconv.FormatInt(session.UserID, 10),
			fieldCreatedAt, strconv.FormatInt(session.CreatedAt.Unix(), 10),
			fieldExpiresAt, strconv.FormatInt(session.ExpiresAt.Unix(), 10),
		)
		pipe.ExpireAt(ctx, key, session.ExpiresAt)
		return nil
	})
	return err
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *sessionRepository) key(id string) string {
	return r.prefix + id
}

func parseUnix(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}
