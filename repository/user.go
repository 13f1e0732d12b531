package repository

import (
	"context"

	"github.com/fastygo/projecthub/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create inserts the user and fills ID/CreatedAt. A duplicate username
	// yields domain.ErrUsernameTaken.
	Create(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
}
