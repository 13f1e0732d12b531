package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
	"github.com/fastygo/projecthub/usecase/access"
)

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

// List returns every user ordered by id. Only admins and managers may list.
func (uc *UseCase) List(ctx context.Context, caller domain.Caller) ([]domain.User, error) {
	if err := access.Require(caller, domain.RoleAdmin, domain.RoleManager); err != nil {
		return nil, err
	}
	users, err := uc.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
