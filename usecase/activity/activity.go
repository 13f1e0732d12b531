// Package activity exposes the recorded activity log to administrators.
package activity

import (
	"context"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
	"github.com/fastygo/projecthub/usecase/access"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

type UseCase struct {
	activity repository.ActivityRepository
}

func New(activity repository.ActivityRepository) *UseCase {
	return &UseCase{activity: activity}
}

// Recent returns the newest activities first. limit is clamped to
// [1, MaxLimit] and defaults to DefaultLimit.
func (uc *UseCase) Recent(ctx context.Context, caller domain.Caller, limit int) ([]domain.Activity, error) {
	if err := access.Require(caller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	items, err := uc.activity.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Activity{}
	}
	return items, nil
}
