package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/repository"
	"github.com/fastygo/projecthub/usecase/access"
)

type UseCase struct {
	store  *repository.Store
	logger *zap.Logger
	now    func() time.Time
}

func New(store *repository.Store, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{store: store, logger: logger, now: time.Now}
}

// Get builds the caller's dashboard from one consistent read.
func (uc *UseCase) Get(ctx context.Context, caller domain.Caller) (Dashboard, error) {
	var (
		tasks    []domain.Task
		projects []domain.Project
	)
	err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if tasks, err = uc.store.Tasks.List(ctx, repository.TaskFilter{Scope: access.TaskScope(caller)}); err != nil {
			return err
		}
		projects, err = uc.store.Projects.List(ctx, access.ProjectScope(caller))
		return err
	})
	if err != nil {
		return Dashboard{}, err
	}
	return Summarize(tasks, projects, uc.now()), nil
}
