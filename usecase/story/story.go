package story

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/internal/infrastructure/llm"
	"github.com/fastygo/projecthub/repository"
	"github.com/fastygo/projecthub/usecase"
	appLogger "github.com/fastygo/projecthub/pkg/logger"
)

// Generator produces user stories from a free-text description.
type Generator interface {
	GenerateStories(ctx context.Context, description string) ([]string, error)
}

type UseCase struct {
	store     *repository.Store
	generator Generator
	activity  usecase.ActivityRecorder
	logger    *zap.Logger
}

func New(store *repository.Store, generator Generator, activity usecase.ActivityRecorder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:     store,
		generator: generator,
		activity:  activity,
		logger:    logger,
	}
}

// Generate returns the generated stories. With a projectID the stories are
// also persisted, all of them or none.
func (uc *UseCase) Generate(ctx context.Context, caller domain.Caller, description string, projectID *int64) ([]string, error) {
	if strings.TrimSpace(description) == "" {
		return nil, domain.Invalid("Description required")
	}
	if projectID != nil {
		if _, err := uc.store.Projects.GetByID(ctx, *projectID); err != nil {
			return nil, err
		}
	}

	stories, err := uc.generator.GenerateStories(ctx, description)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return nil, domain.NewError(domain.ErrCodeUpstreamConfig, "GROQ API key not configured")
		}
		appLogger.WithRequestID(ctx, uc.logger).Warn("story generation failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeUpstream, "AI service error: "+err.Error(), err)
	}

	if projectID == nil || len(stories) == 0 {
		return stories, nil
	}

	rows := make([]domain.UserStory, len(stories))
	for i, s := range stories {
		rows[i] = domain.UserStory{ProjectID: projectID, Story: s}
	}
	if err := uc.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.store.Projects.GetByID(ctx, *projectID); err != nil {
			return err
		}
		return uc.store.Stories.CreateBatch(ctx, rows)
	}); err != nil {
		return nil, err
	}

	usecase.Report(ctx, uc.activity, uc.logger, usecase.NewActivity(caller,
		domain.ActionStoriesGenerated, domain.EntityStory, *projectID,
		map[string]string{"count": strconv.Itoa(len(rows))}))
	return stories, nil
}
