package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/projecthub/domain"
	appLogger "github.com/fastygo/projecthub/pkg/logger"
)

// ActivityRecorder abstracts the activity pipeline so use cases stay storage-agnostic.
type ActivityRecorder interface {
	Record(ctx context.Context, activity domain.Activity) error
}

// Report hands a committed mutation to the recorder. Failures are logged and
// never surface to the caller.
func Report(ctx context.Context, recorder ActivityRecorder, logger *zap.Logger, activity domain.Activity) {
	if recorder == nil {
		return
	}
	if err := recorder.Record(ctx, activity); err != nil && logger != nil {
		appLogger.WithRequestID(ctx, logger).Warn("activity not recorded",
			zap.String("action", activity.Action),
			zap.Int64("entity_id", activity.EntityID),
			zap.Error(err))
	}
}

// NewActivity builds an activity attributed to actor.
func NewActivity(actor domain.Caller, action, entity string, entityID int64, metadata map[string]string) domain.Activity {
	a := domain.Activity{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Metadata: metadata,
	}
	if actor.ID > 0 {
		id := actor.ID
		a.ActorID = &id
	}
	return a
}
