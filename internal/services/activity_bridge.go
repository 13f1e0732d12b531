package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/usecase"
)

// ActivityBridge stamps activities coming from the use cases before they
// enter the processor.
type ActivityBridge struct {
	processor *ActivityProcessor
	now       func() time.Time
}

func NewActivityBridge(processor *ActivityProcessor) *ActivityBridge {
	return &ActivityBridge{processor: processor, now: time.Now}
}

func (b *ActivityBridge) Record(ctx context.Context, activity domain.Activity) error {
	if b.processor == nil || activity.Action == "" {
		return domain.ErrInvalidPayload
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	activity.Touch(b.now().UTC())
	return b.processor.Record(ctx, activity)
}

var _ usecase.ActivityRecorder = (*ActivityBridge)(nil)
