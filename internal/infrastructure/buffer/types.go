package buffer

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/projecthub/domain"
)

// Item is an activity waiting for the primary store to come back.
type Item struct {
	Activity domain.Activity `json:"activity"`
	Retries  int             `json:"retries"`
	QueuedAt time.Time       `json:"queued_at"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.Activity.ID == "" {
		i.Activity.ID = uuid.NewString()
	}
	if i.Activity.CreatedAt.IsZero() {
		i.Activity.CreatedAt = time.Now().UTC()
	}
	if i.QueuedAt.IsZero() {
		i.QueuedAt = time.Now()
	}
}
