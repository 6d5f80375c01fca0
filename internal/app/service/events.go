package service

import (
	"context"
	"time"

	"creativerse/internal/domain/model"

	"github.com/google/uuid"
)

// EventPublisher delivers domain events after their transaction commits.
// Delivery is best effort; implementations log their own failures.
type EventPublisher interface {
	Publish(ctx context.Context, evt model.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.Event) {}

func orNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// now is swapped in tests that need to move past a deadline.
var now = func() time.Time { return time.Now().UTC() }

func newEvent(eventType, contestID, userID string, data map[string]any) model.Event {
	return model.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ContestID:  contestID,
		UserID:     userID,
		Data:       data,
		OccurredAt: now(),
	}
}
