package events

import (
	"context"

	"creativerse/internal/domain/model"
)

type Publisher interface {
	Publish(ctx context.Context, evt model.Event)
}

// Multi fans every event out to each publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt model.Event) {
	for _, p := range m {
		p.Publish(ctx, evt)
	}
}
