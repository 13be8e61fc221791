package service

import (
	"context"
	"time"

	"github.com/avvvet/tarjetas/internal/comm"
)

// EventPublisher receives card mutation events.
type EventPublisher interface {
	PublishCardEvent(ctx context.Context, ev comm.CardEvent)
}

func publish(ctx context.Context, p EventPublisher, evType, owner string, ids ...string) {
	if p == nil || len(ids) == 0 {
		return
	}
	p.PublishCardEvent(ctx, comm.CardEvent{
		Type:      evType,
		Owner:     owner,
		IDs:       ids,
		Timestamp: time.Now().UTC(),
	})
}
