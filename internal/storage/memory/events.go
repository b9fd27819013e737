package memory

import (
	"context"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	"github.com/google/uuid"
)

type EventRepository struct {
	base   baseMemoryRepo[domain.Event]
	traits map[uuid.UUID]domain.UserTraits
}

func NewEventRepository() *EventRepository {
	return &EventRepository{
		base:   newBaseMemoryRepo(func(e *domain.Event) *domain.Stamp { return &e.Stamp }, func(e *domain.Event) string { return e.UserID }),
		traits: make(map[uuid.UUID]domain.UserTraits),
	}
}

func (r *EventRepository) Add(ctx context.Context, event *domain.Event, traits *domain.UserTraits) error {
	if err := r.base.create(ctx, event); err != nil {
		return err
	}
	if traits != nil {
		traits.EventID = event.ID
		r.base.mu.Lock()
		r.traits[event.ID] = *traits
		r.base.mu.Unlock()
		event.Traits = traits
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, err := r.base.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.base.mu.RLock()
	if traits, ok := r.traits[id]; ok {
		t := traits
		event.Traits = &t
	}
	r.base.mu.RUnlock()
	return event, nil
}

func (r *EventRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Event], error) {
	items, total := r.base.byUser(userID, func(e *domain.Event) time.Time { return e.EventTimestamp }, opts)
	return store.ListResult[domain.Event]{Items: items, Total: total}, nil
}

func (r *EventRepository) GetLatestByUserAndType(ctx context.Context, userID, eventType string) (*domain.Event, error) {
	var latest *domain.Event
	for _, event := range r.base.all() {
		if event.UserID != userID || event.EventType != eventType {
			continue
		}
		e := event
		if latest == nil || e.EventTimestamp.After(latest.EventTimestamp) {
			latest = &e
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return latest, nil
}
