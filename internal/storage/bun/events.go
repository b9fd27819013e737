package bunrepo

import (
	"context"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EventRepository implements store.EventRepository.
type EventRepository struct {
	base baseRepository[domain.Event]
	db   bun.IDB
}

func NewEventRepository(db bun.IDB) *EventRepository {
	handlers := repository.ModelHandlers[*domain.Event]{
		NewRecord:          func() *domain.Event { return &domain.Event{} },
		GetID:              func(e *domain.Event) uuid.UUID { return e.ID },
		SetID:              func(e *domain.Event, id uuid.UUID) { e.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(e *domain.Event) string { return e.ID.String() },
	}
	return &EventRepository{
		db:   db,
		base: newBaseRepository[domain.Event](db, handlers, func(e *domain.Event) *domain.Stamp { return &e.Stamp }),
	}
}

func (r *EventRepository) Add(ctx context.Context, event *domain.Event, traits *domain.UserTraits) error {
	if err := r.base.create(ctx, event); err != nil {
		return err
	}
	if traits == nil {
		return nil
	}
	traits.EventID = event.ID
	if _, err := r.db.NewInsert().Model(traits).Exec(ctx); err != nil {
		return err
	}
	event.Traits = traits
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, err := r.base.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.attachTraits(ctx, event)
	return event, nil
}

func (r *EventRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Event], error) {
	records, total, err := r.base.listByUser(ctx, userID, "event_timestamp", opts)
	if err != nil {
		return store.ListResult[domain.Event]{}, err
	}
	items := make([]domain.Event, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[domain.Event]{Items: items, Total: total}, nil
}

func (r *EventRepository) GetLatestByUserAndType(ctx context.Context, userID, eventType string) (*domain.Event, error) {
	criteria := []repository.SelectCriteria{
		withUser(userID),
		func(q *bun.SelectQuery) *bun.SelectQuery { return q.Where("event_type = ?", eventType) },
		withOrderDesc("event_timestamp"),
	}
	record, err := r.base.repo.Get(ctx, criteria...)
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r *EventRepository) attachTraits(ctx context.Context, event *domain.Event) {
	var traits domain.UserTraits
	if err := r.db.NewSelect().Model(&traits).Where("event_id = ?", event.ID).Scan(ctx); err == nil {
		event.Traits = &traits
	}
}
