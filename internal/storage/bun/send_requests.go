package bunrepo

import (
	"context"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SendRequestRepository implements store.SendRequestRepository.
type SendRequestRepository struct {
	base baseRepository[domain.SendRequest]
}

func NewSendRequestRepository(db bun.IDB) *SendRequestRepository {
	handlers := repository.ModelHandlers[*domain.SendRequest]{
		NewRecord:          func() *domain.SendRequest { return &domain.SendRequest{} },
		GetID:              func(s *domain.SendRequest) uuid.UUID { return s.ID },
		SetID:              func(s *domain.SendRequest, id uuid.UUID) { s.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(s *domain.SendRequest) string { return s.ID.String() },
	}
	return &SendRequestRepository{
		base: newBaseRepository[domain.SendRequest](db, handlers, func(s *domain.SendRequest) *domain.Stamp { return &s.Stamp }),
	}
}

func (r *SendRequestRepository) Add(ctx context.Context, record *domain.SendRequest) error {
	if record.DecidedAt.IsZero() {
		record.DecidedAt = time.Now().UTC()
	}
	return r.base.create(ctx, record)
}

func (r *SendRequestRepository) ExistsForUserAndTemplate(ctx context.Context, userID, templateName string) (bool, error) {
	criteria := []repository.SelectCriteria{
		withUser(userID),
		func(q *bun.SelectQuery) *bun.SelectQuery { return q.Where("template_name = ?", templateName) },
	}
	_, total, err := r.base.repo.List(ctx, criteria...)
	if err != nil {
		return false, mapError(err)
	}
	return total > 0, nil
}

// ExistsInDaySoFar implements the strict-interior calendar-day window:
// the window is (start_of_day(providedTS), providedTS), excluding both
// endpoints, UTC. Rows with a null event_timestamp never participate.
func (r *SendRequestRepository) ExistsInDaySoFar(ctx context.Context, userID, templateName string, providedTS time.Time) (bool, error) {
	ts := providedTS.UTC()
	windowStart := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)

	criteria := []repository.SelectCriteria{
		withUser(userID),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("template_name = ?", templateName).
				Where("event_timestamp IS NOT NULL").
				Where("event_timestamp > ?", windowStart).
				Where("event_timestamp < ?", ts)
		},
	}
	_, total, err := r.base.repo.List(ctx, criteria...)
	if err != nil {
		return false, mapError(err)
	}
	return total > 0, nil
}

func (r *SendRequestRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.SendRequest], error) {
	records, total, err := r.base.listByUser(ctx, userID, "decided_at", opts)
	if err != nil {
		return store.ListResult[domain.SendRequest]{}, err
	}
	items := make([]domain.SendRequest, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[domain.SendRequest]{Items: items, Total: total}, nil
}
