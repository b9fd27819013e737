package memory

import (
	"context"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
)

type SendRequestRepository struct {
	base baseMemoryRepo[domain.SendRequest]
}

func NewSendRequestRepository() *SendRequestRepository {
	return &SendRequestRepository{
		base: newBaseMemoryRepo(func(s *domain.SendRequest) *domain.Stamp { return &s.Stamp }, func(s *domain.SendRequest) string { return s.UserID }),
	}
}

func (r *SendRequestRepository) Add(ctx context.Context, record *domain.SendRequest) error {
	if record.DecidedAt.IsZero() {
		record.DecidedAt = time.Now().UTC()
	}
	return r.base.create(ctx, record)
}

func (r *SendRequestRepository) ExistsForUserAndTemplate(ctx context.Context, userID, templateName string) (bool, error) {
	for _, req := range r.base.all() {
		if req.UserID == userID && req.TemplateName == templateName {
			return true, nil
		}
	}
	return false, nil
}

// ExistsInDaySoFar mirrors the bun implementation's strict-interior
// calendar-day window: (start_of_day(providedTS), providedTS), both
// endpoints excluded, UTC. Rows with a nil EventTimestamp never match.
func (r *SendRequestRepository) ExistsInDaySoFar(ctx context.Context, userID, templateName string, providedTS time.Time) (bool, error) {
	ts := providedTS.UTC()
	windowStart := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)

	for _, req := range r.base.all() {
		if req.UserID != userID || req.TemplateName != templateName {
			continue
		}
		if req.EventTimestamp == nil {
			continue
		}
		et := req.EventTimestamp.UTC()
		if et.After(windowStart) && et.Before(ts) {
			return true, nil
		}
	}
	return false, nil
}

func (r *SendRequestRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.SendRequest], error) {
	items, total := r.base.byUser(userID, func(s *domain.SendRequest) time.Time { return s.DecidedAt }, opts)
	return store.ListResult[domain.SendRequest]{Items: items, Total: total}, nil
}
