package memory

import (
	"context"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
)

type SuppressionRepository struct {
	base baseMemoryRepo[domain.Suppression]
}

func NewSuppressionRepository() *SuppressionRepository {
	return &SuppressionRepository{
		base: newBaseMemoryRepo(func(s *domain.Suppression) *domain.Stamp { return &s.Stamp }, func(s *domain.Suppression) string { return s.UserID }),
	}
}

func (r *SuppressionRepository) Add(ctx context.Context, record *domain.Suppression) error {
	if record.DecidedAt.IsZero() {
		record.DecidedAt = time.Now().UTC()
	}
	return r.base.create(ctx, record)
}

func (r *SuppressionRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Suppression], error) {
	items, total := r.base.byUser(userID, func(s *domain.Suppression) time.Time { return s.DecidedAt }, opts)
	return store.ListResult[domain.Suppression]{Items: items, Total: total}, nil
}
