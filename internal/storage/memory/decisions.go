package memory

import (
	"context"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
)

type DecisionRepository struct {
	base baseMemoryRepo[domain.Decision]
}

func NewDecisionRepository() *DecisionRepository {
	return &DecisionRepository{
		base: newBaseMemoryRepo(func(d *domain.Decision) *domain.Stamp { return &d.Stamp }, func(d *domain.Decision) string { return d.UserID }),
	}
}

func (r *DecisionRepository) Add(ctx context.Context, record *domain.Decision) error {
	return r.base.create(ctx, record)
}

func (r *DecisionRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Decision], error) {
	items, total := r.base.byUser(userID, func(d *domain.Decision) time.Time { return d.CreatedAt }, opts)
	return store.ListResult[domain.Decision]{Items: items, Total: total}, nil
}
