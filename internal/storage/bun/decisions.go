package bunrepo

import (
	"context"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DecisionRepository implements store.DecisionRepository.
type DecisionRepository struct {
	base baseRepository[domain.Decision]
}

func NewDecisionRepository(db bun.IDB) *DecisionRepository {
	handlers := repository.ModelHandlers[*domain.Decision]{
		NewRecord:          func() *domain.Decision { return &domain.Decision{} },
		GetID:              func(d *domain.Decision) uuid.UUID { return d.ID },
		SetID:              func(d *domain.Decision, id uuid.UUID) { d.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(d *domain.Decision) string { return d.ID.String() },
	}
	return &DecisionRepository{
		base: newBaseRepository[domain.Decision](db, handlers, func(d *domain.Decision) *domain.Stamp { return &d.Stamp }),
	}
}

func (r *DecisionRepository) Add(ctx context.Context, record *domain.Decision) error {
	return r.base.create(ctx, record)
}

func (r *DecisionRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Decision], error) {
	records, total, err := r.base.listByUser(ctx, userID, "created_at", opts)
	if err != nil {
		return store.ListResult[domain.Decision]{}, err
	}
	items := make([]domain.Decision, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[domain.Decision]{Items: items, Total: total}, nil
}
