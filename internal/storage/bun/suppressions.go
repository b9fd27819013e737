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

// SuppressionRepository implements store.SuppressionRepository.
type SuppressionRepository struct {
	base baseRepository[domain.Suppression]
}

func NewSuppressionRepository(db bun.IDB) *SuppressionRepository {
	handlers := repository.ModelHandlers[*domain.Suppression]{
		NewRecord:          func() *domain.Suppression { return &domain.Suppression{} },
		GetID:              func(s *domain.Suppression) uuid.UUID { return s.ID },
		SetID:              func(s *domain.Suppression, id uuid.UUID) { s.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(s *domain.Suppression) string { return s.ID.String() },
	}
	return &SuppressionRepository{
		base: newBaseRepository[domain.Suppression](db, handlers, func(s *domain.Suppression) *domain.Stamp { return &s.Stamp }),
	}
}

func (r *SuppressionRepository) Add(ctx context.Context, record *domain.Suppression) error {
	if record.DecidedAt.IsZero() {
		record.DecidedAt = time.Now().UTC()
	}
	return r.base.create(ctx, record)
}

func (r *SuppressionRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Suppression], error) {
	records, total, err := r.base.listByUser(ctx, userID, "decided_at", opts)
	if err != nil {
		return store.ListResult[domain.Suppression]{}, err
	}
	items := make([]domain.Suppression, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[domain.Suppression]{Items: items, Total: total}, nil
}
