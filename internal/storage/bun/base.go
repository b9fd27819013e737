// Package bunrepo implements the store interfaces on top of uptrace/bun
// and github.com/goliatone/go-repository-bun.
//
// Repositories are constructed against a bun.IDB, the interface
// satisfied by both *bun.DB and bun.Tx, rather than against a concrete
// *bun.DB. That lets pkg/storage rebuild the repository set against the
// active bun.Tx inside a transaction, so writes performed through these
// repositories genuinely participate in (and roll back with) that
// transaction instead of silently running against the top-level pool.
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

type baseRepository[T any] struct {
	repo    repository.Repository[*T]
	db      bun.IDB
	extract func(*T) *domain.Stamp
}

func newBaseRepository[T any](db bun.IDB, handlers repository.ModelHandlers[*T], extract func(*T) *domain.Stamp) baseRepository[T] {
	return baseRepository[T]{
		repo:    repository.MustNewRepository[*T](db, handlers),
		db:      db,
		extract: extract,
	}
}

func (r baseRepository[T]) create(ctx context.Context, record *T) error {
	stamp := r.extract(record)
	stamp.EnsureID()
	if stamp.CreatedAt.IsZero() {
		stamp.CreatedAt = time.Now().UTC()
	}
	_, err := r.repo.Create(ctx, record)
	return mapError(err)
}

func (r baseRepository[T]) getByID(ctx context.Context, id uuid.UUID) (*T, error) {
	record, err := r.repo.Get(ctx, withID(id))
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r baseRepository[T]) listByUser(ctx context.Context, userID string, orderCol string, opts store.ListOptions) ([]*T, int, error) {
	criteria := []repository.SelectCriteria{withUser(userID), withOrderDesc(orderCol), withListOptions(opts)}
	records, total, err := r.repo.List(ctx, criteria...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	return records, total, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsRecordNotFound(err) {
		return store.ErrNotFound
	}
	return err
}
