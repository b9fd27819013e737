// Package storage wires the store interfaces to either a Bun-backed
// SQL database or to in-process maps, and hands back the bundle of
// repositories plus a TransactionManager a caller uses to run work
// atomically.
package storage

import (
	"context"
	"database/sql"

	bunrepo "github.com/goliatone/marketing-messaging-service/internal/storage/bun"
	"github.com/goliatone/marketing-messaging-service/internal/storage/memory"
	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// MetricsCollector enables downstream observers to record repo timings.
type MetricsCollector interface {
	Record(operation string, labels map[string]string)
}

// Providers bundles the repositories and transaction manager a caller
// needs to run the event-ingest pipeline.
type Providers struct {
	store.Repositories
	Transaction store.TransactionManager
	Metrics     MetricsCollector
}

type Option func(*Providers)

// WithMetricsCollector registers a metrics collector returned alongside repos.
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(p *Providers) {
		p.Metrics = collector
	}
}

// NewMemoryProviders returns repositories backed by in-memory maps, for
// tests and for ephemeral single-process deployments.
func NewMemoryProviders(opts ...Option) Providers {
	repos := store.Repositories{
		Events:       memory.NewEventRepository(),
		SendRequests: memory.NewSendRequestRepository(),
		Suppressions: memory.NewSuppressionRepository(),
		Decisions:    memory.NewDecisionRepository(),
	}

	providers := Providers{
		Repositories: repos,
		Transaction:  &store.NopTransactionManager{Repos: repos},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller is responsible for creating the *bun.DB instance (potentially
// via go-persistence-bun) and managing its lifecycle.
func NewBunProviders(db *bun.DB, opts ...Option) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(
		(*domain.Event)(nil),
		(*domain.UserTraits)(nil),
		(*domain.SendRequest)(nil),
		(*domain.Suppression)(nil),
		(*domain.Decision)(nil),
	)

	providers := Providers{
		Repositories: newBunRepositories(db),
		Transaction:  &bunTxManager{db: db},
	}

	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

func newBunRepositories(db bun.IDB) store.Repositories {
	return store.Repositories{
		Events:       bunrepo.NewEventRepository(db),
		SendRequests: bunrepo.NewSendRequestRepository(db),
		Suppressions: bunrepo.NewSuppressionRepository(db),
		Decisions:    bunrepo.NewDecisionRepository(db),
	}
}

// bunTxManager runs the callback inside a real SQL transaction, rebinding
// every repository to the active bun.Tx first. This is the fix for the
// bug where repos held a reference to the *bun.DB and a rollback never
// actually undid anything they wrote.
type bunTxManager struct {
	db *bun.DB
}

func (m *bunTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	return m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, newBunRepositories(tx))
	})
}
