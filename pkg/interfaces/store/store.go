package store

import "context"

// Repositories bundles the four persistence capabilities the event
// processor writes to inside a single transaction.
type Repositories struct {
	Events       EventRepository
	SendRequests SendRequestRepository
	Suppressions SuppressionRepository
	Decisions    DecisionRepository
}

// TransactionManager coordinates repository work inside a single
// transaction. Implementations must hand fn a Repositories value whose
// members are bound to the active transaction, not to the top-level
// connection, so that a rollback actually undoes every write fn performs.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// NopTransactionManager executes the callback against a fixed set of
// repositories without any transactional isolation. Suitable for the
// in-memory test doubles, where atomicity is not under test.
type NopTransactionManager struct {
	Repos Repositories
}

var _ TransactionManager = (*NopTransactionManager)(nil)

func (n *NopTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, n.Repos)
}
