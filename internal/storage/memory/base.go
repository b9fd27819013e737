// Package memory implements the store interfaces with in-process maps,
// used by tests and by NopTransactionManager-based wiring where a real
// database is unnecessary.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	"github.com/google/uuid"
)

type baseMemoryRepo[T any] struct {
	mu      sync.RWMutex
	records map[uuid.UUID]T
	extract func(*T) *domain.Stamp
	userOf  func(*T) string
}

func newBaseMemoryRepo[T any](extract func(*T) *domain.Stamp, userOf func(*T) string) baseMemoryRepo[T] {
	return baseMemoryRepo[T]{
		records: make(map[uuid.UUID]T),
		extract: extract,
		userOf:  userOf,
	}
}

func (r *baseMemoryRepo[T]) create(ctx context.Context, record *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stamp := r.extract(record)
	stamp.EnsureID()
	if stamp.CreatedAt.IsZero() {
		stamp.CreatedAt = time.Now().UTC()
	}
	r.records[stamp.ID] = *record
	return nil
}

func (r *baseMemoryRepo[T]) getByID(ctx context.Context, id uuid.UUID) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copy := record
	return &copy, nil
}

// byUser returns every record belonging to userID, newest-first by
// sortKey, after applying limit/offset.
func (r *baseMemoryRepo[T]) byUser(userID string, sortKey func(*T) time.Time, opts store.ListOptions) ([]T, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []T
	for _, record := range r.records {
		if r.userOf(&record) != userID {
			continue
		}
		filtered = append(filtered, record)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return sortKey(&filtered[i]).After(sortKey(&filtered[j]))
	})

	total := len(filtered)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return filtered[start:end], total
}

func (r *baseMemoryRepo[T]) all() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	return out
}
