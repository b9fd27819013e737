package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a record cannot be located.
var ErrNotFound = errors.New("store: not found")

// ListOptions capture pagination knobs common to the list-by-user queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// EventRepository persists Events and their folded-in UserTraits.
type EventRepository interface {
	Add(ctx context.Context, event *domain.Event, traits *domain.UserTraits) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListByUser(ctx context.Context, userID string, opts ListOptions) (ListResult[domain.Event], error)
	// GetLatestByUserAndType returns the most recent event (by event_timestamp
	// descending) of the given type for the user, or ErrNotFound.
	GetLatestByUserAndType(ctx context.Context, userID, eventType string) (*domain.Event, error)
}

// SendRequestRepository persists SendRequest rows and answers the
// suppression-gate existence checks.
type SendRequestRepository interface {
	Add(ctx context.Context, record *domain.SendRequest) error
	ExistsForUserAndTemplate(ctx context.Context, userID, templateName string) (bool, error)
	// ExistsInDaySoFar reports whether a SendRequest exists for (user,
	// template) whose event_timestamp lies strictly inside
	// (start_of_day(providedTS), providedTS), UTC, excluding both
	// boundaries and rows with a null event_timestamp.
	ExistsInDaySoFar(ctx context.Context, userID, templateName string, providedTS time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string, opts ListOptions) (ListResult[domain.SendRequest], error)
}

// SuppressionRepository persists Suppression rows.
type SuppressionRepository interface {
	Add(ctx context.Context, record *domain.Suppression) error
	ListByUser(ctx context.Context, userID string, opts ListOptions) (ListResult[domain.Suppression], error)
}

// DecisionRepository persists Decision audit rows.
type DecisionRepository interface {
	Add(ctx context.Context, record *domain.Decision) error
	ListByUser(ctx context.Context, userID string, opts ListOptions) (ListResult[domain.Decision], error)
}
