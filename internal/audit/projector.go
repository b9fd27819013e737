// Package audit implements the read-only audit projection over
// persisted Decision rows (spec §4.6).
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
)

// Item is one entry of an AuditLog, mirroring the AuditLogItem shape
// named in spec §4.6.
type Item struct {
	Timestamp    time.Time `json:"timestamp"`
	Kind         string    `json:"kind"`
	EventID      uuid.UUID `json:"event_id"`
	UserID       string    `json:"user_id"`
	EventType    string    `json:"event_type"`
	MatchedRule  *string   `json:"matched_rule,omitempty"`
	ActionType   string    `json:"action_type"`
	Outcome      string    `json:"outcome"`
	Reason       string    `json:"reason,omitempty"`
	TemplateName *string   `json:"template_name,omitempty"`
	Channel      *string   `json:"channel,omitempty"`
}

// Log is the response shape of get_audit_log.
type Log struct {
	UserID string `json:"user_id"`
	Items  []Item `json:"items"`
}

// Projector serves the audit query endpoint (spec §4.6).
type Projector struct {
	decisions store.DecisionRepository
}

// New builds a Projector bound to the decision repository.
func New(decisions store.DecisionRepository) *Projector {
	return &Projector{decisions: decisions}
}

// GetAuditLog returns the user's Decision rows, newest-first. Unknown
// users yield an empty items list, never an error.
func (p *Projector) GetAuditLog(ctx context.Context, userID string) (Log, error) {
	result, err := p.decisions.ListByUser(ctx, userID, store.ListOptions{})
	if err != nil {
		return Log{}, err
	}

	items := make([]Item, 0, len(result.Items))
	for _, d := range result.Items {
		items = append(items, itemFromDecision(d))
	}
	return Log{UserID: userID, Items: items}, nil
}

func itemFromDecision(d domain.Decision) Item {
	return Item{
		Timestamp:    d.CreatedAt,
		Kind:         "decision",
		EventID:      d.EventID,
		UserID:       d.UserID,
		EventType:    d.EventType,
		MatchedRule:  d.MatchedRule,
		ActionType:   d.ActionType,
		Outcome:      d.Outcome,
		Reason:       d.Reason,
		TemplateName: d.TemplateName,
		Channel:      d.Channel,
	}
}
