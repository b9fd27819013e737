package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Stamp captures the identifier and creation instant shared by the
// write-once audit entities (Event, SendRequest, Suppression, Decision).
// Unlike a mutable record these never get an UpdatedAt or soft-delete.
type Stamp struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// EnsureID assigns a UUID the first time the struct is persisted.
func (s *Stamp) EnsureID() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
}

// JSONMap persists arbitrary key/value payloads as JSON.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		if len(v) == 0 {
			*m = nil
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		if v == "" {
			*m = nil
			return nil
		}
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}

// Get resolves a dotted-free key, returning (nil, false) when absent.
func (m JSONMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Event is a caller-supplied, timestamped record of something that
// happened to a user. Immutable once written.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:ev"`
	Stamp

	UserID         string    `bun:",nullzero,notnull" json:"user_id"`
	EventType      string    `bun:",nullzero,notnull" json:"event_type"`
	EventTimestamp time.Time `bun:",nullzero,notnull" json:"event_timestamp"`
	Properties     JSONMap   `bun:"type:jsonb,nullzero" json:"properties,omitempty"`

	Traits *UserTraits `bun:"rel:has-one,join:id=event_id" json:"user_traits,omitempty"`
}

// UserTraits is attached to a single Event, not to the user globally.
// Every field is individually nullable.
type UserTraits struct {
	bun.BaseModel `bun:"table:user_traits,alias:ut"`

	EventID        uuid.UUID `bun:",pk,type:uuid" json:"event_id"`
	Email          *string   `bun:",nullzero" json:"email,omitempty"`
	Country        *string   `bun:",nullzero" json:"country,omitempty"`
	MarketingOptIn *bool     `bun:",nullzero" json:"marketing_opt_in,omitempty"`
	RiskSegment    *string   `bun:",nullzero" json:"risk_segment,omitempty"`
}

// Get resolves a trait by name for rule-condition field resolution.
// Returns (nil, false) for an unknown trait name or a nil receiver.
func (t *UserTraits) Get(name string) (any, bool) {
	if t == nil {
		return nil, false
	}
	switch name {
	case "email":
		return derefString(t.Email)
	case "country":
		return derefString(t.Country)
	case "marketing_opt_in":
		if t.MarketingOptIn == nil {
			return nil, false
		}
		return *t.MarketingOptIn, true
	case "risk_segment":
		return derefString(t.RiskSegment)
	default:
		return nil, false
	}
}

func derefString(s *string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return *s, true
}

// SendRequest records that a message was dispatched (or an alert raised)
// for a (user, template) pair.
type SendRequest struct {
	bun.BaseModel `bun:"table:send_requests,alias:sr"`
	Stamp

	UserID         string     `bun:",nullzero,notnull" json:"user_id"`
	EventID        *uuid.UUID `bun:",type:uuid" json:"event_id,omitempty"`
	EventTimestamp *time.Time `bun:",nullzero" json:"event_timestamp,omitempty"`
	TemplateName   string     `bun:",nullzero,notnull" json:"template_name"`
	Channel        string     `bun:",nullzero,notnull" json:"channel"`
	Reason         string     `bun:",nullzero" json:"reason,omitempty"`
	DecidedAt      time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"decided_at"`
}

// Suppression records that a message was vetoed by a suppression mode.
type Suppression struct {
	bun.BaseModel `bun:"table:suppressions,alias:sup"`
	Stamp

	UserID            string     `bun:",nullzero,notnull" json:"user_id"`
	EventID           *uuid.UUID `bun:",type:uuid" json:"event_id,omitempty"`
	TemplateName      string     `bun:",nullzero,notnull" json:"template_name"`
	SuppressionReason string     `bun:",nullzero,notnull" json:"suppression_reason"`
	DecidedAt         time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"decided_at"`
}

// Decision is the authoritative audit artifact written exactly once per
// ingested event.
type Decision struct {
	bun.BaseModel `bun:"table:decisions,alias:dec"`
	Stamp

	UserID       string    `bun:",nullzero,notnull" json:"user_id"`
	EventID      uuid.UUID `bun:",type:uuid,notnull" json:"event_id"`
	EventType    string    `bun:",nullzero,notnull" json:"event_type"`
	MatchedRule  *string   `bun:",nullzero" json:"matched_rule,omitempty"`
	ActionType   string    `bun:",nullzero,notnull" json:"action_type"`
	Outcome      string    `bun:",nullzero,notnull" json:"outcome"`
	Reason       string    `bun:",nullzero" json:"reason,omitempty"`
	TemplateName *string   `bun:",nullzero" json:"template_name,omitempty"`
	Channel      *string   `bun:",nullzero" json:"channel,omitempty"`
}

// Domain vocabulary shared by the rule engine, suppression gate and
// event processor.
const (
	ActionTypeSend  = "send"
	ActionTypeAlert = "alert"
	ActionTypeNone  = "none"

	OutcomeAllow    = "allow"
	OutcomeAlert    = "alert"
	OutcomeSuppress = "suppress"
	OutcomeNone     = "none"

	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelInternal = "internal"

	SuppressionModeNone               = "none"
	SuppressionModeOnceEver           = "once_ever"
	SuppressionModeOncePerCalendarDay = "once_per_calendar_day"

	OperatorEquals = "equals"
	OperatorGTE    = "gte"
)
