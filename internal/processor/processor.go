// Package processor implements the event processor: the orchestrator
// that persists an inbound event, runs it through the rule evaluator and
// suppression gate, performs the resulting side effect, and writes the
// audit Decision row, all inside one transaction.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	masker "github.com/goliatone/go-masker"
	"github.com/google/uuid"

	"github.com/goliatone/marketing-messaging-service/internal/suppression"
	"github.com/goliatone/marketing-messaging-service/pkg/activity"
	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/logger"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	"github.com/goliatone/marketing-messaging-service/pkg/messaging"
	"github.com/goliatone/marketing-messaging-service/pkg/ruleengine"
	"github.com/goliatone/marketing-messaging-service/pkg/rules"
)

// UserTraitsIn is the caller-supplied trait payload attached to an event.
type UserTraitsIn struct {
	Email          *string `json:"email,omitempty"`
	Country        *string `json:"country,omitempty"`
	MarketingOptIn *bool   `json:"marketing_opt_in,omitempty"`
	RiskSegment    *string `json:"risk_segment,omitempty"`
}

// EventIn is the validated inbound payload for process_event.
type EventIn struct {
	UserID         string
	EventType      string
	EventTimestamp time.Time
	Properties     map[string]any
	UserTraits     *UserTraitsIn
}

// Validate enforces the minimal schema process_event requires before any
// persistence is attempted.
func (e EventIn) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidPayload)
	}
	if e.EventType == "" {
		return fmt.Errorf("%w: event_type is required", ErrInvalidPayload)
	}
	if e.EventTimestamp.IsZero() {
		return fmt.Errorf("%w: event_timestamp is required", ErrInvalidPayload)
	}
	return nil
}

// Result is the outcome of processing one event, returned to the caller
// and used to build EventProcessingResult at the HTTP boundary.
type Result struct {
	EventID      uuid.UUID
	UserID       string
	EventType    string
	MatchedRule  *string
	ActionType   string
	TemplateName *string
	Channel      *string
	Outcome      string
	Reason       string
}

// ErrInvalidPayload marks a schema violation in the inbound event (§7: 422).
var ErrInvalidPayload = errors.New("processor: invalid event payload")

// Dependencies wires the collaborators the processor needs per call.
type Dependencies struct {
	Transaction store.TransactionManager
	Catalog     *rules.Catalog
	Provider    messaging.Provider
	Activity    activity.Hooks
	Logger      logger.Logger
}

// Processor orchestrates the decision pipeline described in spec §4.4.
type Processor struct {
	tx       store.TransactionManager
	catalog  *rules.Catalog
	provider messaging.Provider
	hooks    activity.Hooks
	log      logger.Logger
}

// New builds a Processor. Transaction, Catalog, and Provider are required.
func New(deps Dependencies) (*Processor, error) {
	if deps.Transaction == nil {
		return nil, errors.New("processor: transaction manager is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("processor: rule catalog is required")
	}
	if deps.Provider == nil {
		return nil, errors.New("processor: messaging provider is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Processor{
		tx:       deps.Transaction,
		catalog:  deps.Catalog,
		provider: deps.Provider,
		hooks:    deps.Activity,
		log:      deps.Logger,
	}, nil
}

// Process runs the full pipeline for one inbound event. All writes commit
// or roll back together; a messaging-provider failure rolls back the
// transaction and no row is persisted (spec §4.4, §7).
func (p *Processor) Process(ctx context.Context, in EventIn) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	var result Result
	err := p.tx.WithinTransaction(ctx, func(ctx context.Context, repos store.Repositories) error {
		event := &domain.Event{
			UserID:         in.UserID,
			EventType:      in.EventType,
			EventTimestamp: in.EventTimestamp,
			Properties:     domain.JSONMap(in.Properties),
		}
		var traits *domain.UserTraits
		if in.UserTraits != nil {
			traits = &domain.UserTraits{
				Email:          in.UserTraits.Email,
				Country:        in.UserTraits.Country,
				MarketingOptIn: in.UserTraits.MarketingOptIn,
				RiskSegment:    in.UserTraits.RiskSegment,
			}
		}
		if err := repos.Events.Add(ctx, event, traits); err != nil {
			return fmt.Errorf("processor: persist event: %w", err)
		}

		evaluator := ruleengine.New(p.catalog, repos.Events)
		decision, err := evaluator.Evaluate(ctx, event, traits)
		if err != nil {
			return fmt.Errorf("processor: evaluate rules: %w", err)
		}

		gate := suppression.New(repos.SendRequests, p.log)
		outcome, suppressReason, err := gate.Evaluate(ctx, event.UserID, decision, event.EventTimestamp)
		if err != nil {
			return fmt.Errorf("processor: suppression gate: %w", err)
		}

		if err := p.applyOutcome(ctx, repos, event, decision, outcome, suppressReason); err != nil {
			return err
		}

		if err := p.recordDecision(ctx, repos, event, decision, outcome, suppressReason); err != nil {
			return err
		}

		result = Result{
			EventID:      event.ID,
			UserID:       event.UserID,
			EventType:    event.EventType,
			MatchedRule:  decision.MatchedRule,
			ActionType:   decision.ActionType,
			TemplateName: nonEmptyPtr(decision.TemplateName),
			Channel:      resultChannel(decision, outcome),
			Outcome:      outcome,
			Reason:       resultReason(decision, outcome, suppressReason),
		}

		p.notify(ctx, event, traits, result)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// applyOutcome performs the side-effect row for the branch named in §4.4
// step 4, plus the messaging-provider call for allow/alert.
func (p *Processor) applyOutcome(ctx context.Context, repos store.Repositories, event *domain.Event, decision ruleengine.RuleDecision, outcome, suppressReason string) error {
	switch outcome {
	case domain.OutcomeAllow:
		channel := decision.DeliveryMethod
		reason := ruleReason(decision)
		sr := &domain.SendRequest{
			UserID:         event.UserID,
			EventID:        &event.ID,
			EventTimestamp: &event.EventTimestamp,
			TemplateName:   decision.TemplateName,
			Channel:        channel,
			Reason:         reason,
		}
		if err := repos.SendRequests.Add(ctx, sr); err != nil {
			return fmt.Errorf("processor: persist send request: %w", err)
		}
		if err := p.provider.SendMessage(ctx, event.UserID, decision.TemplateName, channel, reason); err != nil {
			return fmt.Errorf("processor: dispatch message: %w", err)
		}
		return nil
	case domain.OutcomeAlert:
		reason := ruleReason(decision)
		sr := &domain.SendRequest{
			UserID:         event.UserID,
			EventID:        &event.ID,
			EventTimestamp: &event.EventTimestamp,
			TemplateName:   decision.TemplateName,
			Channel:        domain.ChannelInternal,
			Reason:         reason,
		}
		if err := repos.SendRequests.Add(ctx, sr); err != nil {
			return fmt.Errorf("processor: persist send request: %w", err)
		}
		if err := p.provider.SendMessage(ctx, event.UserID, decision.TemplateName, domain.ChannelInternal, reason); err != nil {
			return fmt.Errorf("processor: dispatch alert: %w", err)
		}
		return nil
	case domain.OutcomeSuppress:
		sup := &domain.Suppression{
			UserID:            event.UserID,
			EventID:           &event.ID,
			TemplateName:      decision.TemplateName,
			SuppressionReason: suppressReason,
		}
		if err := repos.Suppressions.Add(ctx, sup); err != nil {
			return fmt.Errorf("processor: persist suppression: %w", err)
		}
		return nil
	default:
		return nil
	}
}

func (p *Processor) recordDecision(ctx context.Context, repos store.Repositories, event *domain.Event, decision ruleengine.RuleDecision, outcome, suppressReason string) error {
	dec := &domain.Decision{
		UserID:       event.UserID,
		EventID:      event.ID,
		EventType:    event.EventType,
		MatchedRule:  decision.MatchedRule,
		ActionType:   decision.ActionType,
		Outcome:      outcome,
		Reason:       resultReason(decision, outcome, suppressReason),
		TemplateName: nonEmptyPtr(decision.TemplateName),
		Channel:      resultChannel(decision, outcome),
	}
	if err := repos.Decisions.Add(ctx, dec); err != nil {
		return fmt.Errorf("processor: persist decision: %w", err)
	}
	return nil
}

// notify fans the decision out to any registered activity hooks. A
// masked copy of the email trait (if present) is attached so a hook
// that logs Metadata never leaks the raw address.
func (p *Processor) notify(ctx context.Context, event *domain.Event, traits *domain.UserTraits, result Result) {
	if len(p.hooks) == 0 {
		return
	}
	meta := map[string]any{
		"event_type":   result.EventType,
		"matched_rule": result.MatchedRule,
		"action_type":  result.ActionType,
		"outcome":      result.Outcome,
		"reason":       result.Reason,
	}
	if traits != nil && traits.Email != nil {
		meta["user_traits.email"] = maskEmail(*traits.Email)
	}
	p.hooks.Notify(ctx, activity.Event{
		Verb:       "decision." + result.Outcome,
		UserID:     event.UserID,
		ObjectType: "event",
		ObjectID:   event.ID.String(),
		Channel:    derefStr(result.Channel),
		Metadata:   meta,
		OccurredAt: event.EventTimestamp,
	})
}

// maskEmail masks an email address for log/activity-hook consumption.
// Falls back to a conservative manual mask if the library has no
// registered "email" mask type.
func maskEmail(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String("email", value); err == nil {
		return masked
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return "****"
	}
	return string(runes[:2]) + "****" + string(runes[len(runes)-2:])
}

func ruleReason(decision ruleengine.RuleDecision) string {
	if decision.MatchedRule != nil {
		return "rule:" + *decision.MatchedRule
	}
	return decision.Reason
}

func resultReason(decision ruleengine.RuleDecision, outcome, suppressReason string) string {
	if outcome == domain.OutcomeSuppress {
		return suppressReason
	}
	return decision.Reason
}

// resultChannel mirrors spec §4.4 step 5: channel is "internal" for an
// alert, else decision.delivery_method — including for suppress, where
// the audit trail must still show which channel was vetoed.
func resultChannel(decision ruleengine.RuleDecision, outcome string) *string {
	if outcome == domain.OutcomeAlert {
		ch := domain.ChannelInternal
		return &ch
	}
	return nonEmptyPtr(decision.DeliveryMethod)
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
