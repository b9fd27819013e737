// Package ruleengine evaluates a persisted Event (plus optional user
// traits) against a rules.Catalog and returns a RuleDecision.
package ruleengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/interfaces/store"
	"github.com/goliatone/marketing-messaging-service/pkg/rules"
)

// RuleDecision is the output of evaluating the catalog against one event.
type RuleDecision struct {
	MatchedRule     *string
	ActionType      string
	TemplateName    string
	DeliveryMethod  string
	SuppressionMode string
	Reason          string
}

// Evaluator runs the catalog's rules in document order, first-match-wins.
type Evaluator struct {
	catalog *rules.Catalog
	events  store.EventRepository
}

// New builds an Evaluator bound to a frozen catalog and the event
// repository used for prior-event lookups.
func New(catalog *rules.Catalog, events store.EventRepository) *Evaluator {
	return &Evaluator{catalog: catalog, events: events}
}

// Evaluate is pure with respect to the catalog and performs at most one
// repository lookup per prior_event condition in the winning candidate
// rule's condition list.
func (e *Evaluator) Evaluate(ctx context.Context, event *domain.Event, traits *domain.UserTraits) (RuleDecision, error) {
	for _, rule := range e.catalog.Rules() {
		if !rule.Enabled {
			continue
		}
		if rule.Trigger.EventType != event.EventType {
			continue
		}

		matched, err := e.conditionsMatch(ctx, rule, event, traits)
		if err != nil {
			return RuleDecision{}, err
		}
		if !matched {
			continue
		}

		name := rule.Name
		return RuleDecision{
			MatchedRule:     &name,
			ActionType:      rule.Action.Type,
			TemplateName:    rule.Action.TemplateName,
			DeliveryMethod:  rule.Action.DeliveryMethod,
			SuppressionMode: rule.Suppression.Mode,
			Reason:          fmt.Sprintf("Matched rule: %s", rule.Name),
		}, nil
	}

	return RuleDecision{
		ActionType: domain.ActionTypeNone,
		Reason:     "No matching rule",
	}, nil
}

func (e *Evaluator) conditionsMatch(ctx context.Context, rule rules.Rule, event *domain.Event, traits *domain.UserTraits) (bool, error) {
	for _, cond := range rule.Conditions.All {
		ok, err := e.conditionMatches(ctx, cond, event, traits)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Evaluator) conditionMatches(ctx context.Context, cond rules.Condition, event *domain.Event, traits *domain.UserTraits) (bool, error) {
	switch {
	case cond.IsFieldCondition():
		actual, present := resolveField(cond.Field.Field, event, traits)
		if !present {
			actual = nil
		}
		switch cond.Field.Operator {
		case domain.OperatorEquals:
			return valuesEqual(actual, cond.Field.Value), nil
		case domain.OperatorGTE:
			return valuesGTE(actual, cond.Field.Value), nil
		default:
			// Unknown operator: condition is false, evaluation continues.
			return false, nil
		}
	case cond.IsPriorEventCondition():
		prior, err := e.events.GetLatestByUserAndType(ctx, event.UserID, cond.PriorEvent.EventType)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		elapsed := event.EventTimestamp.Sub(prior.EventTimestamp)
		return elapsed <= time.Duration(cond.PriorEvent.Hours)*time.Hour, nil
	default:
		// Malformed condition shape: treated as false, not a fault.
		return false, nil
	}
}

// resolveField looks up a dotted path against the event, its traits, or
// its properties map. The second return is false when the path's prefix
// is unrecognized or the underlying value is absent.
func resolveField(path string, event *domain.Event, traits *domain.UserTraits) (any, bool) {
	switch {
	case strings.HasPrefix(path, "event."):
		return resolveEventAttr(strings.TrimPrefix(path, "event."), event)
	case strings.HasPrefix(path, "user_traits."):
		return traits.Get(strings.TrimPrefix(path, "user_traits."))
	case strings.HasPrefix(path, "properties."):
		return event.Properties.Get(strings.TrimPrefix(path, "properties."))
	default:
		return nil, false
	}
}

func resolveEventAttr(name string, event *domain.Event) (any, bool) {
	switch name {
	case "user_id":
		return event.UserID, true
	case "event_type":
		return event.EventType, true
	case "event_timestamp":
		return event.EventTimestamp, true
	default:
		return nil, false
	}
}

func valuesEqual(actual, expected any) bool {
	if actual == nil {
		return false
	}
	if expected == nil {
		return false
	}
	if af, aok := toFloat64(actual); aok {
		if ef, eok := toFloat64(expected); eok {
			return af == ef
		}
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected) && sameKind(actual, expected)
}

func sameKind(a, b any) bool {
	switch a.(type) {
	case bool:
		_, ok := b.(bool)
		return ok
	default:
		return true
	}
}

func valuesGTE(actual, expected any) bool {
	if actual == nil {
		return false
	}
	af, aok := toFloat64(actual)
	ef, eok := toFloat64(expected)
	if !aok || !eok {
		return false
	}
	return af >= ef
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
