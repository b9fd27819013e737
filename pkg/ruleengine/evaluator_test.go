package ruleengine

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/marketing-messaging-service/internal/storage/memory"
	"github.com/goliatone/marketing-messaging-service/pkg/domain"
	"github.com/goliatone/marketing-messaging-service/pkg/rules"
)

func mustCatalog(t *testing.T, doc string) *rules.Catalog {
	t.Helper()
	cat, err := rules.Load([]byte(doc))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func TestEvaluateFirstMatchWins(t *testing.T) {
	cat := mustCatalog(t, `
rules:
  - name: first
    trigger: { event_type: signup_completed }
    conditions: { all: [] }
    action: { type: send, template_name: FIRST, delivery_method: email }
  - name: second
    trigger: { event_type: signup_completed }
    conditions: { all: [] }
    action: { type: send, template_name: SECOND, delivery_method: email }
`)
	ev := New(cat, memory.NewEventRepository())
	event := &domain.Event{UserID: "u1", EventType: "signup_completed", EventTimestamp: time.Now()}

	decision, err := ev.Evaluate(context.Background(), event, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.TemplateName != "FIRST" {
		t.Fatalf("expected first rule to win, got %s", decision.TemplateName)
	}
}

func TestEvaluateDisabledRuleSkipped(t *testing.T) {
	cat := mustCatalog(t, `
rules:
  - name: disabled
    enabled: false
    trigger: { event_type: signup_completed }
    conditions: { all: [] }
    action: { type: send, template_name: SKIPPED, delivery_method: email }
  - name: enabled
    trigger: { event_type: signup_completed }
    conditions: { all: [] }
    action: { type: send, template_name: WINNER, delivery_method: email }
`)
	ev := New(cat, memory.NewEventRepository())
	event := &domain.Event{UserID: "u1", EventType: "signup_completed", EventTimestamp: time.Now()}

	decision, err := ev.Evaluate(context.Background(), event, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.TemplateName != "WINNER" {
		t.Fatalf("expected disabled rule to be skipped, got %s", decision.TemplateName)
	}
}

func TestEvaluateNoMatch(t *testing.T) {
	cat := mustCatalog(t, `
rules:
  - name: only
    trigger: { event_type: other_event }
    conditions: { all: [] }
    action: { type: send, template_name: X, delivery_method: email }
`)
	ev := New(cat, memory.NewEventRepository())
	event := &domain.Event{UserID: "u1", EventType: "signup_completed", EventTimestamp: time.Now()}

	decision, err := ev.Evaluate(context.Background(), event, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.MatchedRule != nil {
		t.Fatalf("expected no match, got %v", *decision.MatchedRule)
	}
	if decision.ActionType != domain.ActionTypeNone {
		t.Fatalf("expected action type none, got %s", decision.ActionType)
	}
}

func TestEvaluateFieldConditionsAcrossNamespaces(t *testing.T) {
	cat := mustCatalog(t, `
rules:
  - name: matched
    trigger: { event_type: purchase_completed }
    conditions:
      all:
        - { field: user_traits.country, operator: equals, value: US }
        - { field: properties.amount, operator: gte, value: 100 }
    action: { type: send, template_name: BIG_SPENDER, delivery_method: email }
`)
	ev := New(cat, memory.NewEventRepository())
	country := "US"
	traits := &domain.UserTraits{Country: &country}
	event := &domain.Event{
		UserID:         "u1",
		EventType:      "purchase_completed",
		EventTimestamp: time.Now(),
		Properties:     domain.JSONMap{"amount": float64(150)},
	}

	decision, err := ev.Evaluate(context.Background(), event, traits)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.MatchedRule == nil || *decision.MatchedRule != "matched" {
		t.Fatalf("expected matched rule, got %+v", decision)
	}
}

func TestEvaluateFieldConditionMissingValueIsFalse(t *testing.T) {
	cat := mustCatalog(t, `
rules:
  - name: needs_email
    trigger: { event_type: signup_completed }
    conditions:
      all:
        - { field: user_traits.email, operator: equals, value: "a@example.com" }
    action: { type: send, template_name: X, delivery_method: email }
`)
	ev := New(cat, memory.NewEventRepository())
	event := &domain.Event{UserID: "u1", EventType: "signup_completed", EventTimestamp: time.Now()}

	decision, err := ev.Evaluate(context.Background(), event, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.MatchedRule != nil {
		t.Fatalf("expected no match on absent trait, got %+v", decision)
	}
}

func TestEvaluatePriorEventConditionWithinWindow(t *testing.T) {
	cat := mustCatalog(t, `
rules:
  - name: reminder
    trigger: { event_type: cart_view }
    conditions:
      all:
        - { prior_event: { event_type: cart_abandoned, hours: 24 } }
    action: { type: send, template_name: REMINDER, delivery_method: email }
`)
	events := memory.NewEventRepository()
	ctx := context.Background()
	priorTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	prior := &domain.Event{UserID: "u1", EventType: "cart_abandoned", EventTimestamp: priorTime}
	if err := events.Add(ctx, prior, nil); err != nil {
		t.Fatalf("seed prior event: %v", err)
	}

	ev := New(cat, events)

	withinBoundary := &domain.Event{UserID: "u1", EventType: "cart_view", EventTimestamp: priorTime.Add(24 * time.Hour)}
	decision, err := ev.Evaluate(ctx, withinBoundary, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.MatchedRule == nil {
		t.Fatalf("expected match exactly at the 24h boundary, got %+v", decision)
	}

	pastBoundary := &domain.Event{UserID: "u1", EventType: "cart_view", EventTimestamp: priorTime.Add(24*time.Hour + time.Microsecond)}
	decision, err = ev.Evaluate(ctx, pastBoundary, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.MatchedRule != nil {
		t.Fatalf("expected no match past the 24h boundary, got %+v", decision)
	}
}

func TestEvaluatePriorEventConditionNoPriorEvent(t *testing.T) {
	cat := mustCatalog(t, `
rules:
  - name: reminder
    trigger: { event_type: cart_view }
    conditions:
      all:
        - { prior_event: { event_type: cart_abandoned, hours: 24 } }
    action: { type: send, template_name: REMINDER, delivery_method: email }
`)
	ev := New(cat, memory.NewEventRepository())
	event := &domain.Event{UserID: "u1", EventType: "cart_view", EventTimestamp: time.Now()}

	decision, err := ev.Evaluate(context.Background(), event, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.MatchedRule != nil {
		t.Fatalf("expected no match without a prior event, got %+v", decision)
	}
}
