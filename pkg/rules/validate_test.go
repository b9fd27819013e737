package rules

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestValidateCatalogAggregatesAllErrors(t *testing.T) {
	_, err := Load([]byte(`
rules:
  - name: ""
    trigger: { event_type: "" }
    conditions: { all: [] }
    action: { type: bogus, template_name: "", delivery_method: bogus }
    suppression: { mode: bogus }
`))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	verrs, ok := err.(validation.Errors)
	if !ok {
		t.Fatalf("expected validation.Errors, got %T", err)
	}
	// name, trigger.event_type, action.type, action.template_name,
	// action.delivery_method, suppression.mode: six independent violations
	// on a single rule, all surfaced together.
	if len(verrs) < 6 {
		t.Fatalf("expected at least 6 aggregated errors, got %d: %v", len(verrs), verrs)
	}
}

func TestValidateCatalogDuplicateNames(t *testing.T) {
	_, err := Load([]byte(`
rules:
  - name: dup
    trigger: { event_type: a }
    conditions: { all: [] }
    action: { type: send, template_name: X, delivery_method: email }
  - name: dup
    trigger: { event_type: b }
    conditions: { all: [] }
    action: { type: send, template_name: Y, delivery_method: email }
`))
	if err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestValidateAlertRequiresInternalDelivery(t *testing.T) {
	_, err := Load([]byte(`
rules:
  - name: alert_rule
    trigger: { event_type: fraud_flagged }
    conditions: { all: [] }
    action: { type: alert, template_name: FRAUD_ALERT, delivery_method: email }
`))
	if err == nil {
		t.Fatalf("expected error when alert rule does not use internal delivery")
	}
}

func TestValidateAlertWithInternalDeliveryPasses(t *testing.T) {
	_, err := Load([]byte(`
rules:
  - name: alert_rule
    trigger: { event_type: fraud_flagged }
    conditions: { all: [] }
    action: { type: alert, template_name: FRAUD_ALERT, delivery_method: internal }
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFieldConditionRejectsDisallowedPrefix(t *testing.T) {
	_, err := Load([]byte(`
rules:
  - name: bad_field
    trigger: { event_type: signup_completed }
    conditions:
      all:
        - { field: event.user_id, operator: equals, value: x }
    action: { type: send, template_name: X, delivery_method: email }
`))
	if err == nil {
		t.Fatalf("expected error for field path outside properties./user_traits.")
	}
}
