// Package rules loads and validates the declarative rule catalog that
// drives the event processor's rule evaluator.
package rules

import "github.com/goliatone/marketing-messaging-service/pkg/domain"

// Trigger selects which event_type a Rule applies to.
type Trigger struct {
	EventType string `yaml:"event_type"`
}

// FieldCondition compares a resolved field path against a literal value.
// Field must start with "properties." or "user_traits.".
type FieldCondition struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

// PriorEventCondition matches when a prior event of EventType occurred
// for the same user within Hours of the current event.
type PriorEventCondition struct {
	EventType string `yaml:"event_type"`
	Hours     int    `yaml:"hours"`
}

// Condition is a tagged union: exactly one of Field or PriorEvent is set.
// FieldSet/PriorEventSet record which keys were present in the source
// document, independent of whether the nested value parsed validly, so
// validation can report "both present" or "neither present" precisely.
type Condition struct {
	Field      *FieldCondition
	PriorEvent *PriorEventCondition

	FieldSet      bool
	PriorEventSet bool
}

// IsFieldCondition reports whether this condition is the field variant.
func (c Condition) IsFieldCondition() bool {
	return c.FieldSet && !c.PriorEventSet
}

// IsPriorEventCondition reports whether this condition is the
// prior-event variant.
func (c Condition) IsPriorEventCondition() bool {
	return c.PriorEventSet && !c.FieldSet
}

// Conditions is the ordered "all" list; empty means vacuously true.
type Conditions struct {
	All []Condition `yaml:"all"`
}

// Action describes the side effect a matching rule produces.
type Action struct {
	Type           string `yaml:"type"`
	TemplateName   string `yaml:"template_name"`
	DeliveryMethod string `yaml:"delivery_method"`
}

// Suppression names the dedup mode applied when Action.Type == "send".
type Suppression struct {
	Mode string `yaml:"mode"`
}

// Rule is one entry of the catalog document.
type Rule struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Enabled     bool        `yaml:"enabled"`
	Trigger     Trigger     `yaml:"trigger"`
	Conditions  Conditions  `yaml:"conditions"`
	Action      Action      `yaml:"action"`
	Suppression Suppression `yaml:"suppression"`
}

// Catalog is the immutable, validated, in-memory rule list. Frozen for
// the process lifetime once Load succeeds.
type Catalog struct {
	rules []Rule
}

// Rules returns the catalog in document order.
func (c *Catalog) Rules() []Rule {
	return c.rules
}

var allowedFieldPrefixes = []string{"properties.", "user_traits."}

var allowedOperators = map[string]bool{
	domain.OperatorEquals: true,
	domain.OperatorGTE:    true,
}

var allowedActionTypes = map[string]bool{
	domain.ActionTypeSend:  true,
	domain.ActionTypeAlert: true,
}

var allowedDeliveryMethods = map[string]bool{
	domain.ChannelEmail:    true,
	domain.ChannelSMS:      true,
	domain.ChannelInternal: true,
}

var allowedSuppressionModes = map[string]bool{
	domain.SuppressionModeNone:               true,
	domain.SuppressionModeOnceEver:           true,
	domain.SuppressionModeOncePerCalendarDay: true,
}
