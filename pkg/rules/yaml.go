package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type document struct {
	Rules []Rule `yaml:"rules"`
}

type rawPriorEvent struct {
	EventType *string `yaml:"event_type"`
	Hours     *int    `yaml:"hours"`
}

type rawCondition struct {
	Field      *string        `yaml:"field"`
	Operator   *string        `yaml:"operator"`
	Value      *yaml.Node     `yaml:"value"`
	PriorEvent *rawPriorEvent `yaml:"prior_event"`
}

// UnmarshalYAML decodes the tagged union by presence of keys rather than
// runtime introspection of a decoded-generic value.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw rawCondition
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Field != nil || raw.Operator != nil || raw.Value != nil {
		c.FieldSet = true
		fc := &FieldCondition{}
		if raw.Field != nil {
			fc.Field = *raw.Field
		}
		if raw.Operator != nil {
			fc.Operator = *raw.Operator
		}
		if raw.Value != nil {
			var v any
			if err := raw.Value.Decode(&v); err != nil {
				return fmt.Errorf("condition.value: %w", err)
			}
			fc.Value = v
		}
		c.Field = fc
	}

	if raw.PriorEvent != nil {
		c.PriorEventSet = true
		pe := &PriorEventCondition{}
		if raw.PriorEvent.EventType != nil {
			pe.EventType = *raw.PriorEvent.EventType
		}
		if raw.PriorEvent.Hours != nil {
			pe.Hours = *raw.PriorEvent.Hours
		}
		c.PriorEvent = pe
	}

	return nil
}

type rawRule struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Enabled     *bool        `yaml:"enabled"`
	Trigger     Trigger      `yaml:"trigger"`
	Conditions  Conditions   `yaml:"conditions"`
	Action      Action       `yaml:"action"`
	Suppression *Suppression `yaml:"suppression"`
}

// UnmarshalYAML applies the spec-mandated defaults: enabled defaults to
// true, suppression defaults to {mode: none}, both only when the key is
// entirely absent from the document.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	var raw rawRule
	if err := node.Decode(&raw); err != nil {
		return err
	}

	r.Name = raw.Name
	r.Description = raw.Description
	r.Trigger = raw.Trigger
	r.Conditions = raw.Conditions
	r.Action = raw.Action

	if raw.Enabled == nil {
		r.Enabled = true
	} else {
		r.Enabled = *raw.Enabled
	}

	if raw.Suppression == nil {
		r.Suppression = Suppression{Mode: "none"}
	} else {
		r.Suppression = *raw.Suppression
	}

	return nil
}

// LoadFile reads and validates the rule catalog document at path,
// returning every validation error at once when the document is invalid.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read catalog: %w", err)
	}
	return Load(raw)
}

// Load parses and validates a rule catalog document.
func Load(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("rules: parse catalog: %w", err)
	}
	if err := validateCatalog(doc.Rules); err != nil {
		return nil, err
	}
	return &Catalog{rules: doc.Rules}, nil
}
