package rules

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// validateCatalog validates every rule and aggregates every violation
// into a single validation.Errors map, keyed by document path, so the
// process can report all errors instead of failing on the first one.
func validateCatalog(rs []Rule) error {
	errs := validation.Errors{}
	seenNames := make(map[string]int, len(rs))

	for idx, r := range rs {
		path := fmt.Sprintf("rules[%d]", idx)
		validateRule(r, path, errs)

		name := strings.TrimSpace(r.Name)
		if name != "" {
			if first, dup := seenNames[name]; dup {
				errs[path+".name"] = fmt.Errorf("duplicate rule name %q, already used by rules[%d]", name, first)
			} else {
				seenNames[name] = idx
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateRule(r Rule, path string, errs validation.Errors) {
	if strings.TrimSpace(r.Name) == "" {
		errs[path+".name"] = fmt.Errorf("required non-empty string")
	}

	if strings.TrimSpace(r.Trigger.EventType) == "" {
		errs[path+".trigger.event_type"] = fmt.Errorf("required non-empty string")
	}

	for cidx, cond := range r.Conditions.All {
		cpath := fmt.Sprintf("%s.conditions.all[%d]", path, cidx)
		validateCondition(cond, cpath, errs)
	}

	validateAction(r.Action, path, errs)

	if !allowedSuppressionModes[r.Suppression.Mode] {
		errs[path+".suppression.mode"] = fmt.Errorf("must be one of %s", joinKeys(allowedSuppressionModes))
	}
}

func validateCondition(c Condition, path string, errs validation.Errors) {
	switch {
	case c.FieldSet && c.PriorEventSet:
		errs[path] = fmt.Errorf("must contain only one of 'field' or 'prior_event'")
	case c.FieldSet:
		fc := c.Field
		if fc == nil || strings.TrimSpace(fc.Field) == "" {
			errs[path+".field"] = fmt.Errorf("required non-empty string")
		} else if !hasAllowedPrefix(fc.Field) {
			errs[path+".field"] = fmt.Errorf("must start with one of %v", allowedFieldPrefixes)
		}
		if fc == nil || !allowedOperators[fc.Operator] {
			errs[path+".operator"] = fmt.Errorf("must be one of %s", joinKeys(allowedOperators))
		}
		if fc == nil || fc.Value == nil {
			errs[path+".value"] = fmt.Errorf("required")
		}
	case c.PriorEventSet:
		pe := c.PriorEvent
		if pe == nil || strings.TrimSpace(pe.EventType) == "" {
			errs[path+".prior_event.event_type"] = fmt.Errorf("required non-empty string")
		}
		if pe == nil || pe.Hours <= 0 {
			errs[path+".prior_event.hours"] = fmt.Errorf("required positive int")
		}
	default:
		errs[path] = fmt.Errorf("must contain 'field' or 'prior_event'")
	}
}

func validateAction(a Action, rulePath string, errs validation.Errors) {
	if !allowedActionTypes[a.Type] {
		errs[rulePath+".action.type"] = fmt.Errorf("must be one of %s", joinKeys(allowedActionTypes))
	}
	if strings.TrimSpace(a.TemplateName) == "" {
		errs[rulePath+".action.template_name"] = fmt.Errorf("required non-empty string")
	}
	if !allowedDeliveryMethods[a.DeliveryMethod] {
		errs[rulePath+".action.delivery_method"] = fmt.Errorf("must be one of %s", joinKeys(allowedDeliveryMethods))
	}
	if a.Type == "alert" && a.DeliveryMethod != "internal" {
		errs[rulePath+".action.delivery_method"] = fmt.Errorf("must be 'internal' when action.type is 'alert'")
	}
}

func hasAllowedPrefix(field string) bool {
	for _, prefix := range allowedFieldPrefixes {
		if strings.HasPrefix(field, prefix) {
			return true
		}
	}
	return false
}

func joinKeys(set map[string]bool) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}
