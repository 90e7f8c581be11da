package session

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/pkg/schema"
	"github.com/goliatone/go-formportal/pkg/visibility"
)

// validate checks every candidate field (group members flattened alongside
// top-level simple fields) that is currently visible. Required fields must
// hold a non-empty value; populated values are additionally checked against
// their declared constraints.
func (s *Session) validate(def schema.FormDefinition, answers map[string]any) map[string][]string {
	ctx := visibility.Context{Values: answers}
	failures := make(map[string][]string)

	for _, field := range def.Flatten() {
		if !field.Renderable() || field.IsGroup() {
			continue
		}
		if !s.fieldVisible(field, ctx) {
			continue
		}

		value, present := answers[field.ID]
		empty := !present || emptyValue(value)

		if field.Required && empty {
			failures[field.ID] = append(failures[field.ID], "value is required")
			continue
		}
		if empty {
			continue
		}
		for _, msg := range s.constraintFailures(field, value) {
			failures[field.ID] = append(failures[field.ID], msg)
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return failures
}

func (s *Session) constraintFailures(field schema.Field, value any) []string {
	spec := field.Validation
	if spec == nil {
		return nil
	}

	var out []string
	switch field.Kind {
	case schema.FieldKindNumber:
		num, ok := numberValue(value)
		if !ok {
			out = append(out, "value must be a number")
			break
		}
		if spec.Min != nil && num < *spec.Min {
			out = append(out, fmt.Sprintf("value must be at least %v", *spec.Min))
		}
		if spec.Max != nil && num > *spec.Max {
			out = append(out, fmt.Sprintf("value must be at most %v", *spec.Max))
		}
	case schema.FieldKindText:
		if spec.Pattern == "" {
			break
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			// A broken pattern in a fetched definition must not make the
			// field unsubmittable.
			s.log.Warn("invalid validation pattern",
				zap.String("field", field.ID),
				zap.String("pattern", spec.Pattern),
				zap.Error(err))
			break
		}
		if str, ok := value.(string); ok && !re.MatchString(str) {
			out = append(out, "value does not match the expected format")
		}
	}
	return out
}

func emptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func triggerEmpty(value any) bool {
	return emptyValue(value)
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
