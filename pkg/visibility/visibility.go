// Package visibility evaluates per-field conditional visibility as a pure
// projection over the current answer set. Results are recomputed on every
// read; nothing here caches.
package visibility

import (
	"github.com/goliatone/go-formportal/pkg/schema"
)

// Context provides the inputs for a visibility decision. Values is the live
// answer set keyed by field id.
type Context struct {
	Values map[string]any
}

// Evaluator decides whether a field should be visible given the current
// context. The session accepts custom evaluators for callers that need to
// layer extra rules on top of the declarative specs.
type Evaluator interface {
	Visible(field schema.Field, ctx Context) bool
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(field schema.Field, ctx Context) bool

// Visible delegates to the underlying function.
func (fn EvaluatorFunc) Visible(field schema.Field, ctx Context) bool {
	return fn(field, ctx)
}

// Default returns the spec-driven evaluator used when no override is given.
func Default() Evaluator {
	return EvaluatorFunc(ShouldShow)
}

// ShouldShow applies the field's VisibilitySpec against the answer set.
// Fields without a spec are always visible. Comparisons are strict string
// equality: an answer of a non-string type never equals the configured value.
// Unknown conditions fail open.
func ShouldShow(field schema.Field, ctx Context) bool {
	spec := field.Visibility
	if spec == nil {
		return true
	}

	current, ok := ctx.Values[spec.DependsOn]
	matches := false
	if ok {
		if s, isString := current.(string); isString {
			matches = s == spec.Value
		}
	}

	switch spec.Condition {
	case schema.VisibilityEquals:
		return matches
	case schema.VisibilityNotEquals:
		return !matches
	default:
		return true
	}
}

// GroupVisible reports whether a group renders at all: true iff at least one
// renderable member is individually visible. A group with zero visible
// members renders nothing, not an empty shell.
func GroupVisible(group schema.Field, ctx Context) bool {
	return len(VisibleMembers(group, ctx)) > 0
}

// VisibleMembers returns the group members that should render, preserving the
// group's fixed internal order. Invisible members inside a visible group are
// individually suppressed.
func VisibleMembers(group schema.Field, ctx Context) []schema.Field {
	if !group.IsGroup() {
		return nil
	}
	var out []schema.Field
	for _, member := range group.Fields {
		if !member.Renderable() {
			continue
		}
		if ShouldShow(member, ctx) {
			out = append(out, member)
		}
	}
	return out
}
