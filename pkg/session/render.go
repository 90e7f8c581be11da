package session

import (
	"github.com/goliatone/go-formportal/pkg/schema"
	"github.com/goliatone/go-formportal/pkg/visibility"
)

// RenderItem is one entry of the visible projection handed to presentation
// collaborators. Visibility is derived on every call, never cached, so the
// projection can not drift from the answer set.
type RenderItem struct {
	Field   schema.Field
	Options []string
	Members []RenderItem
	Errors  []string
}

// Render returns the ordered visible projection of the active form: top-level
// simple fields and groups with at least one visible member. Groups with zero
// visible members are omitted entirely. Fields whose option list depends on
// another field stay hidden until that trigger holds a value.
func (s *Session) Render() []RenderItem {
	s.mu.Lock()
	if s.order == nil {
		s.mu.Unlock()
		return nil
	}
	items := s.order.Items()
	values := copyAnswers(s.answers)
	errs := make(map[string][]string, len(s.fieldErrors))
	for id, msgs := range s.fieldErrors {
		errs[id] = append([]string(nil), msgs...)
	}
	s.mu.Unlock()

	ctx := visibility.Context{Values: values}
	out := make([]RenderItem, 0, len(items))
	for _, item := range items {
		if !item.Renderable() {
			continue
		}
		if item.IsGroup() {
			members := s.renderMembers(item, ctx, errs)
			if len(members) == 0 {
				continue
			}
			out = append(out, RenderItem{Field: item, Members: members})
			continue
		}
		if !s.fieldVisible(item, ctx) {
			continue
		}
		out = append(out, s.renderField(item, errs))
	}
	return out
}

func (s *Session) renderMembers(group schema.Field, ctx visibility.Context, errs map[string][]string) []RenderItem {
	var out []RenderItem
	for _, member := range group.Fields {
		if !member.Renderable() || member.IsGroup() {
			continue
		}
		if !s.fieldVisible(member, ctx) {
			continue
		}
		out = append(out, s.renderField(member, errs))
	}
	return out
}

func (s *Session) renderField(field schema.Field, errs map[string][]string) RenderItem {
	return RenderItem{
		Field:   field,
		Options: s.optionsFor(field),
		Errors:  errs[field.ID],
	}
}

// fieldVisible combines the declarative visibility rule with dynamic-option
// gating: a field whose choices depend on another field is not shown until
// its trigger has a value, since it could only render an empty select.
func (s *Session) fieldVisible(field schema.Field, ctx visibility.Context) bool {
	if !s.evaluator.Visible(field, ctx) {
		return false
	}
	if field.HasDynamicOptions() {
		if triggerEmpty(ctx.Values[field.DynamicOptions.DependsOn]) {
			return false
		}
	}
	return true
}

func (s *Session) optionsFor(field schema.Field) []string {
	if field.HasDynamicOptions() {
		return s.resolver.Options(field.ID)
	}
	return append([]string(nil), field.Options...)
}
