package schema

// FieldKind enumerates the closed set of input kinds a form definition may
// declare. Unrecognized kinds survive parsing but are never rendered.
type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindNumber   FieldKind = "number"
	FieldKindDate     FieldKind = "date"
	FieldKindSelect   FieldKind = "select"
	FieldKindRadio    FieldKind = "radio"
	FieldKindCheckbox FieldKind = "checkbox"
	FieldKindGroup    FieldKind = "group"
)

// VisibilityCondition names the comparison applied by a VisibilitySpec.
type VisibilityCondition string

const (
	VisibilityEquals    VisibilityCondition = "equals"
	VisibilityNotEquals VisibilityCondition = "not_equals"
)

// VisibilitySpec declares that a field is shown conditionally on the current
// value of another field. DependsOn may reference an id that is absent from
// the form; evaluators treat the dependency value as undefined in that case.
type VisibilitySpec struct {
	DependsOn string              `json:"dependsOn" yaml:"dependsOn"`
	Condition VisibilityCondition `json:"condition" yaml:"condition"`
	Value     string              `json:"value" yaml:"value"`
}

// DynamicOptionsSpec declares that a field's option list is fetched from
// Endpoint whenever the value of DependsOn changes.
type DynamicOptionsSpec struct {
	DependsOn string `json:"dependsOn" yaml:"dependsOn" validate:"required"`
	Endpoint  string `json:"endpoint" yaml:"endpoint" validate:"required"`
	Method    string `json:"method,omitempty" yaml:"method,omitempty"`
}

// ValidationSpec carries the optional per-field constraints. Min and Max apply
// to number fields, Pattern to text fields.
type ValidationSpec struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Field models one item of a form definition. The Kind tag discriminates the
// union: group fields populate Fields (depth-1 only, members are never groups)
// while simple fields use the remaining attributes.
type Field struct {
	ID             string              `json:"id" yaml:"id" validate:"required"`
	Label          string              `json:"label" yaml:"label"`
	Kind           FieldKind           `json:"kind" yaml:"kind"`
	Required       bool                `json:"required,omitempty" yaml:"required,omitempty"`
	Options        []string            `json:"options,omitempty" yaml:"options,omitempty"`
	DynamicOptions *DynamicOptionsSpec `json:"dynamicOptions,omitempty" yaml:"dynamicOptions,omitempty"`
	Visibility     *VisibilitySpec     `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Validation     *ValidationSpec     `json:"validation,omitempty" yaml:"validation,omitempty"`
	Fields         []Field             `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// IsGroup reports whether the field is the group variant of the union.
func (f Field) IsGroup() bool {
	return f.Kind == FieldKindGroup
}

// Renderable reports whether the field kind belongs to the closed set the
// portal knows how to render. Unknown kinds render nothing rather than
// failing the whole form.
func (f Field) Renderable() bool {
	switch f.Kind {
	case FieldKindText, FieldKindNumber, FieldKindDate,
		FieldKindSelect, FieldKindRadio, FieldKindCheckbox, FieldKindGroup:
		return true
	default:
		return false
	}
}

// HasDynamicOptions reports whether the field sources its option list from a
// dependency-triggered lookup.
func (f Field) HasDynamicOptions() bool {
	return f.DynamicOptions != nil && f.DynamicOptions.DependsOn != ""
}

// FormDefinition is the declarative description of one application form.
// Immutable once parsed except for the order of Fields, which the order
// controller may permute.
type FormDefinition struct {
	FormID string  `json:"formId" yaml:"formId" validate:"required"`
	Title  string  `json:"title" yaml:"title" validate:"required"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Flatten returns top-level simple fields plus the members of every group, in
// display order. Groups themselves are not included.
func (d FormDefinition) Flatten() []Field {
	out := make([]Field, 0, len(d.Fields))
	for _, item := range d.Fields {
		if item.IsGroup() {
			out = append(out, item.Fields...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// FieldByID looks a field up by id across top-level items and group members.
func (d FormDefinition) FieldByID(id string) (Field, bool) {
	for _, item := range d.Fields {
		if item.ID == id {
			return item, true
		}
		if item.IsGroup() {
			for _, member := range item.Fields {
				if member.ID == id {
					return member, true
				}
			}
		}
	}
	return Field{}, false
}

// DependentsOf returns every field whose dynamic options depend on the given
// trigger field id, in display order.
func (d FormDefinition) DependentsOf(triggerID string) []Field {
	if triggerID == "" {
		return nil
	}
	var out []Field
	for _, field := range d.Flatten() {
		if field.HasDynamicOptions() && field.DynamicOptions.DependsOn == triggerID {
			out = append(out, field)
		}
	}
	return out
}
