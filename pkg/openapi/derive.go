// Package openapi derives form definitions from an OpenAPI document so a
// deployment can reuse an existing API contract as a form source. Each POST
// operation with a JSON object request body becomes one form: top level
// properties map to simple fields, depth-1 object properties map to groups,
// and enumerations map to select options.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formportal/pkg/schema"
)

// Options controls document loading and derivation.
type Options struct {
	// ResolveReferences validates the document and resolves $ref targets
	// before derivation.
	ResolveReferences bool
}

// DeriveForms extracts form definitions from a raw OpenAPI document.
func DeriveForms(ctx context.Context, raw []byte, opts Options) ([]schema.FormDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: opts.ResolveReferences,
	}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if opts.ResolveReferences {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}

	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}

	var forms []schema.FormDefinition
	for path, item := range doc.Paths.Map() {
		if item == nil || item.Post == nil {
			continue
		}
		form, ok := deriveForm(path, item.Post)
		if !ok {
			continue
		}
		forms = append(forms, form)
	}
	if len(forms) == 0 {
		return nil, errors.New("openapi: no operations with object request bodies")
	}

	sort.Slice(forms, func(i, j int) bool { return forms[i].FormID < forms[j].FormID })
	return forms, nil
}

func deriveForm(path string, op *openapi3.Operation) (schema.FormDefinition, bool) {
	body := requestBodySchema(op.RequestBody)
	if body == nil || schemaType(body.Type) != "object" || len(body.Properties) == 0 {
		return schema.FormDefinition{}, false
	}

	formID := op.OperationID
	if formID == "" {
		formID = "post:" + path
	}
	title := op.Summary
	if title == "" {
		title = body.Title
	}
	if title == "" {
		title = formID
	}

	return schema.FormDefinition{
		FormID: formID,
		Title:  schema.SanitizeLabel(title),
		Fields: deriveFields(body, true),
	}, true
}

func requestBodySchema(ref *openapi3.RequestBodyRef) *openapi3.Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	mt, ok := ref.Value.Content["application/json"]
	if !ok || mt.Schema == nil {
		return nil
	}
	return mt.Schema.Value
}

// deriveFields maps object properties to fields in name order so derivation
// is deterministic. Nested objects become groups only at the top level.
func deriveFields(src *openapi3.Schema, allowGroups bool) []schema.Field {
	names := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	required := make(map[string]bool, len(src.Required))
	for _, name := range src.Required {
		required[name] = true
	}

	fields := make([]schema.Field, 0, len(names))
	for _, name := range names {
		ref := src.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value

		if schemaType(prop.Type) == "object" {
			if !allowGroups || len(prop.Properties) == 0 {
				continue
			}
			fields = append(fields, schema.Field{
				ID:     name,
				Label:  fieldLabel(name, prop),
				Kind:   schema.FieldKindGroup,
				Fields: deriveFields(prop, false),
			})
			continue
		}

		field, ok := deriveSimpleField(name, prop)
		if !ok {
			continue
		}
		field.Required = required[name]
		fields = append(fields, field)
	}
	return fields
}

func deriveSimpleField(name string, prop *openapi3.Schema) (schema.Field, bool) {
	field := schema.Field{
		ID:    name,
		Label: fieldLabel(name, prop),
	}

	switch schemaType(prop.Type) {
	case "string":
		field.Kind = schema.FieldKindText
		if prop.Format == "date" || prop.Format == "date-time" {
			field.Kind = schema.FieldKindDate
		}
		if prop.Pattern != "" {
			field.Validation = &schema.ValidationSpec{Pattern: prop.Pattern}
		}
	case "number", "integer":
		field.Kind = schema.FieldKindNumber
		if prop.Min != nil || prop.Max != nil {
			field.Validation = &schema.ValidationSpec{Min: prop.Min, Max: prop.Max}
		}
	case "boolean":
		field.Kind = schema.FieldKindCheckbox
	default:
		return schema.Field{}, false
	}

	if len(prop.Enum) > 0 {
		field.Kind = schema.FieldKindSelect
		field.Options = enumOptions(prop.Enum)
	}
	return field, true
}

func enumOptions(enum []any) []string {
	options := make([]string, 0, len(enum))
	for _, value := range enum {
		if s, ok := value.(string); ok && s != "" {
			options = append(options, s)
		}
	}
	return options
}

func fieldLabel(name string, prop *openapi3.Schema) string {
	if prop.Title != "" {
		return schema.SanitizeLabel(prop.Title)
	}
	return labelFromName(name)
}

func labelFromName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func schemaType(types *openapi3.Types) string {
	if types == nil || len(*types) == 0 {
		return ""
	}
	return (*types)[0]
}
