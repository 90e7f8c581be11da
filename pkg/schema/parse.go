package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// ParseDefinitions decodes a fetched form-definition list from JSON or YAML.
// Field kinds outside the known set are preserved untouched; they simply never
// render. Labels pass through the sanitizer since definitions arrive from a
// server the portal does not control.
func ParseDefinitions(raw []byte) ([]FormDefinition, error) {
	if len(raw) == 0 {
		return nil, errors.New("schema: raw definition payload is empty")
	}

	var defs []FormDefinition
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		if strings.HasPrefix(trimmed, "{") {
			var single FormDefinition
			if err := json.Unmarshal(raw, &single); err != nil {
				return nil, fmt.Errorf("schema: parse definition: %w", err)
			}
			defs = []FormDefinition{single}
		} else if err := json.Unmarshal(raw, &defs); err != nil {
			return nil, fmt.Errorf("schema: parse definitions: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(raw, &defs); err != nil {
			var single FormDefinition
			if yaml.Unmarshal(raw, &single) != nil {
				return nil, fmt.Errorf("schema: parse definitions: %w", err)
			}
			defs = []FormDefinition{single}
		}
	}

	for i := range defs {
		if err := normalizeDefinition(&defs[i]); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

func normalizeDefinition(def *FormDefinition) error {
	if def == nil {
		return errors.New("schema: definition is nil")
	}
	if err := validate.Struct(def); err != nil {
		return fmt.Errorf("schema: definition %q invalid: %w", def.FormID, err)
	}

	seen := make(map[string]struct{}, len(def.Fields))
	for i := range def.Fields {
		item := &def.Fields[i]
		if err := registerFieldID(seen, def.FormID, item.ID); err != nil {
			return err
		}
		item.Label = SanitizeLabel(item.Label)

		if !item.IsGroup() {
			continue
		}
		for j := range item.Fields {
			member := &item.Fields[j]
			if member.IsGroup() {
				return fmt.Errorf("schema: definition %q: group %q nests group %q", def.FormID, item.ID, member.ID)
			}
			if err := registerFieldID(seen, def.FormID, member.ID); err != nil {
				return err
			}
			member.Label = SanitizeLabel(member.Label)
		}
	}
	return nil
}

func registerFieldID(seen map[string]struct{}, formID, fieldID string) error {
	if fieldID == "" {
		return fmt.Errorf("schema: definition %q has a field without an id", formID)
	}
	if _, dup := seen[fieldID]; dup {
		return fmt.Errorf("schema: definition %q duplicates field id %q", formID, fieldID)
	}
	seen[fieldID] = struct{}{}
	return nil
}
