// Package schema defines the typed representation of a form definition:
// fields, depth-1 groups, validation constraints, conditional visibility, and
// dynamic-option bindings. Definitions are fetched at runtime and parsed from
// JSON or YAML.
package schema
