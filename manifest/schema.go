package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/5g-empower/empower-core/errors"
)

// JSONSchema exports the manifest parameter declarations as a JSON
// schema document. Used by the REST surface to reject malformed create
// payloads before the typed validation in Validate runs.
func (m Manifest) JSONSchema() map[string]any {
	properties := make(map[string]any, len(m.Params))
	var required []string

	for name, spec := range m.Params {
		properties[name] = spec.jsonSchema()
		if spec.Mandatory && spec.Default == nil {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if m.Label != "" {
		schema["description"] = m.Label
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (spec ParamSpec) jsonSchema() map[string]any {
	prop := map[string]any{}
	if spec.Description != "" {
		prop["description"] = spec.Description
	}
	if spec.Default != nil {
		prop["default"] = spec.Default
	}

	if len(spec.Enum) > 0 {
		prop["enum"] = spec.Enum
		return prop
	}

	switch spec.Type {
	case TypeInt:
		// numeric parameters also arrive as decimal strings over REST
		prop["type"] = []string{"integer", "string"}
	default:
		prop["type"] = "string"
	}
	return prop
}

// ValidateDocument checks a raw JSON parameter document against the
// manifest schema. Schema violations surface as InvalidParameterValue
// naming the offending fields.
func (m Manifest) ValidateDocument(raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(m.JSONSchema()),
		gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.WrapValidation(
			fmt.Errorf("%w: %v", errors.ErrInvalidParameterValue, err),
			"Manifest", "ValidateDocument", "schema evaluation")
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return errors.WrapValidation(
		fmt.Errorf("%w: %s", errors.ErrInvalidParameterValue, strings.Join(details, "; ")),
		"Manifest", "ValidateDocument", "schema validation")
}
