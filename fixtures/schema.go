package fixtures

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// mustSchema marshals a jsonschema.Schema literal to the raw JSON Schema
// document protocol.Tool.InputSchema expects. Fixture schemas are fixed at
// init time, so a marshal failure here is a programmer error, not a runtime
// condition to recover from.
func mustSchema(s *jsonschema.Schema) json.RawMessage {
	data, err := json.Marshal(s)
	if err != nil {
		panic("fixtures: invalid schema literal: " + err.Error())
	}
	return data
}

func numberSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: description}
}

func stringSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func integerSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description}
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
