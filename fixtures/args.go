// Package fixtures provides the tool, resource, prompt, and completion data
// this server exists to exercise. None of it is production functionality —
// each fixture is a small, deterministic stand-in a client-library test
// suite can call against.
package fixtures

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// decodeArgs unmarshals raw tools/call arguments into a typed struct, matching
// field names case-insensitively the way a reflective registry wrapper would decode
// handler arguments.
func decodeArgs(raw json.RawMessage, out interface{}) error {
	var generic map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &generic); err != nil {
			return fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(generic)
}
