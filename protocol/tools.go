// Package protocol defines the structures and constants for the Model Context Protocol (MCP).
package protocol

import "encoding/json"

// Tool describes a named, schema-typed callable exposed via tools/call.
// InputSchema is a raw JSON Schema document rather than a hand-rolled subset,
// so fixtures can declare arbitrarily rich schemas validated by
// google/jsonschema-go at call time.
type Tool struct {
	Name        string          `json:"name"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ListToolsRequestParams defines the parameters for a 'tools/list' request.
type ListToolsRequestParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListToolsResult defines the result payload for a successful 'tools/list' response.
type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// CallToolParams defines the parameters for a 'tools/call' request.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Meta      *RequestMeta    `json:"_meta,omitempty"`
}

// CallToolResult defines the result payload for a 'tools/call' response.
// A domain failure from the tool itself (division by zero, a deliberately
// failing fixture, ...) is reported here with IsError=true; it is still a
// successful JSON-RPC response, never an ErrorPayload.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// UnmarshalJSON decodes the polymorphic Content slice via UnmarshalContentSlice.
func (r *CallToolResult) UnmarshalJSON(data []byte) error {
	var aux struct {
		Content []json.RawMessage `json:"content"`
		IsError bool              `json:"isError"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	content, err := UnmarshalContentSlice(aux.Content)
	if err != nil {
		return err
	}
	r.Content, r.IsError = content, aux.IsError
	return nil
}
