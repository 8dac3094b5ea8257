// Package protocol defines the structures and constants for the Model Context Protocol (MCP).
package protocol

import (
	"encoding/json"
	"fmt"
)

// PromptArgument defines an input parameter for a prompt template.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptMessage represents a single message within a prompt sequence.
type PromptMessage struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

// UnmarshalJSON decodes the polymorphic Content slice of a PromptMessage.
func (pm *PromptMessage) UnmarshalJSON(data []byte) error {
	aux := &struct {
		Role    string            `json:"role"`
		Content []json.RawMessage `json:"content"`
	}{}
	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("failed to unmarshal PromptMessage: %w", err)
	}
	pm.Role = aux.Role
	content, err := UnmarshalContentSlice(aux.Content)
	if err != nil {
		return fmt.Errorf("failed to unmarshal PromptMessage content: %w", err)
	}
	pm.Content = content
	return nil
}

// Prompt represents a prompt template available from the server, identified
// by name (resolved via prompts/get), not by URI.
type Prompt struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// ListPromptsRequestParams defines parameters for 'prompts/list'.
type ListPromptsRequestParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListPromptsResult defines the result for 'prompts/list'.
type ListPromptsResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// GetPromptRequestParams defines parameters for 'prompts/get'.
type GetPromptRequestParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// GetPromptResult defines the result for 'prompts/get'.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}
