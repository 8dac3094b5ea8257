// Package protocol defines the structures and constants for the Model Context Protocol (MCP).
package protocol

import (
	"encoding/json"
	"fmt"
	"log"
)

// --- Initialization Sequence Structures ---

// Implementation describes the name and version of an MCP implementation (client or server).
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities describes features the client supports.
type ClientCapabilities struct {
	Experimental map[string]interface{} `json:"experimental,omitempty"`
}

// ServerCapabilities describes features the server supports.
type ServerCapabilities struct {
	Experimental map[string]interface{} `json:"experimental,omitempty"`
	Logging      *struct{}              `json:"logging,omitempty"`
	Completions  *struct{}              `json:"completions,omitempty"`
	Prompts      *struct {
		ListChanged bool `json:"listChanged,omitempty"`
	} `json:"prompts,omitempty"`
	Resources *struct {
		Subscribe   bool `json:"subscribe,omitempty"`
		ListChanged bool `json:"listChanged,omitempty"`
	} `json:"resources,omitempty"`
	Tools *struct {
		ListChanged bool `json:"listChanged,omitempty"`
	} `json:"tools,omitempty"`
	Tasks *TasksCapability `json:"tasks,omitempty"`
}

// TasksCapability advertises support for the Tasks extension.
type TasksCapability struct {
	Cancel bool `json:"cancel,omitempty"`
	List   bool `json:"list,omitempty"`
}

// InitializeRequestParams defines the parameters for the 'initialize' request.
type InitializeRequestParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult defines the result payload for a successful 'initialize' response.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// --- Content Structures ---

// Content defines the interface for different types of content in results/prompts.
type Content interface {
	GetType() string
}

// ContentAnnotations defines optional metadata for content parts.
type ContentAnnotations struct {
	Title    *string  `json:"title,omitempty"`
	Audience []string `json:"audience,omitempty"`
	Priority *float64 `json:"priority,omitempty"`
}

// TextContent represents textual content.
type TextContent struct {
	Type        string              `json:"type"`
	Text        string              `json:"text"`
	Annotations *ContentAnnotations `json:"annotations,omitempty"`
}

func (tc TextContent) GetType() string { return tc.Type }

// ImageContent represents image content.
type ImageContent struct {
	Type        string              `json:"type"`
	Data        string              `json:"data"`
	MediaType   string              `json:"mediaType"`
	Annotations *ContentAnnotations `json:"annotations,omitempty"`
}

func (ic ImageContent) GetType() string { return ic.Type }

// EmbeddedResourceContent represents an embedded resource returned inline in a result.
type EmbeddedResourceContent struct {
	Type        string              `json:"type"`
	Resource    Resource            `json:"resource"`
	Annotations *ContentAnnotations `json:"annotations,omitempty"`
}

func (erc EmbeddedResourceContent) GetType() string { return erc.Type }

// UnmarshalContentSlice decodes a raw JSON array of polymorphic Content values,
// dispatching on the "type" discriminator field. Unknown types are skipped with
// a warning rather than failing the whole decode, matching client leniency.
func UnmarshalContentSlice(raws []json.RawMessage) ([]Content, error) {
	out := make([]Content, 0, len(raws))
	for _, raw := range raws {
		var typeDetect struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &typeDetect); err != nil {
			return nil, fmt.Errorf("failed to detect content type: %w", err)
		}
		var actual Content
		switch typeDetect.Type {
		case "text":
			var tc TextContent
			if err := json.Unmarshal(raw, &tc); err != nil {
				return nil, fmt.Errorf("failed to unmarshal TextContent: %w", err)
			}
			actual = tc
		case "image":
			var ic ImageContent
			if err := json.Unmarshal(raw, &ic); err != nil {
				return nil, fmt.Errorf("failed to unmarshal ImageContent: %w", err)
			}
			actual = ic
		case "resource":
			var erc EmbeddedResourceContent
			if err := json.Unmarshal(raw, &erc); err != nil {
				return nil, fmt.Errorf("failed to unmarshal EmbeddedResourceContent: %w", err)
			}
			actual = erc
		default:
			log.Printf("protocol: skipping content part with unknown type %q", typeDetect.Type)
			continue
		}
		out = append(out, actual)
	}
	return out, nil
}

// --- Logging Structures ---

// LoggingLevel is one of the five levels the Logging Level Cell gates on.
type LoggingLevel string

const (
	LogLevelError LoggingLevel = "error"
	LogLevelWarn  LoggingLevel = "warn"
	LogLevelInfo  LoggingLevel = "info"
	LogLevelDebug LoggingLevel = "debug"
	LogLevelTrace LoggingLevel = "trace"
)

// SetLevelRequestParams defines parameters for 'logging/setLevel'.
type SetLevelRequestParams struct {
	Level LoggingLevel `json:"level"`
}

// LoggingMessageParams defines parameters for 'notifications/message'.
type LoggingMessageParams struct {
	Level   LoggingLevel `json:"level"`
	Logger  string       `json:"logger,omitempty"`
	Data    interface{}  `json:"data"`
}

// --- Cancellation and Progress Structures ---

// CancelledParams defines the parameters for the 'notifications/cancelled' notification.
type CancelledParams struct {
	RequestID interface{} `json:"requestId"`
	Reason    string      `json:"reason,omitempty"`
}

// ProgressParams defines the parameters for the 'notifications/progress' notification.
type ProgressParams struct {
	ProgressToken ProgressToken `json:"progressToken"`
	Progress      float64       `json:"progress"`
	Total         *float64      `json:"total,omitempty"`
	Message       *string       `json:"message,omitempty"`
}

// ProgressToken is an identifier for reporting progress on a long-running request.
type ProgressToken string

// RequestMeta contains metadata associated with a request, like a progress token.
type RequestMeta struct {
	ProgressToken *ProgressToken `json:"progressToken,omitempty"`
}

// --- List Changed Notification Structures ---

type ToolsListChangedParams struct{}
type ResourcesListChangedParams struct{}
type PromptsListChangedParams struct{}
