// Package protocol defines the structures and constants for the Model Context Protocol (MCP).
package protocol

// CurrentProtocolVersion is the protocol revision implemented by this server,
// including the Apps and Tasks extensions.
const CurrentProtocolVersion = "2025-11-25"

// OldProtocolVersion is the prior revision the server still negotiates down to
// for clients that request it during initialize.
const OldProtocolVersion = "2025-03-26"

// Standard JSON-RPC 2.0 error codes.
const (
	ErrorCodeParseError     = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603
)

// MCP-specific error codes, in the reserved -32000..-32099 range.
const (
	ErrorCodeMCPUnsupportedProtocolVersion = -32000
	ErrorCodeMCPAuthenticationFailed       = -32001
	ErrorCodeMCPToolNotFound               = -32002
	ErrorCodeMCPToolExecutionError         = -32003
	ErrorCodeMCPResourceNotFound           = -32004
	ErrorCodeMCPPromptNotFound             = -32005
	ErrorCodeMCPInvalidCursor              = -32006
	ErrorCodeMCPTaskNotFound               = -32007
	ErrorCodeMCPTaskNotCancellable         = -32008
)

// Request methods (client -> server).
const (
	MethodInitialize             = "initialize"
	MethodPing                   = "ping"
	MethodListTools              = "tools/list"
	MethodCallTool               = "tools/call"
	MethodListResources          = "resources/list"
	MethodReadResource           = "resources/read"
	MethodSubscribeResource      = "resources/subscribe"
	MethodUnsubscribeResource    = "resources/unsubscribe"
	MethodResourcesListTemplates = "resources/templates/list"
	MethodListPrompts            = "prompts/list"
	MethodGetPrompt              = "prompts/get"
	MethodLoggingSetLevel        = "logging/setLevel"
	MethodCompletionComplete     = "completion/complete"
	MethodTasksCreate            = "tasks/create"
	MethodTasksGet               = "tasks/get"
	MethodTasksCancel            = "tasks/cancel"
	MethodTasksDelete            = "tasks/delete"
	MethodTasksList              = "tasks/list"
)

// Notification methods.
const (
	MethodInitialized                = "notifications/initialized"
	MethodCancelled                  = "notifications/cancelled"
	MethodProgress                   = "notifications/progress"
	MethodNotificationMessage        = "notifications/message"
	MethodNotifyResourcesListChanged = "notifications/resources/list_changed"
	MethodNotifyResourceUpdated      = "notifications/resources/updated"
	MethodNotifyPromptsListChanged   = "notifications/prompts/list_changed"
	MethodNotifyToolsListChanged     = "notifications/tools/list_changed"
	MethodNotifyTasksStatus          = "notifications/tasks/statusChanged"
)
