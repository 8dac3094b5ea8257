// Package server provides the MCP server implementation.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/localrivet/wilduri"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/types"
)

// ToolHandlerFunc defines the signature for functions that handle tool execution.
type ToolHandlerFunc func(ctx context.Context, progressToken *protocol.ProgressToken, arguments json.RawMessage) (content []protocol.Content, isError bool)

// ResourceHandlerFunc produces the contents of a resource read. params holds
// any variables extracted from a matching resource template's URI pattern;
// it is empty for a direct (non-templated) resource.
type ResourceHandlerFunc func(ctx context.Context, uri string, params map[string]string) (protocol.ResourceContents, error)

// PromptHandlerFunc renders a prompt's messages given the caller-supplied arguments.
type PromptHandlerFunc func(ctx context.Context, arguments map[string]interface{}) (protocol.GetPromptResult, error)

// NotificationHandlerFunc defines the signature for functions that handle client-to-server notifications.
type NotificationHandlerFunc func(ctx context.Context, params interface{}) error

// Server represents the core MCP server logic, independent of transport.
type Server struct {
	serverName         string
	logger             types.Logger
	serverInstructions string

	// Registries. Each catalog carries an order slice alongside its map so that
	// tools/list, resources/list, and prompts/list paginate over a stable
	// sequence instead of Go's unspecified map iteration order — otherwise a
	// cursor obtained from one call could misalign with the next once a
	// catalog exceeds one page.
	toolRegistry      map[string]protocol.Tool
	toolSchemas       map[string]*jsonschema.Resolved
	toolHandlers      map[string]ToolHandlerFunc
	toolOrder         []string
	resourceRegistry  map[string]protocol.Resource
	resourceHandlers  map[string]ResourceHandlerFunc
	resourceOrder     []string
	templateRegistry  map[string]protocol.ResourceTemplate
	templateMatchers  map[string]*wilduri.Template
	templateHandlers  map[string]ResourceHandlerFunc
	templateOrder     []string
	promptRegistry    map[string]protocol.Prompt
	promptHandlers    map[string]PromptHandlerFunc
	promptOrder       []string
	registryMu        sync.RWMutex

	// Server capabilities
	serverCapabilities protocol.ServerCapabilities

	// Request/Notification Handling
	activeRequests       map[string]context.CancelFunc
	requestMu            sync.Mutex
	notificationHandlers map[string]NotificationHandlerFunc
	notificationMu       sync.RWMutex

	// Session Management
	sessions sync.Map

	// Resource Subscriptions, managed by the subscription bus.
	subscriptions *SubscriptionManager

	// Task Registry (Tasks extension).
	tasks *TaskRegistry

	// Completion resolver (completion/complete).
	completer *Completer

	logLevel *LogLevelCell
}

// ServerOption defines a function signature for configuring a Server.
type ServerOption func(*Server)

// WithLogger provides an option to set a custom logger.
func WithLogger(logger types.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServerCapabilities provides an option to set the server's capabilities. Replaces all
// existing capabilities.
func WithServerCapabilities(caps protocol.ServerCapabilities) ServerOption {
	return func(s *Server) {
		s.serverCapabilities = caps
	}
}

// WithResourceCapabilities sets specific resource-related capabilities.
func WithResourceCapabilities(subscribe, listChanged bool) ServerOption {
	return func(s *Server) {
		if s.serverCapabilities.Resources == nil {
			s.serverCapabilities.Resources = &struct {
				Subscribe   bool `json:"subscribe,omitempty"`
				ListChanged bool `json:"listChanged,omitempty"`
			}{}
		}
		s.serverCapabilities.Resources.Subscribe = subscribe
		s.serverCapabilities.Resources.ListChanged = listChanged
	}
}

// WithPromptCapabilities sets specific prompt-related capabilities.
func WithPromptCapabilities(listChanged bool) ServerOption {
	return func(s *Server) {
		if s.serverCapabilities.Prompts == nil {
			s.serverCapabilities.Prompts = &struct {
				ListChanged bool `json:"listChanged,omitempty"`
			}{}
		}
		s.serverCapabilities.Prompts.ListChanged = listChanged
	}
}

// WithToolCapabilities sets specific tool-related capabilities.
func WithToolCapabilities(listChanged bool) ServerOption {
	return func(s *Server) {
		if s.serverCapabilities.Tools == nil {
			s.serverCapabilities.Tools = &struct {
				ListChanged bool `json:"listChanged,omitempty"`
			}{}
		}
		s.serverCapabilities.Tools.ListChanged = listChanged
	}
}

// WithTasksCapabilities sets the Tasks extension's advertised capabilities.
func WithTasksCapabilities(cancel, list bool) ServerOption {
	return func(s *Server) {
		s.serverCapabilities.Tasks = &protocol.TasksCapability{Cancel: cancel, List: list}
	}
}

// WithInstructions sets the server instructions string returned during initialization.
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) {
		s.serverInstructions = instructions
	}
}

// NewServer creates a new core MCP Server logic instance with the provided options.
func NewServer(serverName string, opts ...ServerOption) *Server {
	srv := &Server{
		serverName: serverName,
		logger:     &defaultLogger{},
		serverCapabilities: protocol.ServerCapabilities{
			Tools: &struct {
				ListChanged bool `json:"listChanged,omitempty"`
			}{},
			Resources: &struct {
				Subscribe   bool `json:"subscribe,omitempty"`
				ListChanged bool `json:"listChanged,omitempty"`
			}{Subscribe: true},
			Prompts: &struct {
				ListChanged bool `json:"listChanged,omitempty"`
			}{},
			Logging:     &struct{}{},
			Completions: &struct{}{},
			Tasks:       &protocol.TasksCapability{Cancel: true, List: true},
		},
		toolRegistry:         make(map[string]protocol.Tool),
		toolSchemas:          make(map[string]*jsonschema.Resolved),
		toolHandlers:         make(map[string]ToolHandlerFunc),
		resourceRegistry:     make(map[string]protocol.Resource),
		resourceHandlers:     make(map[string]ResourceHandlerFunc),
		templateRegistry:     make(map[string]protocol.ResourceTemplate),
		templateMatchers:     make(map[string]*wilduri.Template),
		templateHandlers:     make(map[string]ResourceHandlerFunc),
		promptRegistry:       make(map[string]protocol.Prompt),
		promptHandlers:       make(map[string]PromptHandlerFunc),
		activeRequests:       make(map[string]context.CancelFunc),
		notificationHandlers: make(map[string]NotificationHandlerFunc),
		logLevel:             NewLogLevelCell(protocol.LogLevelInfo),
	}
	srv.subscriptions = NewSubscriptionManager(srv)
	srv.completer = NewCompleter()

	for _, opt := range opts {
		opt(srv)
	}

	srv.tasks = NewTaskRegistry(srv)

	srv.RegisterNotificationHandler(protocol.MethodCancelled, srv.handleCancellationNotification)

	srv.logger.Info("MCP Core Server '%s' created.", serverName)
	return srv
}

// --- Session Management ---

func (s *Server) RegisterSession(session types.ClientSession) error {
	if session == nil {
		return fmt.Errorf("cannot register nil session")
	}
	sessionID := session.SessionID()
	if _, loaded := s.sessions.LoadOrStore(sessionID, session); loaded {
		return fmt.Errorf("session with ID '%s' already registered", sessionID)
	}
	s.subscriptions.RegisterSession(sessionID)
	s.logger.Info("Registered session: %s", sessionID)
	return nil
}

func (s *Server) UnregisterSession(sessionID string) {
	_, loaded := s.sessions.LoadAndDelete(sessionID)
	s.subscriptions.UnregisterSession(sessionID)
	if loaded {
		s.logger.Info("Unregistered session: %s", sessionID)
	}
}

func (s *Server) sessionByID(sessionID string) (types.ClientSession, bool) {
	v, ok := s.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return v.(types.ClientSession), true
}

// --- Message Handling (Called by Transport Layer) ---

// HandleMessage processes one top-level JSON-RPC message for a session and returns the
// response to write back, or nil if the message was a notification. Batched arrays are not
// part of this protocol revision; callers must split multi-message payloads themselves.
func (s *Server) HandleMessage(ctx context.Context, sessionID string, rawMessage json.RawMessage) *protocol.JSONRPCResponse {
	s.logger.Debug("HandleMessage for session %s: %s", sessionID, string(rawMessage))
	session, ok := s.sessionByID(sessionID)
	if !ok {
		s.logger.Error("Received message for unknown session ID: %s", sessionID)
		return nil
	}
	return s.handleSingleMessage(ctx, session, rawMessage)
}

func (s *Server) handleSingleMessage(ctx context.Context, session types.ClientSession, rawMessage json.RawMessage) *protocol.JSONRPCResponse {
	sessionID := session.SessionID()

	var baseMessage struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      interface{}     `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(rawMessage, &baseMessage); err != nil {
		s.logger.Error("Session %s: Failed to parse base message structure: %v. Raw: %s", sessionID, err, string(rawMessage))
		return createErrorResponse(nil, protocol.ErrorCodeParseError, fmt.Sprintf("Failed to parse JSON: %v", err))
	}

	if baseMessage.JSONRPC != "2.0" {
		s.logger.Warn("Session %s: Received message with invalid jsonrpc version: %s", sessionID, baseMessage.JSONRPC)
		return createErrorResponse(baseMessage.ID, protocol.ErrorCodeInvalidRequest, "Invalid jsonrpc version")
	}

	if !session.Initialized() {
		if baseMessage.Method == protocol.MethodInitialize && baseMessage.ID != nil {
			return s.handleInitializationMessage(ctx, session, baseMessage.ID, baseMessage.Method, rawMessage)
		} else if baseMessage.Method == protocol.MethodInitialized && baseMessage.ID == nil {
			if session.GetNegotiatedVersion() == "" {
				s.logger.Warn("Session %s: ignoring 'initialized' notification received before 'initialize'", sessionID)
				return nil
			}
			if err := s.handleInitializedNotification(ctx, session, rawMessage); err != nil {
				s.logger.Error("Error handling initialized notification for session %s: %v", sessionID, err)
			} else {
				session.Initialize()
				s.logger.Info("Session %s marked as initialized.", sessionID)
			}
			return nil
		}
		s.logger.Error("Session %s: Received invalid message (method: %s, id: %v) during initialization", sessionID, baseMessage.Method, baseMessage.ID)
		return createErrorResponse(baseMessage.ID, protocol.ErrorCodeInvalidRequest, "Expected 'initialize' request or 'initialized' notification during handshake")
	}

	isRequest := baseMessage.ID != nil
	isNotification := baseMessage.ID == nil && baseMessage.Method != ""

	if isRequest {
		return s.handleRequest(ctx, session, baseMessage.ID, baseMessage.Method, baseMessage.Params)
	} else if isNotification {
		if err := s.handleNotification(ctx, session, baseMessage.Method, baseMessage.Params); err != nil {
			s.logger.Error("Error handling notification '%s' for session %s: %v", baseMessage.Method, sessionID, err)
		}
		return nil
	}
	s.logger.Warn("Received message with no ID or Method for session %s: %s", sessionID, string(rawMessage))
	return createErrorResponse(baseMessage.ID, protocol.ErrorCodeInvalidRequest, "Invalid message: must be request (with id) or notification (with method)")
}

// --- Initialization Handling ---

func (s *Server) handleInitializationMessage(ctx context.Context, session types.ClientSession, id interface{}, method string, rawMessage json.RawMessage) *protocol.JSONRPCResponse {
	sessionID := session.SessionID()
	if method == protocol.MethodInitialize && id != nil {
		resp, err := s.handleInitializeRequest(ctx, session, id, rawMessage)
		if err != nil {
			s.logger.Error("Initialization failed for session %s: %v", sessionID, err)
			if resp != nil {
				_ = session.SendResponse(*resp)
			} else {
				errResp := createErrorResponse(id, protocol.ErrorCodeInternalError, fmt.Sprintf("Initialization error: %v", err))
				_ = session.SendResponse(*errResp)
			}
			_ = session.Close()
			s.UnregisterSession(sessionID)
			return nil
		}
		_ = session.SendResponse(*resp)
		return nil
	} else if method == protocol.MethodInitialized && id == nil {
		err := s.handleInitializedNotification(ctx, session, rawMessage)
		if err != nil {
			s.logger.Error("Error processing initialized notification for session %s: %v", sessionID, err)
			_ = session.Close()
			s.UnregisterSession(sessionID)
		} else {
			session.Initialize()
			s.logger.Info("Session %s initialized successfully.", sessionID)
		}
		return nil
	}
	s.logger.Error("Received invalid message (method: %s, id: %v) during initialization for session %s", method, id, sessionID)
	return createErrorResponse(id, protocol.ErrorCodeInvalidRequest, "Expected 'initialize' request or 'initialized' notification")
}

func (s *Server) handleInitializeRequest(ctx context.Context, session types.ClientSession, requestID interface{}, rawMessage json.RawMessage) (*protocol.JSONRPCResponse, error) {
	var req protocol.JSONRPCRequest
	if err := json.Unmarshal(rawMessage, &req); err != nil {
		return createErrorResponse(requestID, protocol.ErrorCodeParseError, fmt.Sprintf("Failed to re-parse initialize request: %v", err)), nil
	}
	var initParams protocol.InitializeRequestParams
	if err := protocol.UnmarshalPayload(req.Params, &initParams); err != nil {
		return createErrorResponse(requestID, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to parse initialize params: %v", err)), nil
	}

	negotiatedVersion := ""
	switch initParams.ProtocolVersion {
	case protocol.CurrentProtocolVersion:
		negotiatedVersion = protocol.CurrentProtocolVersion
	case protocol.OldProtocolVersion:
		negotiatedVersion = protocol.OldProtocolVersion
	default:
		errMsg := fmt.Sprintf("Unsupported protocol version '%s'. Server supports '%s' and '%s'.",
			initParams.ProtocolVersion, protocol.CurrentProtocolVersion, protocol.OldProtocolVersion)
		return createErrorResponse(requestID, protocol.ErrorCodeMCPUnsupportedProtocolVersion, errMsg), nil
	}
	s.logger.Info("Session %s: negotiated protocol version %s", session.SessionID(), negotiatedVersion)

	session.SetNegotiatedVersion(negotiatedVersion)
	session.StoreClientCapabilities(initParams.Capabilities)

	advertisedCaps := s.serverCapabilities
	if negotiatedVersion == protocol.OldProtocolVersion {
		// Tasks is an extension introduced alongside the current revision; don't
		// advertise it to clients that negotiated the older baseline.
		adjusted := advertisedCaps
		adjusted.Tasks = nil
		advertisedCaps = adjusted
	}

	responsePayload := protocol.InitializeResult{
		ProtocolVersion: negotiatedVersion,
		Capabilities:    advertisedCaps,
		ServerInfo:      protocol.Implementation{Name: s.serverName, Version: "0.1.0"},
		Instructions:    s.serverInstructions,
	}
	return createSuccessResponse(requestID, responsePayload), nil
}

func (s *Server) handleInitializedNotification(ctx context.Context, session types.ClientSession, rawMessage json.RawMessage) error {
	var notif protocol.JSONRPCNotification
	if err := json.Unmarshal(rawMessage, &notif); err != nil {
		return fmt.Errorf("failed to parse initialized notification: %w", err)
	}
	s.logger.Info("Session %s: Received InitializedNotification.", session.SessionID())
	return nil
}

// --- Request/Notification Routing (Post-Initialization) ---

func (s *Server) handleRequest(ctx context.Context, session types.ClientSession, id interface{}, method string, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	s.logger.Debug("Handling request for session %s: Method=%s, ID=%v", session.SessionID(), method, id)

	switch method {
	case protocol.MethodListTools:
		return s.handleListToolsRequest(ctx, id, rawParams)
	case protocol.MethodCallTool:
		return s.handleCallToolRequest(ctx, session, id, rawParams)
	case protocol.MethodListResources:
		return s.handleListResources(ctx, id, rawParams)
	case protocol.MethodResourcesListTemplates:
		return s.handleListResourceTemplates(ctx, id, rawParams)
	case protocol.MethodReadResource:
		return s.handleReadResource(ctx, id, rawParams)
	case protocol.MethodListPrompts:
		return s.handleListPrompts(ctx, id, rawParams)
	case protocol.MethodGetPrompt:
		return s.handleGetPrompt(ctx, id, rawParams)
	case protocol.MethodSubscribeResource:
		return s.handleSubscribeResource(ctx, session, id, rawParams)
	case protocol.MethodUnsubscribeResource:
		return s.handleUnsubscribeResource(ctx, session, id, rawParams)
	case protocol.MethodLoggingSetLevel:
		return s.handleSetLevel(ctx, session, id, rawParams)
	case protocol.MethodCompletionComplete:
		return s.handleComplete(ctx, id, rawParams)
	case protocol.MethodTasksCreate:
		return s.handleTasksCreate(ctx, session, id, rawParams)
	case protocol.MethodTasksGet:
		return s.handleTasksGet(ctx, id, rawParams)
	case protocol.MethodTasksCancel:
		return s.handleTasksCancel(ctx, id, rawParams)
	case protocol.MethodTasksDelete:
		return s.handleTasksDelete(ctx, id, rawParams)
	case protocol.MethodTasksList:
		return s.handleTasksList(ctx, id, rawParams)
	case protocol.MethodPing:
		return s.handlePing(ctx, id, rawParams)
	default:
		s.logger.Warn("Method not found for session %s: %s", session.SessionID(), method)
		return createErrorResponse(id, protocol.ErrorCodeMethodNotFound, fmt.Sprintf("Method '%s' not implemented", method))
	}
}

func (s *Server) handleNotification(ctx context.Context, session types.ClientSession, method string, rawParams json.RawMessage) error {
	s.notificationMu.RLock()
	handler, ok := s.notificationHandlers[method]
	s.notificationMu.RUnlock()
	if !ok {
		s.logger.Info("No handler registered for notification method '%s' from session %s", method, session.SessionID())
		return nil
	}

	var params interface{}
	if len(rawParams) > 0 && string(rawParams) != "null" {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			s.logger.Error("Failed to parse params for notification %s from session %s: %v. Raw: %s", method, session.SessionID(), err, string(rawParams))
			return fmt.Errorf("failed to parse notification params: %w", err)
		}
	}

	if err := handler(ctx, params); err != nil {
		s.logger.Error("Error executing notification handler for method %s from session %s: %v", method, session.SessionID(), err)
		return err
	}
	return nil
}

// --- Public Registration Methods ---

func (s *Server) RegisterNotificationHandler(method string, handler NotificationHandlerFunc) error {
	s.notificationMu.Lock()
	defer s.notificationMu.Unlock()
	if _, exists := s.notificationHandlers[method]; exists {
		return fmt.Errorf("notification handler already registered for method: %s", method)
	}
	s.notificationHandlers[method] = handler
	return nil
}

// Completer exposes the server's completion table so fixtures can register
// candidate values for prompt/resource arguments.
func (s *Server) Completer() *Completer {
	return s.completer
}

// PublishResourceUpdate notifies every session subscribed to uri that its
// contents changed. It is exported so external drivers of dynamic resources
// (e.g. a scheduled job that mutates a fixture outside of any request) can
// trigger the resources/updated fan-out; resources/read itself never publishes.
func (s *Server) PublishResourceUpdate(uri string) {
	s.subscriptions.Publish(uri)
}

func (s *Server) RegisterTool(tool protocol.Tool, handler ToolHandlerFunc) error {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := s.toolRegistry[tool.Name]; exists {
		return fmt.Errorf("tool '%s' already registered", tool.Name)
	}
	if handler == nil {
		return fmt.Errorf("handler for tool '%s' cannot be nil", tool.Name)
	}
	resolved, err := resolveToolSchema(tool.InputSchema)
	if err != nil {
		return fmt.Errorf("tool '%s' has an invalid input schema: %w", tool.Name, err)
	}
	s.toolRegistry[tool.Name] = tool
	s.toolSchemas[tool.Name] = resolved
	s.toolHandlers[tool.Name] = handler
	s.toolOrder = append(s.toolOrder, tool.Name)
	s.logger.Info("Registered tool: %s", tool.Name)
	return nil
}

// resolveToolSchema parses a tool's raw JSON Schema input schema and resolves
// it into a form jsonschema.Resolved.Validate can check arguments against. An
// empty schema means the tool takes no constrained shape and always validates.
func resolveToolSchema(raw json.RawMessage) (*jsonschema.Resolved, error) {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, err
	}
	return schema.Resolve(nil)
}

// validateToolArguments checks args against the named tool's resolved input schema,
// shared by tools/call and tasks/create so both entry points into a tool handler
// reject arguments the catalog says are invalid before the handler ever runs.
func (s *Server) validateToolArguments(name string, args json.RawMessage) error {
	s.registryMu.RLock()
	schema, ok := s.toolSchemas[name]
	s.registryMu.RUnlock()
	if !ok || schema == nil {
		return nil
	}
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}
	var instance interface{}
	if err := json.Unmarshal(args, &instance); err != nil {
		return fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("arguments do not match tool '%s' input schema: %w", name, err)
	}
	return nil
}

// RegisterResource adds a resource to the catalog. handler produces its
// contents on resources/read; it may be nil for a resource that is only
// ever listed (resources/read then returns empty text).
func (s *Server) RegisterResource(resource protocol.Resource, handler ResourceHandlerFunc) error {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	if resource.URI == "" {
		return fmt.Errorf("resource URI cannot be empty")
	}
	if _, exists := s.resourceRegistry[resource.URI]; !exists {
		s.resourceOrder = append(s.resourceOrder, resource.URI)
	}
	s.resourceRegistry[resource.URI] = resource
	if handler != nil {
		s.resourceHandlers[resource.URI] = handler
	}
	s.logger.Info("Registered/Updated resource: %s", resource.URI)
	return nil
}

func (s *Server) UnregisterResource(uri string) error {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	if uri == "" {
		return fmt.Errorf("resource URI cannot be empty")
	}
	if _, exists := s.resourceRegistry[uri]; !exists {
		return fmt.Errorf("resource '%s' not found", uri)
	}
	delete(s.resourceRegistry, uri)
	delete(s.resourceHandlers, uri)
	s.resourceOrder = removeFromOrder(s.resourceOrder, uri)
	s.subscriptions.DropURI(uri)
	s.logger.Info("Unregistered resource: %s", uri)
	return nil
}

// RegisterResourceTemplate adds a URI template to the catalog. handler is
// invoked on resources/read for any URI that matches the template's
// pattern, with the variables extracted from that match.
func (s *Server) RegisterResourceTemplate(tmpl protocol.ResourceTemplate, handler ResourceHandlerFunc) error {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	if tmpl.URITemplate == "" {
		return fmt.Errorf("resource template URI cannot be empty")
	}
	matcher, err := wilduri.New(tmpl.URITemplate)
	if err != nil {
		return fmt.Errorf("invalid resource template '%s': %w", tmpl.URITemplate, err)
	}
	if _, exists := s.templateRegistry[tmpl.URITemplate]; !exists {
		s.templateOrder = append(s.templateOrder, tmpl.URITemplate)
	}
	s.templateRegistry[tmpl.URITemplate] = tmpl
	s.templateMatchers[tmpl.URITemplate] = matcher
	if handler != nil {
		s.templateHandlers[tmpl.URITemplate] = handler
	}
	return nil
}

// removeFromOrder returns order with the first occurrence of key removed,
// preserving the relative order of the remaining elements.
func removeFromOrder(order []string, key string) []string {
	for i, existing := range order {
		if existing == key {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// matchResourceTemplate finds the registered template, if any, whose pattern
// matches uri, returning its handler and the extracted path variables.
func (s *Server) matchResourceTemplate(uri string) (ResourceHandlerFunc, map[string]string, bool) {
	for pattern, matcher := range s.templateMatchers {
		values, matched := matcher.Match(uri)
		if !matched {
			continue
		}
		params := make(map[string]string, len(values))
		for _, name := range matcher.Varnames() {
			if v, ok := values[name]; ok && v != nil {
				params[name] = fmt.Sprintf("%v", v)
			}
		}
		handler, ok := s.templateHandlers[pattern]
		if !ok {
			continue
		}
		return handler, params, true
	}
	return nil, nil, false
}

func (s *Server) ResourceRegistry() map[string]protocol.Resource {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()
	registryCopy := make(map[string]protocol.Resource, len(s.resourceRegistry))
	for k, v := range s.resourceRegistry {
		registryCopy[k] = v
	}
	return registryCopy
}

// RegisterPrompt adds a prompt to the catalog. handler renders its messages
// on prompts/get; it may be nil for a prompt that is only ever listed
// (prompts/get then fails with a "no renderer registered" error).
func (s *Server) RegisterPrompt(prompt protocol.Prompt, handler PromptHandlerFunc) error {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	if prompt.Name == "" {
		return fmt.Errorf("prompt name cannot be empty")
	}
	if _, exists := s.promptRegistry[prompt.Name]; !exists {
		s.promptOrder = append(s.promptOrder, prompt.Name)
	}
	s.promptRegistry[prompt.Name] = prompt
	if handler != nil {
		s.promptHandlers[prompt.Name] = handler
	}
	s.logger.Info("Registered/Updated prompt: %s", prompt.Name)
	return nil
}

func (s *Server) UnregisterPrompt(name string) error {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	if name == "" {
		return fmt.Errorf("prompt name cannot be empty")
	}
	if _, exists := s.promptRegistry[name]; !exists {
		return fmt.Errorf("prompt '%s' not found", name)
	}
	delete(s.promptRegistry, name)
	delete(s.promptHandlers, name)
	s.promptOrder = removeFromOrder(s.promptOrder, name)
	s.logger.Info("Unregistered prompt: %s", name)
	return nil
}

// --- Built-in Request Handlers ---

func (s *Server) handleListToolsRequest(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var requestParams protocol.ListToolsRequestParams
	if err := protocol.UnmarshalPayload(rawParams, &requestParams); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal ListTools params: %v", err))
	}

	s.registryMu.RLock()
	tools := make([]protocol.Tool, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		tools = append(tools, s.toolRegistry[name])
	}
	s.registryMu.RUnlock()

	page, nextCursor, err := paginateTools(tools, requestParams.Cursor)
	if err != nil {
		return createErrorResponse(id, protocol.ErrorCodeMCPInvalidCursor, err.Error())
	}
	return createSuccessResponse(id, protocol.ListToolsResult{Tools: page, NextCursor: nextCursor})
}

func (s *Server) handleCallToolRequest(ctx context.Context, session types.ClientSession, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var requestParams protocol.CallToolParams
	if err := protocol.UnmarshalPayload(rawParams, &requestParams); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal CallTool params: %v", err))
	}
	s.registryMu.RLock()
	handler, exists := s.toolHandlers[requestParams.Name]
	s.registryMu.RUnlock()
	if !exists {
		return createErrorResponse(id, protocol.ErrorCodeMCPToolNotFound, fmt.Sprintf("Tool '%s' not found", requestParams.Name))
	}

	if err := s.validateToolArguments(requestParams.Name, requestParams.Arguments); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, err.Error())
	}

	logData := fmt.Sprintf("session %s invoking tool %q", session.SessionID(), requestParams.Name)
	if addr, ok := types.RemoteAddrFromContext(ctx); ok {
		logData = fmt.Sprintf("%s from %s", logData, addr)
	}
	s.LogMessage(protocol.LogLevelInfo, "tools", logData)

	reqCtx, cancel := context.WithCancel(ctx)
	requestIDStr := fmt.Sprintf("%v", id)
	s.requestMu.Lock()
	s.activeRequests[requestIDStr] = cancel
	s.requestMu.Unlock()
	defer func() { s.requestMu.Lock(); delete(s.activeRequests, requestIDStr); s.requestMu.Unlock(); cancel() }()

	var progressToken *protocol.ProgressToken
	if requestParams.Meta != nil {
		progressToken = requestParams.Meta.ProgressToken
	}

	content, isError := handler(reqCtx, progressToken, requestParams.Arguments)
	return createSuccessResponse(id, protocol.CallToolResult{Content: content, IsError: isError})
}

func (s *Server) handleListResources(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var requestParams protocol.ListResourcesRequestParams
	if err := protocol.UnmarshalPayload(rawParams, &requestParams); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal ListResources params: %v", err))
	}

	s.registryMu.RLock()
	resources := make([]protocol.Resource, 0, len(s.resourceOrder))
	for _, uri := range s.resourceOrder {
		resources = append(resources, s.resourceRegistry[uri])
	}
	s.registryMu.RUnlock()

	page, nextCursor, err := paginateResources(resources, requestParams.Cursor)
	if err != nil {
		return createErrorResponse(id, protocol.ErrorCodeMCPInvalidCursor, err.Error())
	}
	return createSuccessResponse(id, protocol.ListResourcesResult{Resources: page, NextCursor: nextCursor})
}

func (s *Server) handleListResourceTemplates(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var requestParams protocol.ListResourceTemplatesRequestParams
	if err := protocol.UnmarshalPayload(rawParams, &requestParams); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal ListResourceTemplates params: %v", err))
	}
	s.registryMu.RLock()
	templates := make([]protocol.ResourceTemplate, 0, len(s.templateOrder))
	for _, pattern := range s.templateOrder {
		templates = append(templates, s.templateRegistry[pattern])
	}
	s.registryMu.RUnlock()
	return createSuccessResponse(id, protocol.ListResourceTemplatesResult{ResourceTemplates: templates})
}

func (s *Server) handleReadResource(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var requestParams protocol.ReadResourceRequestParams
	if err := protocol.UnmarshalPayload(rawParams, &requestParams); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal ReadResource params: %v", err))
	}
	s.registryMu.RLock()
	resource, ok := s.resourceRegistry[requestParams.URI]
	handler := s.resourceHandlers[requestParams.URI]
	if !ok {
		if tmplHandler, params, matched := s.matchResourceTemplate(requestParams.URI); matched {
			s.registryMu.RUnlock()
			contents, err := tmplHandler(ctx, requestParams.URI, params)
			if err != nil {
				return createErrorResponse(id, protocol.ErrorCodeMCPResourceNotFound, err.Error())
			}
			return createSuccessResponse(id, protocol.ReadResourceResult{Contents: []protocol.ResourceContents{contents}})
		}
		s.registryMu.RUnlock()
		return createErrorResponse(id, protocol.ErrorCodeMCPResourceNotFound, fmt.Sprintf("Resource not found: %s", requestParams.URI))
	}
	s.registryMu.RUnlock()

	if handler == nil {
		contents := protocol.ResourceContents{URI: resource.URI, MimeType: resource.MimeType, Text: ""}
		return createSuccessResponse(id, protocol.ReadResourceResult{Contents: []protocol.ResourceContents{contents}})
	}
	contents, err := handler(ctx, resource.URI, nil)
	if err != nil {
		return createErrorResponse(id, protocol.ErrorCodeMCPResourceNotFound, err.Error())
	}
	return createSuccessResponse(id, protocol.ReadResourceResult{Contents: []protocol.ResourceContents{contents}})
}

func (s *Server) handleListPrompts(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var requestParams protocol.ListPromptsRequestParams
	if err := protocol.UnmarshalPayload(rawParams, &requestParams); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal ListPrompts params: %v", err))
	}
	s.registryMu.RLock()
	prompts := make([]protocol.Prompt, 0, len(s.promptOrder))
	for _, name := range s.promptOrder {
		prompts = append(prompts, s.promptRegistry[name])
	}
	s.registryMu.RUnlock()

	page, nextCursor, err := paginatePrompts(prompts, requestParams.Cursor)
	if err != nil {
		return createErrorResponse(id, protocol.ErrorCodeMCPInvalidCursor, err.Error())
	}
	return createSuccessResponse(id, protocol.ListPromptsResult{Prompts: page, NextCursor: nextCursor})
}

func (s *Server) handleGetPrompt(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var requestParams protocol.GetPromptRequestParams
	if err := protocol.UnmarshalPayload(rawParams, &requestParams); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal GetPrompt params: %v", err))
	}
	s.registryMu.RLock()
	_, ok := s.promptRegistry[requestParams.Name]
	handler := s.promptHandlers[requestParams.Name]
	s.registryMu.RUnlock()
	if !ok {
		return createErrorResponse(id, protocol.ErrorCodeMCPPromptNotFound, fmt.Sprintf("Prompt not found: %s", requestParams.Name))
	}
	if handler == nil {
		return createErrorResponse(id, protocol.ErrorCodeMCPPromptNotFound, fmt.Sprintf("Prompt '%s' has no renderer registered", requestParams.Name))
	}
	result, err := handler(ctx, requestParams.Arguments)
	if err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, err.Error())
	}
	return createSuccessResponse(id, result)
}

func (s *Server) handleSubscribeResource(ctx context.Context, session types.ClientSession, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var requestParams protocol.SubscribeResourceParams
	if err := protocol.UnmarshalPayload(rawParams, &requestParams); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal SubscribeResource params: %v", err))
	}
	s.subscriptions.Subscribe(session.SessionID(), requestParams.URI)
	return createSuccessResponse(id, protocol.SubscribeResourceResult{})
}

func (s *Server) handleUnsubscribeResource(ctx context.Context, session types.ClientSession, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var requestParams protocol.UnsubscribeResourceParams
	if err := protocol.UnmarshalPayload(rawParams, &requestParams); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal UnsubscribeResource params: %v", err))
	}
	s.subscriptions.Unsubscribe(session.SessionID(), requestParams.URI)
	return createSuccessResponse(id, protocol.UnsubscribeResourceResult{})
}

func (s *Server) handlePing(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	return createSuccessResponse(id, struct{}{})
}

// --- Built-in Notification Handlers ---

func (s *Server) handleCancellationNotification(ctx context.Context, params interface{}) error {
	var cancelParams protocol.CancelledParams
	if err := protocol.UnmarshalPayload(params, &cancelParams); err != nil {
		s.logger.Error("Error unmarshalling notifications/cancelled params: %v", err)
		return err
	}
	if cancelParams.RequestID == nil {
		s.logger.Warn("Received notifications/cancelled with nil requestId.")
		return nil
	}
	requestIDStr := fmt.Sprintf("%v", cancelParams.RequestID)
	s.requestMu.Lock()
	cancelFunc, ok := s.activeRequests[requestIDStr]
	delete(s.activeRequests, requestIDStr)
	s.requestMu.Unlock()
	if ok {
		s.logger.Info("Cancelling active request %s (reason: %s)", requestIDStr, cancelParams.Reason)
		cancelFunc()
	}
	return nil
}

// --- Methods for Sending Notifications/Requests TO Client (via Session) ---

func (s *Server) SendProgress(sessionID string, params protocol.ProgressParams) error {
	session, ok := s.sessionByID(sessionID)
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return s.sendNotificationToSession(session, protocol.MethodProgress, params)
}

func (s *Server) SendToolsListChanged() error {
	return s.broadcastNotification(protocol.MethodNotifyToolsListChanged, protocol.ToolsListChangedParams{})
}

func (s *Server) SendResourcesListChanged() error {
	return s.broadcastNotification(protocol.MethodNotifyResourcesListChanged, protocol.ResourcesListChangedParams{})
}

func (s *Server) SendPromptsListChanged() error {
	return s.broadcastNotification(protocol.MethodNotifyPromptsListChanged, protocol.PromptsListChangedParams{})
}

// --- Internal Send Helpers ---

func (s *Server) broadcastNotification(method string, params interface{}) error {
	var firstErr error
	s.sessions.Range(func(key, value interface{}) bool {
		session := value.(types.ClientSession)
		if err := s.sendNotificationToSession(session, method, params); err != nil {
			s.logger.Warn("Failed to send broadcast notification %s to session %s: %v", method, session.SessionID(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
		return true
	})
	return firstErr
}

func (s *Server) sendNotificationToSession(session types.ClientSession, method string, params interface{}) error {
	notif := protocol.JSONRPCNotification{JSONRPC: "2.0", Method: method, Params: params}
	return session.SendNotification(notif)
}

func createSuccessResponse(id interface{}, result interface{}) *protocol.JSONRPCResponse {
	return &protocol.JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func createErrorResponse(id interface{}, code int, message string) *protocol.JSONRPCResponse {
	return &protocol.JSONRPCResponse{
		JSONRPC: "2.0", ID: id,
		Error: &protocol.ErrorPayload{Code: code, Message: message},
	}
}

// --- Default Logger ---
type defaultLogger struct{}

func (l *defaultLogger) Debug(msg string, args ...interface{}) { log.Printf("DEBUG: "+msg, args...) }
func (l *defaultLogger) Info(msg string, args ...interface{})  { log.Printf("INFO: "+msg, args...) }
func (l *defaultLogger) Warn(msg string, args ...interface{})  { log.Printf("WARN: "+msg, args...) }
func (l *defaultLogger) Error(msg string, args ...interface{}) { log.Printf("ERROR: "+msg, args...) }
