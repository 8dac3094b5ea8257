package streamablehttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/types"
)

const (
	// ProtocolVersion is the MCP revision this transport speaks.
	ProtocolVersion = "2025-11-25"

	headerSessionID      = "Mcp-Session-Id"
	headerProtocolVer    = "Mcp-Protocol-Version"
	methodInitialize     = "initialize"
	sessionIDHeaderEmpty = ""
)

// ServerLogic is the subset of *server.Server the transport needs. Depending on
// an interface here (rather than the concrete type) keeps this package testable
// without constructing a full protocol engine.
type ServerLogic interface {
	HandleMessage(ctx context.Context, sessionID string, rawMessage json.RawMessage) *protocol.JSONRPCResponse
	RegisterSession(session types.ClientSession) error
	UnregisterSession(sessionID string)
}

// ContextFunc customizes the context passed to the core server logic's
// HandleMessage for a given client->server POST, based on the incoming HTTP
// request. This is how HTTP-layer values (headers, remote address) reach
// request handling without the core server logic importing net/http.
type ContextFunc func(ctx context.Context, r *http.Request) context.Context

// Handler implements the /mcp endpoint: POST for client->server messages,
// GET for the server->client SSE stream, DELETE to tear a session down.
type Handler struct {
	logic       ServerLogic
	contextFunc ContextFunc

	mu       sync.RWMutex
	sessions map[string]*session
}

// Option configures a Handler.
type Option func(*Handler)

// WithContextFunc sets the function used to derive each POST's request context.
func WithContextFunc(fn ContextFunc) Option {
	return func(h *Handler) { h.contextFunc = fn }
}

// NewHandler builds a streamable HTTP handler in front of logic.
func NewHandler(logic ServerLogic, opts ...Option) *Handler {
	h := &Handler{
		logic:    logic,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) lookupSession(id string) (*session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

func (h *Handler) addSession(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.id] = s
}

func (h *Handler) dropSession(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeTransportError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	var peek struct {
		Method string      `json:"method"`
		ID     interface{} `json:"id"`
	}
	if err := json.Unmarshal(body, &peek); err != nil {
		writeJSONRPCError(w, nil, protocol.ErrorCodeParseError, "invalid JSON")
		return
	}

	sessionIDHeader := r.Header.Get(headerSessionID)

	var sess *session
	if sessionIDHeader == sessionIDHeaderEmpty {
		if peek.Method != methodInitialize {
			writeTransportError(w, http.StatusNotFound, "missing Mcp-Session-Id header")
			return
		}
		sess = newSession()
		if err := h.logic.RegisterSession(sess); err != nil {
			writeTransportError(w, http.StatusInternalServerError, "failed to register session")
			return
		}
		h.addSession(sess)
	} else {
		var ok bool
		sess, ok = h.lookupSession(sessionIDHeader)
		if !ok {
			writeJSONRPCError(w, peek.ID, protocol.ErrorCodeInvalidRequest, "unknown or expired session")
			return
		}
	}

	ctx := r.Context()
	if h.contextFunc != nil {
		ctx = h.contextFunc(ctx, r)
	}
	response := h.logic.HandleMessage(ctx, sess.id, json.RawMessage(body))

	w.Header().Set(headerSessionID, sess.id)
	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionIDHeader := r.Header.Get(headerSessionID)
	if sessionIDHeader == sessionIDHeaderEmpty {
		writeTransportError(w, http.StatusNotFound, "missing Mcp-Session-Id header")
		return
	}
	sess, ok := h.lookupSession(sessionIDHeader)
	if !ok {
		writeTransportError(w, http.StatusNotFound, "unknown or expired session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeTransportError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set(headerSessionID, sess.id)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case event := <-sess.outbox:
			if _, err := io.WriteString(w, event); err != nil {
				return
			}
			flusher.Flush()
		case <-sess.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionIDHeader := r.Header.Get(headerSessionID)
	if sessionIDHeader == sessionIDHeaderEmpty {
		writeTransportError(w, http.StatusNotFound, "missing Mcp-Session-Id header")
		return
	}
	sess, ok := h.lookupSession(sessionIDHeader)
	if !ok {
		writeTransportError(w, http.StatusNotFound, "unknown or expired session")
		return
	}

	h.logic.UnregisterSession(sess.id)
	h.dropSession(sess.id)
	_ = sess.Close()
	w.WriteHeader(http.StatusNoContent)
}

func writeTransportError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := protocol.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &protocol.ErrorPayload{Code: code, Message: message},
	}
	status := http.StatusBadRequest
	if code == protocol.ErrorCodeInvalidRequest {
		status = http.StatusNotFound
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
