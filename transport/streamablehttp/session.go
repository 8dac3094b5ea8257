// Package streamablehttp implements the MCP Streamable HTTP transport: a single
// /mcp endpoint that accepts JSON-RPC messages over POST, opens a long-lived
// SSE stream over GET for server-initiated messages, and tears a session down
// on DELETE.
package streamablehttp

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/types"
)

// session implements types.ClientSession over a buffered outbound event queue
// that a GET /mcp request drains. Creating a session does not require a GET
// stream to be attached yet — notifications queue until one opens.
type session struct {
	id       string
	outbox   chan string
	done     chan struct{}
	closeOne sync.Once
	closed   atomic.Bool

	initialized atomic.Bool

	mu                 sync.RWMutex
	negotiatedVersion  string
	clientCapabilities protocol.ClientCapabilities
}

var _ types.ClientSession = (*session)(nil)

func newSession() *session {
	return &session{
		id:     uuid.NewString(),
		outbox: make(chan string, 256),
		done:   make(chan struct{}),
	}
}

func (s *session) SessionID() string { return s.id }

func (s *session) enqueue(eventData []byte) error {
	event := fmt.Sprintf("event: message\ndata: %s\n\n", eventData)
	select {
	case s.outbox <- event:
		return nil
	case <-s.done:
		return fmt.Errorf("session %s is closed", s.id)
	default:
		return fmt.Errorf("session %s outbound queue full", s.id)
	}
}

func (s *session) SendNotification(notification protocol.JSONRPCNotification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return s.enqueue(data)
}

func (s *session) SendResponse(response protocol.JSONRPCResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	return s.enqueue(data)
}

func (s *session) SendRequest(request protocol.JSONRPCRequest) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return s.enqueue(data)
}

func (s *session) Close() error {
	s.closeOne.Do(func() {
		s.closed.Store(true)
		close(s.done)
	})
	return nil
}

func (s *session) Initialize()         { s.initialized.Store(true) }
func (s *session) Initialized() bool   { return s.initialized.Load() }

func (s *session) SetNegotiatedVersion(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.negotiatedVersion = version
}

func (s *session) GetNegotiatedVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.negotiatedVersion
}

func (s *session) StoreClientCapabilities(caps protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCapabilities = caps
}

func (s *session) GetClientCapabilities() protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCapabilities
}

// GetWriter is unused by the streamable HTTP transport: outbound delivery goes
// through the buffered event queue, drained by whatever GET /mcp request is
// currently attached.
func (s *session) GetWriter() io.Writer { return nil }
