package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontext/refserver/protocol"
)

// completionKey identifies a single completable argument: the prompt name or
// resource URI the argument belongs to, plus the argument's own name.
type completionKey struct {
	refType protocol.ReferenceType
	refName string
	arg     string
}

// Completer resolves completion/complete requests against a static table of
// candidate values registered per (reference, argument) pair. It does not
// consult the tool/resource/prompt catalogs directly — fixtures register
// their own candidate lists up front.
type Completer struct {
	mu    sync.RWMutex
	table map[completionKey][]string
}

// NewCompleter creates an empty completion table.
func NewCompleter() *Completer {
	return &Completer{table: make(map[completionKey][]string)}
}

// Register associates a list of candidate values with a prompt/resource argument.
func (c *Completer) Register(refType protocol.ReferenceType, refName, argument string, values []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table[completionKey{refType, refName, argument}] = values
}

// Resolve returns the values matching prefix (case-insensitive), capped at 100,
// along with the total candidate count before capping.
func (c *Completer) Resolve(refType protocol.ReferenceType, refName, argument, prefix string) ([]string, int) {
	c.mu.RLock()
	candidates := c.table[completionKey{refType, refName, argument}]
	c.mu.RUnlock()

	lowerPrefix := strings.ToLower(prefix)
	matched := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if strings.HasPrefix(strings.ToLower(v), lowerPrefix) {
			matched = append(matched, v)
		}
	}
	total := len(matched)
	if len(matched) > 100 {
		matched = matched[:100]
	}
	return matched, total
}

func (s *Server) handleComplete(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var req protocol.CompleteRequest
	if err := protocol.UnmarshalPayload(rawParams, &req); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal complete params: %v", err))
	}

	refName := req.Ref.Name
	if req.Ref.Type == protocol.RefTypeResource {
		refName = req.Ref.URI
	}

	values, total := s.completer.Resolve(req.Ref.Type, refName, req.Argument.Name, req.Argument.Value)
	hasMore := total > len(values)
	return createSuccessResponse(id, protocol.CompleteResult{
		Completion: protocol.Completion{
			Values:  values,
			Total:   &total,
			HasMore: &hasMore,
		},
	})
}
