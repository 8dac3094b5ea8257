package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/types"
)

// LogLevelCell holds the server-wide minimum severity for notifications/message,
// set by the client via logging/setLevel. It's a single shared cell, not
// per-session: the spec models one log stream per server instance.
type LogLevelCell struct {
	level atomic.Value // protocol.LoggingLevel
}

// NewLogLevelCell creates a cell initialized to the given level.
func NewLogLevelCell(initial protocol.LoggingLevel) *LogLevelCell {
	c := &LogLevelCell{}
	c.level.Store(initial)
	return c
}

// Get returns the currently configured minimum level.
func (c *LogLevelCell) Get() protocol.LoggingLevel {
	return c.level.Load().(protocol.LoggingLevel)
}

// Set updates the minimum level.
func (c *LogLevelCell) Set(level protocol.LoggingLevel) {
	c.level.Store(level)
}

func logLevelRank(level protocol.LoggingLevel) int {
	switch level {
	case protocol.LogLevelTrace:
		return 0
	case protocol.LogLevelDebug:
		return 1
	case protocol.LogLevelInfo:
		return 2
	case protocol.LogLevelWarn:
		return 3
	case protocol.LogLevelError:
		return 4
	default:
		return 2
	}
}

// Allows reports whether a message at msgLevel should be emitted given the
// cell's current minimum (messages at or above the configured severity pass).
func (c *LogLevelCell) Allows(msgLevel protocol.LoggingLevel) bool {
	return logLevelRank(msgLevel) >= logLevelRank(c.Get())
}

func (s *Server) handleSetLevel(ctx context.Context, session types.ClientSession, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var params protocol.SetLevelRequestParams
	if err := protocol.UnmarshalPayload(rawParams, &params); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal setLevel params: %v", err))
	}
	switch params.Level {
	case protocol.LogLevelTrace, protocol.LogLevelDebug, protocol.LogLevelInfo, protocol.LogLevelWarn, protocol.LogLevelError:
	default:
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("unknown logging level %q", params.Level))
	}
	s.logLevel.Set(params.Level)
	s.logger.Info("Session %s set log level to %s", session.SessionID(), params.Level)
	return createSuccessResponse(id, struct{}{})
}

// LogMessage delivers a notifications/message to every connected session,
// gated by the server's current logging level.
func (s *Server) LogMessage(level protocol.LoggingLevel, logger string, data interface{}) {
	if !s.logLevel.Allows(level) {
		return
	}
	params := protocol.LoggingMessageParams{Level: level, Logger: logger, Data: data}
	if err := s.broadcastNotification(protocol.MethodNotificationMessage, params); err != nil {
		s.logger.Warn("failed to broadcast notifications/message: %v", err)
	}
}
