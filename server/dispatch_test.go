package server_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/server"
)

func readySession(t *testing.T, srv *server.Server, id string) *mockClientSession {
	t.Helper()
	session := newMockClientSession(id)
	require.NoError(t, srv.RegisterSession(session))
	session.Initialize()
	return session
}

func dispatch(t *testing.T, srv *server.Server, sessionID, method string, params interface{}) *protocol.JSONRPCResponse {
	t.Helper()
	req := protocol.JSONRPCRequest{JSONRPC: "2.0", ID: "req-1", Method: method, Params: params}
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	resp := srv.HandleMessage(context.Background(), sessionID, raw)
	require.NotNil(t, resp)
	return resp
}

func TestDispatchUnknownMethodIsMethodNotFound(t *testing.T) {
	srv := server.NewServer("test-server")
	session := readySession(t, srv, "dispatch-unknown")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), "totally/bogus", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeMethodNotFound, resp.Error.Code)
}

func TestDispatchPingSucceeds(t *testing.T) {
	srv := server.NewServer("test-server")
	session := readySession(t, srv, "dispatch-ping")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodPing, nil)
	assert.Nil(t, resp.Error)
}

func TestDispatchCallUnknownToolIsToolNotFound(t *testing.T) {
	srv := server.NewServer("test-server")
	session := readySession(t, srv, "dispatch-tool")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodCallTool, protocol.CallToolParams{Name: "does-not-exist"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeMCPToolNotFound, resp.Error.Code)
}

func TestDispatchReadUnknownResourceIsResourceNotFound(t *testing.T) {
	srv := server.NewServer("test-server")
	session := readySession(t, srv, "dispatch-resource")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodReadResource, protocol.ReadResourceRequestParams{URI: "test://missing"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeMCPResourceNotFound, resp.Error.Code)
}

func TestDispatchGetUnknownPromptIsPromptNotFound(t *testing.T) {
	srv := server.NewServer("test-server")
	session := readySession(t, srv, "dispatch-prompt")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodGetPrompt, protocol.GetPromptRequestParams{Name: "does-not-exist"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeMCPPromptNotFound, resp.Error.Code)
}

func TestDispatchSetLevelRejectsUnknownLevel(t *testing.T) {
	srv := server.NewServer("test-server")
	session := readySession(t, srv, "dispatch-log-level")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodLoggingSetLevel, protocol.SetLevelRequestParams{Level: "not-a-real-level"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeInvalidParams, resp.Error.Code)
}

func TestDispatchSetLevelAcceptsKnownLevel(t *testing.T) {
	srv := server.NewServer("test-server")
	session := readySession(t, srv, "dispatch-log-level-ok")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodLoggingSetLevel, protocol.SetLevelRequestParams{Level: protocol.LogLevelDebug})
	assert.Nil(t, resp.Error)
}

func TestDispatchCallToolRejectsArgumentsMissingRequiredField(t *testing.T) {
	srv := server.NewServer("test-server")
	tool := protocol.Tool{
		Name:        "needs-name",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`),
	}
	require.NoError(t, srv.RegisterTool(tool, func(ctx context.Context, pt *protocol.ProgressToken, args json.RawMessage) ([]protocol.Content, bool) {
		return []protocol.Content{protocol.TextContent{Type: "text", Text: "should not run"}}, false
	}))
	session := readySession(t, srv, "dispatch-schema-missing-field")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodCallTool, protocol.CallToolParams{Name: "needs-name", Arguments: json.RawMessage(`{}`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeInvalidParams, resp.Error.Code)
}

func TestDispatchCallToolRejectsArgumentsOfWrongType(t *testing.T) {
	srv := server.NewServer("test-server")
	tool := protocol.Tool{
		Name:        "needs-number",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"count":{"type":"number"}},"required":["count"]}`),
	}
	require.NoError(t, srv.RegisterTool(tool, func(ctx context.Context, pt *protocol.ProgressToken, args json.RawMessage) ([]protocol.Content, bool) {
		return []protocol.Content{protocol.TextContent{Type: "text", Text: "should not run"}}, false
	}))
	session := readySession(t, srv, "dispatch-schema-wrong-type")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodCallTool, protocol.CallToolParams{Name: "needs-number", Arguments: json.RawMessage(`{"count":"not-a-number"}`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeInvalidParams, resp.Error.Code)
}

func TestDispatchCallToolEmitsLogNotification(t *testing.T) {
	srv := server.NewServer("test-server")
	tool := protocol.Tool{Name: "noisy", InputSchema: json.RawMessage(`{"type":"object"}`)}
	require.NoError(t, srv.RegisterTool(tool, func(ctx context.Context, pt *protocol.ProgressToken, args json.RawMessage) ([]protocol.Content, bool) {
		return []protocol.Content{protocol.TextContent{Type: "text", Text: "done"}}, false
	}))
	session := readySession(t, srv, "dispatch-log-message")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodCallTool, protocol.CallToolParams{Name: "noisy", Arguments: json.RawMessage(`{}`)})
	require.Nil(t, resp.Error)

	var sawLogMessage bool
	for _, notif := range session.GetSentNotifications() {
		if notif.Method == protocol.MethodNotificationMessage {
			sawLogMessage = true
		}
	}
	assert.True(t, sawLogMessage, "a tool call should emit a notifications/message once the default log level allows it")
}

func TestDispatchCallToolAcceptsValidArguments(t *testing.T) {
	srv := server.NewServer("test-server")
	tool := protocol.Tool{
		Name:        "needs-name-valid",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`),
	}
	require.NoError(t, srv.RegisterTool(tool, func(ctx context.Context, pt *protocol.ProgressToken, args json.RawMessage) ([]protocol.Content, bool) {
		return []protocol.Content{protocol.TextContent{Type: "text", Text: "ran"}}, false
	}))
	session := readySession(t, srv, "dispatch-schema-valid")
	defer srv.UnregisterSession(session.SessionID())

	resp := dispatch(t, srv, session.SessionID(), protocol.MethodCallTool, protocol.CallToolParams{Name: "needs-name-valid", Arguments: json.RawMessage(`{"name":"ok"}`)})
	require.Nil(t, resp.Error)
}
