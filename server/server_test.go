package server_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/server"
)

func initializeSession(t *testing.T, srv *server.Server, version string) *mockClientSession {
	t.Helper()
	session := newMockClientSession("session-" + version)
	require.NoError(t, srv.RegisterSession(session))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	initReq := protocol.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      "init-1",
		Method:  protocol.MethodInitialize,
		Params: protocol.InitializeRequestParams{
			ProtocolVersion: version,
			ClientInfo:      protocol.Implementation{Name: "test-client", Version: "0.1"},
		},
	}
	reqBytes, err := json.Marshal(initReq)
	require.NoError(t, err)

	resp := srv.HandleMessage(ctx, session.SessionID(), reqBytes)
	require.Nil(t, resp, "initialize is delivered via the session, not the return value")

	sent := session.GetSentResponses()
	require.Len(t, sent, 1)
	require.Nil(t, sent[0].Error)

	notif := protocol.JSONRPCNotification{JSONRPC: "2.0", Method: protocol.MethodInitialized}
	notifBytes, err := json.Marshal(notif)
	require.NoError(t, err)
	require.Nil(t, srv.HandleMessage(ctx, session.SessionID(), notifBytes))
	require.True(t, session.Initialized())

	return session
}

func TestInitializeSuccess(t *testing.T) {
	srv := server.NewServer("test-server")
	session := initializeSession(t, srv, protocol.CurrentProtocolVersion)
	defer srv.UnregisterSession(session.SessionID())

	var result protocol.InitializeResult
	require.NoError(t, protocol.UnmarshalPayload(session.GetSentResponses()[0].Result, &result))
	assert.Equal(t, "test-server", result.ServerInfo.Name)
	assert.Equal(t, protocol.CurrentProtocolVersion, result.ProtocolVersion)
}

func TestInitializeUnsupportedVersion(t *testing.T) {
	srv := server.NewServer("test-server")
	session := newMockClientSession("bad-version")
	require.NoError(t, srv.RegisterSession(session))
	defer srv.UnregisterSession(session.SessionID())

	req := protocol.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      "init-bad",
		Method:  protocol.MethodInitialize,
		Params:  protocol.InitializeRequestParams{ProtocolVersion: "1999-12-31"},
	}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	resp := srv.HandleMessage(context.Background(), session.SessionID(), reqBytes)
	assert.Nil(t, resp)

	sent := session.GetSentResponses()
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].Error)
	assert.Equal(t, protocol.ErrorCodeMCPUnsupportedProtocolVersion, sent[0].Error.Code)
}

func TestInitializeInvalidSequence(t *testing.T) {
	srv := server.NewServer("test-server")
	session := newMockClientSession("bad-sequence")
	require.NoError(t, srv.RegisterSession(session))
	defer srv.UnregisterSession(session.SessionID())

	notif := protocol.JSONRPCNotification{JSONRPC: "2.0", Method: protocol.MethodInitialized}
	notifBytes, err := json.Marshal(notif)
	require.NoError(t, err)

	resp := srv.HandleMessage(context.Background(), session.SessionID(), notifBytes)
	assert.Nil(t, resp)
	assert.Empty(t, session.GetSentResponses())
	assert.False(t, session.Initialized())
}

func TestToolCallRoundTrip(t *testing.T) {
	srv := server.NewServer("test-server")
	echoTool := protocol.Tool{Name: "echo", InputSchema: json.RawMessage(`{"type":"object"}`)}
	require.NoError(t, srv.RegisterTool(echoTool, func(ctx context.Context, pt *protocol.ProgressToken, args json.RawMessage) ([]protocol.Content, bool) {
		return []protocol.Content{protocol.TextContent{Type: "text", Text: "echo success"}}, false
	}))

	session := initializeSession(t, srv, protocol.CurrentProtocolVersion)
	defer srv.UnregisterSession(session.SessionID())

	callReq := protocol.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      "call-1",
		Method:  protocol.MethodCallTool,
		Params:  protocol.CallToolParams{Name: "echo", Arguments: json.RawMessage(`{}`)},
	}
	reqBytes, err := json.Marshal(callReq)
	require.NoError(t, err)

	resp := srv.HandleMessage(context.Background(), session.SessionID(), reqBytes)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	var result protocol.CallToolResult
	require.NoError(t, protocol.UnmarshalPayload(resp.Result, &result))
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(protocol.TextContent)
	require.True(t, ok)
	assert.Equal(t, "echo success", text.Text)
}

func TestReadResourceUsesRegisteredHandler(t *testing.T) {
	srv := server.NewServer("test-server")
	resource := protocol.Resource{URI: "test://fixed", Name: "fixed"}
	require.NoError(t, srv.RegisterResource(resource, func(ctx context.Context, uri string, params map[string]string) (protocol.ResourceContents, error) {
		return protocol.ResourceContents{URI: uri, Text: "fixed content"}, nil
	}))

	session := initializeSession(t, srv, protocol.CurrentProtocolVersion)
	defer srv.UnregisterSession(session.SessionID())

	readReq := protocol.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      "read-1",
		Method:  protocol.MethodReadResource,
		Params:  protocol.ReadResourceRequestParams{URI: "test://fixed"},
	}
	reqBytes, err := json.Marshal(readReq)
	require.NoError(t, err)

	resp := srv.HandleMessage(context.Background(), session.SessionID(), reqBytes)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	var result protocol.ReadResourceResult
	require.NoError(t, protocol.UnmarshalPayload(resp.Result, &result))
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "fixed content", result.Contents[0].Text)
}

func TestSubscribeAndPublishDeliversNotification(t *testing.T) {
	srv := server.NewServer("test-server")
	resource := protocol.Resource{URI: "test://watched", Name: "watched"}
	require.NoError(t, srv.RegisterResource(resource, nil))

	session := initializeSession(t, srv, protocol.CurrentProtocolVersion)
	defer srv.UnregisterSession(session.SessionID())

	subReq := protocol.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      "sub-1",
		Method:  protocol.MethodSubscribeResource,
		Params:  protocol.SubscribeResourceParams{URI: "test://watched"},
	}
	reqBytes, err := json.Marshal(subReq)
	require.NoError(t, err)
	resp := srv.HandleMessage(context.Background(), session.SessionID(), reqBytes)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	session.ClearMessages()
	srv.PublishResourceUpdate("test://watched")

	notifs := session.GetSentNotifications()
	require.Len(t, notifs, 1)
	assert.Equal(t, protocol.MethodNotifyResourceUpdated, notifs[0].Method)
}
