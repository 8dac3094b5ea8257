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

func registerInstantTool(t *testing.T, srv *server.Server, name string) {
	t.Helper()
	tool := protocol.Tool{Name: name, InputSchema: json.RawMessage(`{"type":"object"}`)}
	require.NoError(t, srv.RegisterTool(tool, func(ctx context.Context, pt *protocol.ProgressToken, args json.RawMessage) ([]protocol.Content, bool) {
		return []protocol.Content{protocol.TextContent{Type: "text", Text: "done"}}, false
	}))
}

func registerBlockingTool(t *testing.T, srv *server.Server, name string) {
	t.Helper()
	tool := protocol.Tool{Name: name, InputSchema: json.RawMessage(`{"type":"object"}`)}
	require.NoError(t, srv.RegisterTool(tool, func(ctx context.Context, pt *protocol.ProgressToken, args json.RawMessage) ([]protocol.Content, bool) {
		<-ctx.Done()
		return []protocol.Content{protocol.TextContent{Type: "text", Text: "cancelled"}}, true
	}))
}

func taskCall(t *testing.T, srv *server.Server, sessionID string, method string, params interface{}) *protocol.JSONRPCResponse {
	t.Helper()
	req := protocol.JSONRPCRequest{JSONRPC: "2.0", ID: method, Method: method, Params: params}
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	resp := srv.HandleMessage(context.Background(), sessionID, raw)
	require.NotNil(t, resp)
	return resp
}

func TestTaskLifecycleCompletesSuccessfully(t *testing.T) {
	srv := server.NewServer("test-server")
	registerInstantTool(t, srv, "quick")
	session := newMockClientSession("tasks-owner")
	require.NoError(t, srv.RegisterSession(session))
	session.Initialize()
	defer srv.UnregisterSession(session.SessionID())

	createResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksCreate, protocol.CreateTaskParams{Name: "quick"})
	require.Nil(t, createResp.Error)
	var created protocol.CreateTaskResult
	require.NoError(t, protocol.UnmarshalPayload(createResp.Result, &created))
	assert.NotEmpty(t, created.Task.ID)

	require.Eventually(t, func() bool {
		getResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksGet, protocol.GetTaskParams{ID: created.Task.ID})
		if getResp.Error != nil {
			return false
		}
		var got protocol.GetTaskResult
		require.NoError(t, protocol.UnmarshalPayload(getResp.Result, &got))
		return got.Task.Status == protocol.TaskStatusCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestTaskCancelStopsRunningTask(t *testing.T) {
	srv := server.NewServer("test-server")
	registerBlockingTool(t, srv, "blocker")
	session := newMockClientSession("tasks-canceller")
	require.NoError(t, srv.RegisterSession(session))
	session.Initialize()
	defer srv.UnregisterSession(session.SessionID())

	createResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksCreate, protocol.CreateTaskParams{Name: "blocker"})
	require.Nil(t, createResp.Error)
	var created protocol.CreateTaskResult
	require.NoError(t, protocol.UnmarshalPayload(createResp.Result, &created))

	require.Eventually(t, func() bool {
		getResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksGet, protocol.GetTaskParams{ID: created.Task.ID})
		var got protocol.GetTaskResult
		require.NoError(t, protocol.UnmarshalPayload(getResp.Result, &got))
		return got.Task.Status == protocol.TaskStatusRunning
	}, time.Second, 5*time.Millisecond)

	cancelResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksCancel, protocol.CancelTaskParams{ID: created.Task.ID})
	require.Nil(t, cancelResp.Error)

	require.Eventually(t, func() bool {
		getResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksGet, protocol.GetTaskParams{ID: created.Task.ID})
		var got protocol.GetTaskResult
		require.NoError(t, protocol.UnmarshalPayload(getResp.Result, &got))
		return got.Task.Status == protocol.TaskStatusCancelled
	}, time.Second, 5*time.Millisecond)
}

func TestTaskCancelUnknownIDIsNotFound(t *testing.T) {
	srv := server.NewServer("test-server")
	session := newMockClientSession("tasks-unknown")
	require.NoError(t, srv.RegisterSession(session))
	session.Initialize()
	defer srv.UnregisterSession(session.SessionID())

	resp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksCancel, protocol.CancelTaskParams{ID: "does-not-exist"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeMCPTaskNotFound, resp.Error.Code)
}

func TestTaskDeleteRequiresTerminalState(t *testing.T) {
	srv := server.NewServer("test-server")
	registerBlockingTool(t, srv, "long-runner")
	session := newMockClientSession("tasks-deleter")
	require.NoError(t, srv.RegisterSession(session))
	session.Initialize()
	defer srv.UnregisterSession(session.SessionID())

	createResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksCreate, protocol.CreateTaskParams{Name: "long-runner"})
	var created protocol.CreateTaskResult
	require.NoError(t, protocol.UnmarshalPayload(createResp.Result, &created))

	require.Eventually(t, func() bool {
		getResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksGet, protocol.GetTaskParams{ID: created.Task.ID})
		var got protocol.GetTaskResult
		require.NoError(t, protocol.UnmarshalPayload(getResp.Result, &got))
		return got.Task.Status == protocol.TaskStatusRunning
	}, time.Second, 5*time.Millisecond)

	deleteResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksDelete, protocol.DeleteTaskParams{ID: created.Task.ID})
	require.NotNil(t, deleteResp.Error)

	taskCall(t, srv, session.SessionID(), protocol.MethodTasksCancel, protocol.CancelTaskParams{ID: created.Task.ID})
	require.Eventually(t, func() bool {
		resp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksDelete, protocol.DeleteTaskParams{ID: created.Task.ID})
		return resp.Error == nil
	}, time.Second, 5*time.Millisecond)
}

func TestTaskListReturnsCreatedTasks(t *testing.T) {
	srv := server.NewServer("test-server")
	registerInstantTool(t, srv, "listed")
	session := newMockClientSession("tasks-lister")
	require.NoError(t, srv.RegisterSession(session))
	session.Initialize()
	defer srv.UnregisterSession(session.SessionID())

	taskCall(t, srv, session.SessionID(), protocol.MethodTasksCreate, protocol.CreateTaskParams{Name: "listed"})
	taskCall(t, srv, session.SessionID(), protocol.MethodTasksCreate, protocol.CreateTaskParams{Name: "listed"})

	listResp := taskCall(t, srv, session.SessionID(), protocol.MethodTasksList, protocol.ListTasksParams{})
	require.Nil(t, listResp.Error)
	var listed protocol.ListTasksResult
	require.NoError(t, protocol.UnmarshalPayload(listResp.Result, &listed))
	assert.Len(t, listed.Tasks, 2)
}
