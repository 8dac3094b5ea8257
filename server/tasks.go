package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/types"
)

// Task tracks one asynchronous tool invocation started via tasks/create. OwnerSessionID
// is stored by value rather than a session reference so a task can outlive the session
// that created it without pinning it in memory or creating a retain cycle.
type Task struct {
	mu             sync.Mutex
	ID             string
	Name           string
	OwnerSessionID string
	Status         protocol.TaskStatus
	Result         *protocol.CallToolResult
	Err            *protocol.ErrorPayload
	cancelCh       chan struct{}
	cancelOnce     sync.Once
}

func (t *Task) cancel() {
	t.cancelOnce.Do(func() { close(t.cancelCh) })
}

func (t *Task) snapshot() protocol.TaskSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return protocol.TaskSnapshot{
		ID:     t.ID,
		Name:   t.Name,
		Status: t.Status,
		Result: t.Result,
		Error:  t.Err,
	}
}

// TaskRegistry runs tool calls as detached, cancellable background tasks and
// publishes status transitions to the owning session.
type TaskRegistry struct {
	srv *Server

	mu    sync.RWMutex
	tasks map[string]*Task
	order []string
}

// NewTaskRegistry creates a task registry bound to srv for tool lookup and notification
// delivery.
func NewTaskRegistry(srv *Server) *TaskRegistry {
	return &TaskRegistry{srv: srv, tasks: make(map[string]*Task)}
}

func (r *TaskRegistry) publish(t *Task) {
	snap := t.snapshot()
	session, ok := r.srv.sessionByID(t.OwnerSessionID)
	if !ok {
		return
	}
	params := protocol.TaskStatusChangedParams{Task: snap}
	if err := r.srv.sendNotificationToSession(session, protocol.MethodNotifyTasksStatus, params); err != nil {
		r.srv.logger.Warn("failed to deliver task status for %s to session %s: %v", t.ID, t.OwnerSessionID, err)
	}
}

// Create registers a new task and runs the named tool on a detached goroutine.
func (r *TaskRegistry) Create(sessionID, name string, arguments json.RawMessage) (*Task, error) {
	r.srv.registryMu.RLock()
	handler, exists := r.srv.toolHandlers[name]
	r.srv.registryMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("tool '%s' not found", name)
	}

	t := &Task{
		ID:             uuid.NewString(),
		Name:           name,
		OwnerSessionID: sessionID,
		Status:         protocol.TaskStatusPending,
		cancelCh:       make(chan struct{}),
	}

	r.mu.Lock()
	r.tasks[t.ID] = t
	r.order = append(r.order, t.ID)
	r.mu.Unlock()

	go r.run(t, handler, arguments)
	return t, nil
}

func (r *TaskRegistry) run(t *Task, handler ToolHandlerFunc, arguments json.RawMessage) {
	t.mu.Lock()
	t.Status = protocol.TaskStatusRunning
	t.mu.Unlock()
	r.publish(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-t.cancelCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	content, isError := handler(ctx, nil, arguments)

	t.mu.Lock()
	select {
	case <-t.cancelCh:
		t.Status = protocol.TaskStatusCancelled
	default:
		if isError {
			t.Status = protocol.TaskStatusFailed
			t.Err = &protocol.ErrorPayload{Code: protocol.ErrorCodeMCPToolExecutionError, Message: "tool execution failed"}
		} else {
			t.Status = protocol.TaskStatusCompleted
			t.Result = &protocol.CallToolResult{Content: content, IsError: isError}
		}
	}
	t.mu.Unlock()
	r.publish(t)
}

func (r *TaskRegistry) Get(id string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

// Cancel requests cooperative cancellation of a running or pending task. It is a no-op
// (but not an error) if the task has already reached a terminal state.
func (r *TaskRegistry) Cancel(id string) (*Task, error) {
	t, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("task '%s' not found", id)
	}
	t.mu.Lock()
	terminal := t.Status.Terminal()
	t.mu.Unlock()
	if terminal {
		return t, nil
	}
	t.cancel()
	return t, nil
}

func (r *TaskRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("task '%s' not found", id)
	}
	if !t.snapshot().Status.Terminal() {
		return fmt.Errorf("task '%s' must be cancelled before it can be deleted", id)
	}
	delete(r.tasks, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns a stable-ordered snapshot of all tasks.
func (r *TaskRegistry) List() []protocol.TaskSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.TaskSnapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id].snapshot())
	}
	return out
}

// --- Dispatch handlers ---

func (s *Server) handleTasksCreate(ctx context.Context, session types.ClientSession, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var params protocol.CreateTaskParams
	if err := protocol.UnmarshalPayload(rawParams, &params); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal tasks/create params: %v", err))
	}
	argBytes, err := json.Marshal(params.Arguments)
	if err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := s.validateToolArguments(params.Name, argBytes); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, err.Error())
	}
	t, err := s.tasks.Create(session.SessionID(), params.Name, argBytes)
	if err != nil {
		return createErrorResponse(id, protocol.ErrorCodeMCPToolNotFound, err.Error())
	}
	return createSuccessResponse(id, protocol.CreateTaskResult{Task: t.snapshot()})
}

func (s *Server) handleTasksGet(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var params protocol.GetTaskParams
	if err := protocol.UnmarshalPayload(rawParams, &params); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal tasks/get params: %v", err))
	}
	t, ok := s.tasks.Get(params.ID)
	if !ok {
		return createErrorResponse(id, protocol.ErrorCodeMCPTaskNotFound, fmt.Sprintf("task '%s' not found", params.ID))
	}
	return createSuccessResponse(id, protocol.GetTaskResult{Task: t.snapshot()})
}

func (s *Server) handleTasksCancel(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var params protocol.CancelTaskParams
	if err := protocol.UnmarshalPayload(rawParams, &params); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal tasks/cancel params: %v", err))
	}
	t, err := s.tasks.Cancel(params.ID)
	if err != nil {
		if t == nil {
			return createErrorResponse(id, protocol.ErrorCodeMCPTaskNotFound, err.Error())
		}
		return createErrorResponse(id, protocol.ErrorCodeMCPTaskNotCancellable, err.Error())
	}
	return createSuccessResponse(id, protocol.CancelTaskResult{Task: t.snapshot()})
}

func (s *Server) handleTasksDelete(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var params protocol.DeleteTaskParams
	if err := protocol.UnmarshalPayload(rawParams, &params); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal tasks/delete params: %v", err))
	}
	if err := s.tasks.Delete(params.ID); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeMCPTaskNotFound, err.Error())
	}
	return createSuccessResponse(id, protocol.DeleteTaskResult{})
}

func (s *Server) handleTasksList(ctx context.Context, id interface{}, rawParams json.RawMessage) *protocol.JSONRPCResponse {
	var params protocol.ListTasksParams
	if err := protocol.UnmarshalPayload(rawParams, &params); err != nil {
		return createErrorResponse(id, protocol.ErrorCodeInvalidParams, fmt.Sprintf("Failed to unmarshal tasks/list params: %v", err))
	}
	all := s.tasks.List()
	page, nextCursor, err := paginateTasks(all, params.Cursor)
	if err != nil {
		return createErrorResponse(id, protocol.ErrorCodeMCPInvalidCursor, err.Error())
	}
	return createSuccessResponse(id, protocol.ListTasksResult{Tasks: page, NextCursor: nextCursor})
}
