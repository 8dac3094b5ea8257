package fixtures

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/server"
	"github.com/modelcontext/refserver/util/response"
)

// RegisterTools adds every tool fixture to srv.
func RegisterTools(srv *server.Server) {
	for _, t := range toolFixtures {
		if err := srv.RegisterTool(t.tool, t.handler); err != nil {
			panic("fixtures: " + t.tool.Name + ": " + err.Error())
		}
	}
}

type toolFixture struct {
	tool    protocol.Tool
	handler server.ToolHandlerFunc
}

type addArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type divideArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type failWithMessageArgs struct {
	Message string `json:"message"`
}

type base64Args struct {
	Value string `json:"value"`
}

type sleepArgs struct {
	DurationMS int `json:"duration_ms"`
}

type slowEchoArgs struct {
	Text       string `json:"text"`
	DurationMS int    `json:"duration_ms"`
}

var toolFixtures = []toolFixture{
	{
		tool: protocol.Tool{
			Name:        "add",
			Description: "Adds two numbers.",
			InputSchema: mustSchema(objectSchema(map[string]*jsonschema.Schema{
				"a": numberSchema("first addend"),
				"b": numberSchema("second addend"),
			}, "a", "b")),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			var args addArgs
			if err := decodeArgs(raw, &args); err != nil {
				return response.Error(err.Error())
			}
			return response.Text(fmt.Sprintf("%g", args.A+args.B))
		},
	},
	{
		tool: protocol.Tool{
			Name:        "divide",
			Description: "Divides a by b. Division by zero is a domain failure, not a protocol error.",
			InputSchema: mustSchema(objectSchema(map[string]*jsonschema.Schema{
				"a": numberSchema("dividend"),
				"b": numberSchema("divisor"),
			}, "a", "b")),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			var args divideArgs
			if err := decodeArgs(raw, &args); err != nil {
				return response.Error(err.Error())
			}
			if args.B == 0 {
				return response.Error("division by zero")
			}
			return response.Text(fmt.Sprintf("%g", args.A/args.B))
		},
	},
	{
		tool: protocol.Tool{
			Name:        "fail",
			Description: "Always returns a domain failure with a fixed message.",
			InputSchema: mustSchema(objectSchema(nil)),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			return response.Error("this tool always fails")
		},
	},
	{
		tool: protocol.Tool{
			Name:        "fail_with_message",
			Description: "Always fails, echoing the caller-supplied message.",
			InputSchema: mustSchema(objectSchema(map[string]*jsonschema.Schema{
				"message": stringSchema("message to echo back in the failure"),
			}, "message")),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			var args failWithMessageArgs
			if err := decodeArgs(raw, &args); err != nil {
				return response.Error(err.Error())
			}
			return response.Error(args.Message)
		},
	},
	{
		tool: protocol.Tool{
			Name:        "base64_encode",
			Description: "Encodes a string as standard base64.",
			InputSchema: mustSchema(objectSchema(map[string]*jsonschema.Schema{
				"value": stringSchema("string to encode"),
			}, "value")),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			var args base64Args
			if err := decodeArgs(raw, &args); err != nil {
				return response.Error(err.Error())
			}
			return response.Text(base64.StdEncoding.EncodeToString([]byte(args.Value)))
		},
	},
	{
		tool: protocol.Tool{
			Name:        "base64_decode",
			Description: "Decodes a standard base64 string.",
			InputSchema: mustSchema(objectSchema(map[string]*jsonschema.Schema{
				"value": stringSchema("base64 string to decode"),
			}, "value")),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			var args base64Args
			if err := decodeArgs(raw, &args); err != nil {
				return response.Error(err.Error())
			}
			decoded, err := base64.StdEncoding.DecodeString(args.Value)
			if err != nil {
				return response.Error("invalid base64: " + err.Error())
			}
			return response.Text(string(decoded))
		},
	},
	{
		tool: protocol.Tool{
			Name:        "sleep",
			Description: "Sleeps for the given duration before returning, or until the request is cancelled.",
			InputSchema: mustSchema(objectSchema(map[string]*jsonschema.Schema{
				"duration_ms": integerSchema("how long to sleep, in milliseconds"),
			}, "duration_ms")),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			var args sleepArgs
			if err := decodeArgs(raw, &args); err != nil {
				return response.Error(err.Error())
			}
			select {
			case <-time.After(time.Duration(args.DurationMS) * time.Millisecond):
			case <-ctx.Done():
			}
			return response.Text("awake")
		},
	},
	{
		tool: protocol.Tool{
			Name:        "slow_echo",
			Description: "Echoes text back after a delay, exercising slow-response framing.",
			InputSchema: mustSchema(objectSchema(map[string]*jsonschema.Schema{
				"text":        stringSchema("text to echo"),
				"duration_ms": integerSchema("delay before echoing, in milliseconds"),
			}, "text")),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			var args slowEchoArgs
			if err := decodeArgs(raw, &args); err != nil {
				return response.Error(err.Error())
			}
			select {
			case <-time.After(time.Duration(args.DurationMS) * time.Millisecond):
			case <-ctx.Done():
			}
			return response.Text(args.Text)
		},
	},
	{
		tool: protocol.Tool{
			Name:        "task_cancellable",
			Description: "Runs until cancelled or a generous timeout elapses; meant to be invoked via tasks/create and cancelled via tasks/cancel.",
			InputSchema: mustSchema(objectSchema(nil)),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			select {
			case <-ctx.Done():
				return response.Error("cancelled")
			case <-time.After(5 * time.Minute):
				return response.Text("timed out waiting to be cancelled")
			}
		},
	},
	{
		tool: protocol.Tool{
			Name:        "task_slow_compute",
			Description: "Simulates a long-running computation by sleeping for the given duration, then returns a result; meant to be invoked via tasks/create.",
			InputSchema: mustSchema(objectSchema(map[string]*jsonschema.Schema{
				"duration_ms": integerSchema("how long the computation takes, in milliseconds"),
			}, "duration_ms")),
		},
		handler: func(ctx context.Context, progressToken *protocol.ProgressToken, raw json.RawMessage) ([]protocol.Content, bool) {
			var args sleepArgs
			if err := decodeArgs(raw, &args); err != nil {
				return response.Error(err.Error())
			}
			select {
			case <-time.After(time.Duration(args.DurationMS) * time.Millisecond):
			case <-ctx.Done():
				return response.Error("cancelled")
			}
			return response.Text("computation complete")
		},
	},
}
