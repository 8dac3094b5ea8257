package fixtures

import (
	"context"
	"fmt"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/server"
)

type promptFixture struct {
	prompt  protocol.Prompt
	handler server.PromptHandlerFunc
}

// RegisterPrompts adds every prompt fixture to srv.
func RegisterPrompts(srv *server.Server) {
	for _, p := range promptFixtures {
		if err := srv.RegisterPrompt(p.prompt, p.handler); err != nil {
			panic("fixtures: " + p.prompt.Name + ": " + err.Error())
		}
	}
}

func stringArg(arguments map[string]interface{}, name string) string {
	v, _ := arguments[name].(string)
	return v
}

var promptFixtures = []promptFixture{
	{
		prompt: protocol.Prompt{
			Name:        "greet",
			Description: "Renders a single user-role greeting message.",
			Arguments: []protocol.PromptArgument{
				{Name: "name", Description: "who to greet", Required: true},
			},
		},
		handler: func(ctx context.Context, arguments map[string]interface{}) (protocol.GetPromptResult, error) {
			name := stringArg(arguments, "name")
			if name == "" {
				return protocol.GetPromptResult{}, fmt.Errorf("argument 'name' is required")
			}
			return protocol.GetPromptResult{
				Description: "A friendly greeting",
				Messages: []protocol.PromptMessage{
					{
						Role:    "user",
						Content: []protocol.Content{protocol.TextContent{Type: "text", Text: fmt.Sprintf("Say hello to %s.", name)}},
					},
				},
			}, nil
		},
	},
	{
		prompt: protocol.Prompt{
			Name:        "code_review",
			Description: "Renders a two-message exchange priming a code review.",
			Arguments: []protocol.PromptArgument{
				{Name: "language", Description: "source language", Required: false},
				{Name: "snippet", Description: "code to review", Required: true},
			},
		},
		handler: func(ctx context.Context, arguments map[string]interface{}) (protocol.GetPromptResult, error) {
			snippet := stringArg(arguments, "snippet")
			if snippet == "" {
				return protocol.GetPromptResult{}, fmt.Errorf("argument 'snippet' is required")
			}
			language := stringArg(arguments, "language")
			if language == "" {
				language = "unknown"
			}
			return protocol.GetPromptResult{
				Description: "Code review priming sequence",
				Messages: []protocol.PromptMessage{
					{
						Role:    "user",
						Content: []protocol.Content{protocol.TextContent{Type: "text", Text: fmt.Sprintf("Review this %s snippet:\n%s", language, snippet)}},
					},
					{
						Role:    "assistant",
						Content: []protocol.Content{protocol.TextContent{Type: "text", Text: "Understood, I will review it for correctness and style."}},
					},
				},
			}, nil
		},
	},
}
