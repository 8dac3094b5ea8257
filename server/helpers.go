package server

import "github.com/modelcontext/refserver/protocol"

// Text wraps a plain string as a text content block.
func Text(s string) protocol.Content {
	return protocol.TextContent{Type: "text", Text: s}
}

// Message builds a single-block prompt message.
func Message(role string, content string) protocol.PromptMessage {
	return protocol.PromptMessage{
		Role:    role,
		Content: []protocol.Content{Text(content)},
	}
}
