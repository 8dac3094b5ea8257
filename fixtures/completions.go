package fixtures

import (
	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/server"
)

// RegisterCompletions seeds the completion table with candidate values for
// the arguments of the prompt and resource-template fixtures.
func RegisterCompletions(srv *server.Server) {
	c := srv.Completer()
	c.Register(protocol.RefTypePrompt, "greet", "name", []string{"alice", "bob", "charlie"})
	c.Register(protocol.RefTypePrompt, "code_review", "language", []string{"go", "python", "rust", "typescript"})
	c.Register(protocol.RefTypeResource, "test://template/{category}/{id}", "category", []string{"widgets", "gadgets", "gizmos"})
}
