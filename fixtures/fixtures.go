package fixtures

import "github.com/modelcontext/refserver/server"

// RegisterAll wires every fixture catalog — tools, resources, prompts, and
// completions — onto srv, returning the random resource so the caller can
// drive its external mutation trigger (see RandomResource.Mutate).
func RegisterAll(srv *server.Server) *RandomResource {
	RegisterTools(srv)
	random := RegisterResources(srv)
	RegisterPrompts(srv)
	RegisterCompletions(srv)
	return random
}
