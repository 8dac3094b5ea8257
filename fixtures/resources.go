package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/server"
)

// RandomResource backs test://dynamic/random. Its value only changes when
// Mutate is called, which an external driver (a scheduled job, in
// production wiring) does periodically; resources/read always returns the
// current value without mutating it itself.
type RandomResource struct {
	srv     *server.Server
	uri     string
	value   atomic.Uint64
	version atomic.Uint64
	rng     *rand.Rand
}

// NewRandomResource creates the fixture and registers it on srv. Callers
// that want the §4.4 external-trigger scenario wire a ticker against the
// returned value's Mutate method.
func NewRandomResource(srv *server.Server, seed int64) *RandomResource {
	r := &RandomResource{srv: srv, uri: "test://dynamic/random", rng: rand.New(rand.NewSource(seed))}
	r.value.Store(r.rng.Uint64())
	return r
}

// Mutate draws a new random value, bumps the version, and publishes
// notifications/resources/updated to every subscriber.
func (r *RandomResource) Mutate() {
	r.value.Store(r.rng.Uint64())
	r.version.Add(1)
	r.srv.PublishResourceUpdate(r.uri)
}

func (r *RandomResource) read(ctx context.Context, uri string, params map[string]string) (protocol.ResourceContents, error) {
	return protocol.ResourceContents{
		URI:      r.uri,
		MimeType: "text/plain",
		Text:     fmt.Sprintf("%d", r.value.Load()),
	}, nil
}

// counterResource backs test://dynamic/counter: each read returns a
// strictly increasing integer, process-wide (a superset of "within one
// session" per the read invariant).
type counterResource struct {
	uri   string
	value atomic.Uint64
}

func (c *counterResource) read(ctx context.Context, uri string, params map[string]string) (protocol.ResourceContents, error) {
	next := c.value.Add(1)
	return protocol.ResourceContents{
		URI:      c.uri,
		MimeType: "text/plain",
		Text:     fmt.Sprintf("%d", next),
	}, nil
}

func staticGreeting(ctx context.Context, uri string, params map[string]string) (protocol.ResourceContents, error) {
	return protocol.ResourceContents{
		URI:      uri,
		MimeType: "text/plain",
		Text:     "hello from the reference server",
	}, nil
}

func templatedItem(ctx context.Context, uri string, params map[string]string) (protocol.ResourceContents, error) {
	return protocol.ResourceContents{
		URI:      uri,
		MimeType: "text/plain",
		Text:     fmt.Sprintf("category=%s id=%s", params["category"], params["id"]),
	}, nil
}

// RegisterResources adds every resource and resource-template fixture to
// srv, returning the random fixture so the caller can drive its external
// mutation trigger.
func RegisterResources(srv *server.Server) *RandomResource {
	mustRegisterResource(srv, protocol.Resource{
		URI:         "test://static/greeting",
		Name:        "greeting",
		Description: "A fixed text resource.",
		MimeType:    "text/plain",
	}, staticGreeting)

	counter := &counterResource{uri: "test://dynamic/counter"}
	mustRegisterResource(srv, protocol.Resource{
		URI:         "test://dynamic/counter",
		Name:        "counter",
		Description: "Returns a strictly increasing integer on every read.",
		MimeType:    "text/plain",
	}, counter.read)

	random := NewRandomResource(srv, 1)
	mustRegisterResource(srv, protocol.Resource{
		URI:         "test://dynamic/random",
		Name:        "random",
		Description: "Returns a pseudo-random integer that changes on an external trigger, subscribable for resources/updated.",
		MimeType:    "text/plain",
	}, random.read)

	if err := srv.RegisterResourceTemplate(protocol.ResourceTemplate{
		URITemplate: "test://template/{category}/{id}",
		Name:        "templated-item",
		Description: "Echoes the category and id extracted from the requested URI.",
		MimeType:    "text/plain",
	}, templatedItem); err != nil {
		panic("fixtures: test://template/{category}/{id}: " + err.Error())
	}

	return random
}

func mustRegisterResource(srv *server.Server, resource protocol.Resource, handler server.ResourceHandlerFunc) {
	if err := srv.RegisterResource(resource, handler); err != nil {
		panic("fixtures: " + resource.URI + ": " + err.Error())
	}
}
