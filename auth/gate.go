// Package auth provides interfaces and structures for handling authentication
// and authorization within the MCP server.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/modelcontext/refserver/logx"
)

// allowedOrigins is the exact scheme+host allowlist: http://localhost,
// http://127.0.0.1, https://localhost. Any port on those is accepted;
// https://127.0.0.1 is deliberately not allowed.
var allowedOrigins = map[string]bool{
	"http:localhost":  true,
	"http:127.0.0.1":  true,
	"https:localhost": true,
}

// GateConfig configures the Auth/Origin Gate middleware.
type GateConfig struct {
	// APIKey, if non-empty, is the bearer token every non-exempt request must present.
	// Leaving it empty disables the API key check entirely.
	APIKey string
	// Logger receives debug-level records of rejected requests. Never logs the key itself.
	Logger logx.Logger
}

// Gate is net/http middleware enforcing the Origin allowlist and, when configured,
// a constant-time bearer token check. The server mounts it in front of /mcp only;
// /health and the OAuth endpoints are not gated.
type Gate struct {
	apiKey string
	logger logx.Logger
}

// NewGate builds a Gate from config, defaulting to a standard logger when none is given.
func NewGate(config GateConfig) *Gate {
	logger := config.Logger
	if logger == nil {
		logger = logx.NewDefaultLogger()
	}
	return &Gate{apiKey: config.APIKey, logger: logger}
}

// Wrap returns next guarded by the gate's Origin and API key checks.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && !originAllowed(origin) {
			g.logger.Debug("rejected request from %s: origin %q not allowed", r.RemoteAddr, origin)
			forbidden(w, "Origin not allowed")
			return
		}

		if g.apiKey != "" && !g.bearerMatches(r.Header.Get("Authorization")) {
			g.logger.Debug("rejected request from %s: missing or invalid bearer token", r.RemoteAddr)
			forbidden(w, "missing or invalid bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Gate) bearerMatches(header string) bool {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	presented := strings.TrimPrefix(header, prefix)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(g.apiKey)) == 1
}

func originAllowed(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return allowedOrigins[u.Scheme+":"+u.Hostname()]
}

func forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "forbidden",
		"message": message,
	})
}
