package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{"error": code, "error_description": description})
}

// ProtectedResourceMetadata implements GET /.well-known/oauth-protected-resource.
func (s *Server) ProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource":              s.Issuer,
		"authorization_servers": []string{s.Issuer},
	})
}

// AuthorizationServerMetadata implements GET /.well-known/oauth-authorization-server.
func (s *Server) AuthorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"issuer":                                s.Issuer,
		"authorization_endpoint":                s.Issuer + "/oauth/authorize",
		"token_endpoint":                        s.Issuer + "/oauth/token",
		"registration_endpoint":                 s.Issuer + "/oauth/register",
		"jwks_uri":                              s.Issuer + "/oauth/jwks",
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"response_types_supported":              []string{"code"},
		"code_challenge_methods_supported":      []string{"S256"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_post"},
	})
}

// JWKS implements GET /oauth/jwks, serving the public half of the signing key.
func (s *Server) JWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.jwkSet); err != nil {
		s.logger.Warn("failed to encode JWKS: %v", err)
	}
}

// registerRequest is the RFC 7591 dynamic client registration request body.
type registerRequest struct {
	RedirectURIs []string `json:"redirect_uris"`
}

// Register implements POST /oauth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "request body must be JSON")
		return
	}
	var redirectURI string
	if len(req.RedirectURIs) > 0 {
		redirectURI = req.RedirectURIs[0]
	}
	client := s.registerClient(redirectURI)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"client_id":                  client.ID,
		"client_secret":              client.Secret,
		"redirect_uris":              req.RedirectURIs,
		"token_endpoint_auth_method": "client_secret_post",
	})
}

// Authorize implements GET /oauth/authorize: it auto-approves (there is no
// login UI to drive in a test fixture) and redirects with an issued code.
func (s *Server) Authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	challenge := q.Get("code_challenge")
	method := q.Get("code_challenge_method")
	state := q.Get("state")

	if _, ok := s.lookupClient(clientID); !ok {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client", "unknown client_id")
		return
	}
	if method != "S256" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "code_challenge_method must be S256")
		return
	}
	if challenge == "" || redirectURI == "" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "code_challenge and redirect_uri are required")
		return
	}

	code := s.issueCode(clientID, redirectURI, challenge, method)
	location := redirectURI + "?code=" + code
	if state != "" {
		location += "&state=" + state
	}
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusFound)
}

// Token implements POST /oauth/token, handling both the authorization_code
// and refresh_token grants.
func (s *Server) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.exchangeAuthorizationCode(w, r)
	case "refresh_token":
		s.exchangeRefreshToken(w, r)
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "grant_type must be authorization_code or refresh_token")
	}
}

func (s *Server) exchangeAuthorizationCode(w http.ResponseWriter, r *http.Request) {
	code := r.PostForm.Get("code")
	verifier := r.PostForm.Get("code_verifier")
	clientID := r.PostForm.Get("client_id")

	rec, ok := s.consumeCode(code)
	if !ok {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "code is unknown, expired, or already used")
		return
	}
	if rec.clientID != clientID {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "code was not issued to this client")
		return
	}
	if !verifyPKCE(verifier, rec.codeChallenge) {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "code_verifier does not match code_challenge")
		return
	}

	s.respondWithTokens(w, clientID)
}

func (s *Server) exchangeRefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.PostForm.Get("refresh_token")
	rec, ok := s.consumeRefreshToken(token)
	if !ok {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "refresh_token is unknown")
		return
	}
	s.respondWithTokens(w, rec.clientID)
}

func (s *Server) respondWithTokens(w http.ResponseWriter, clientID string) {
	accessToken, err := s.signAccessToken(clientID)
	if err != nil {
		s.logger.Warn("failed to sign access token: %v", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "failed to issue access token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"token_type":    "Bearer",
		"expires_in":    int(accessTokenTTL.Seconds()),
		"refresh_token": s.issueRefreshToken(clientID),
	})
}

// verifyPKCE checks a code_verifier against a stored S256 code_challenge
// per RFC 7636: challenge = base64url(sha256(verifier)), no padding.
func verifyPKCE(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	sum := sha256.Sum256([]byte(verifier))
	computed := base64.RawURLEncoding.EncodeToString(sum[:])
	return computed == challenge
}
