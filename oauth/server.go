// Package oauth implements the mock OAuth 2.1 authorization server fixture:
// discovery, dynamic client registration, PKCE authorization code, and
// refresh token grant. None of it is a real identity provider — it exists
// so an MCP client library under test can exercise a full OAuth round trip
// against a deterministic peer.
package oauth

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/modelcontext/refserver/logx"
)

const (
	accessTokenTTL  = 10 * time.Minute
	authCodeTTL     = 2 * time.Minute
	signingKeyID    = "mock-1"
)

// Client is a dynamically registered OAuth client (RFC 7591).
type Client struct {
	ID          string
	Secret      string
	RedirectURI string
}

// authorizationCode is the server-side record behind an issued `code`,
// carrying the PKCE challenge it must be redeemed against.
type authorizationCode struct {
	clientID            string
	redirectURI         string
	codeChallenge       string
	codeChallengeMethod string
	expiresAt           time.Time
}

// refreshToken is the server-side record behind an opaque refresh token.
type refreshToken struct {
	clientID string
}

// Server is the mock authorization server's state: registered clients,
// outstanding authorization codes, and issued refresh tokens, plus the
// RSA key pair it signs access tokens with.
type Server struct {
	Issuer string

	logger     logx.Logger
	signingKey *rsa.PrivateKey
	jwkSet     jwk.Set

	mu      sync.Mutex
	clients map[string]*Client
	codes   map[string]*authorizationCode
	refresh map[string]*refreshToken
}

// NewServer generates a fresh signing key and returns an empty mock
// authorization server rooted at issuer (the externally visible base URL).
func NewServer(issuer string, logger logx.Logger) (*Server, error) {
	if logger == nil {
		logger = logx.NewDefaultLogger()
	}
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("oauth: generating signing key: %w", err)
	}

	pubKey, err := jwk.FromRaw(key.Public())
	if err != nil {
		return nil, fmt.Errorf("oauth: building JWK: %w", err)
	}
	if err := pubKey.Set(jwk.KeyIDKey, signingKeyID); err != nil {
		return nil, fmt.Errorf("oauth: setting kid: %w", err)
	}
	if err := pubKey.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		return nil, fmt.Errorf("oauth: setting alg: %w", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(pubKey); err != nil {
		return nil, fmt.Errorf("oauth: assembling JWK set: %w", err)
	}

	return &Server{
		Issuer:     issuer,
		logger:     logger,
		signingKey: key,
		jwkSet:     set,
		clients:    make(map[string]*Client),
		codes:      make(map[string]*authorizationCode),
		refresh:    make(map[string]*refreshToken),
	}, nil
}

func (s *Server) registerClient(redirectURI string) *Client {
	c := &Client{
		ID:          uuid.NewString(),
		Secret:      uuid.NewString(),
		RedirectURI: redirectURI,
	}
	s.mu.Lock()
	s.clients[c.ID] = c
	s.mu.Unlock()
	return c
}

func (s *Server) lookupClient(id string) (*Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	return c, ok
}

func (s *Server) issueCode(clientID, redirectURI, challenge, method string) string {
	code := uuid.NewString()
	s.mu.Lock()
	s.codes[code] = &authorizationCode{
		clientID:            clientID,
		redirectURI:         redirectURI,
		codeChallenge:       challenge,
		codeChallengeMethod: method,
		expiresAt:           time.Now().Add(authCodeTTL),
	}
	s.mu.Unlock()
	return code
}

func (s *Server) consumeCode(code string) (*authorizationCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.codes[code]
	if !ok {
		return nil, false
	}
	delete(s.codes, code)
	if time.Now().After(rec.expiresAt) {
		return nil, false
	}
	return rec, true
}

func (s *Server) issueRefreshToken(clientID string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.refresh[token] = &refreshToken{clientID: clientID}
	s.mu.Unlock()
	return token
}

func (s *Server) consumeRefreshToken(token string) (*refreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.refresh[token]
	return rec, ok
}

func (s *Server) signAccessToken(clientID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.Issuer,
		"sub": clientID,
		"aud": s.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(accessTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = signingKeyID
	return token.SignedString(s.signingKey)
}
