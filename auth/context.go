package auth

import (
	"context"
	"strings"
)

type tokenKeyType struct{}

var tokenKey = tokenKeyType{}

// ContextWithToken embeds a bearer token (with any "Bearer " prefix stripped)
// in ctx, for handlers downstream of the Gate that need the raw credential
// rather than just a pass/fail decision.
func ContextWithToken(ctx context.Context, token string) context.Context {
	token = strings.TrimPrefix(token, "Bearer ")
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext retrieves the token stored by ContextWithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}
