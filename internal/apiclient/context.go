package apiclient

import "context"

type ctxKey int

const (
	tokenKey ctxKey = iota
	requestIDKey
)

// WithToken attaches the backend bearer token of the current user to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFrom returns the token set by WithToken, if any.
func TokenFrom(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey).(string)
	return s
}

// WithRequestID attaches the inbound request id so it is forwarded upstream.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the id set by WithRequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}
