package domain

import "context"

// RequestInfo identifies the caller of a scoring operation.
type RequestInfo struct {
	RequestID string
	Transport string // http, ws, grpc, cli
	ClientIP  string
	UserAgent string
}

type requestInfoKey struct{}

// WithRequestInfo attaches info to ctx for auditing and metrics.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the RequestInfo stored in ctx, if any.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
