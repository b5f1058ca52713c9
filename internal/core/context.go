package core

import "context"

type contextKey string

const (
	ctxKeyJobID     contextKey = "job_id"
	ctxKeyIPAddress contextKey = "client_ip"
)

// ContextWithJobID tags ctx with the id of the running fill job.
func ContextWithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyJobID, id)
}

// JobIDFromContext extracts the fill job id, or "" when none is set.
func JobIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyJobID).(string); ok {
		return v
	}
	return ""
}

// ContextWithIPAddress adds the client IP to context for logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// IPAddressFromContext extracts the client IP, or "" when none is set.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
