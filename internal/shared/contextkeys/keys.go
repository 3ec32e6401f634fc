package contextkeys

import "context"

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "firestore-client context key " + string(c)
}

const (
	// RequestIDKey correlates the log lines of one client call.
	RequestIDKey  = contextKey("requestID")
	ProjectIDKey  = contextKey("projectID")
	DatabaseIDKey = contextKey("databaseID")
	OperationKey  = contextKey("operation")
)

// WithDatabase returns a copy of ctx tagged with the database a call targets.
func WithDatabase(ctx context.Context, projectID, databaseID string) context.Context {
	ctx = context.WithValue(ctx, ProjectIDKey, projectID)
	return context.WithValue(ctx, DatabaseIDKey, databaseID)
}

// WithOperation returns a copy of ctx tagged with the request id and operation name.
func WithOperation(ctx context.Context, requestID, operation string) context.Context {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	return context.WithValue(ctx, OperationKey, operation)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
