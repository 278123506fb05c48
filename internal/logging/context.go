package logging

import "context"

type requestIDKey struct{}
type projectKey struct{}

// WithRequestID tags ctx with the HTTP request ID. Empty IDs are ignored.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithProject tags ctx with the name of the project record being changed.
func WithProject(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, projectKey{}, name)
}

func ProjectFromContext(ctx context.Context) string {
	name, _ := ctx.Value(projectKey{}).(string)
	return name
}
