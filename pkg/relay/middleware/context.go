package middleware

import (
	"context"
	"time"
)

type startTimeKey struct{}

func withStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

// GetStartTime reports when LoggingMiddleware first saw the request, or
// the zero time outside that middleware.
func GetStartTime(ctx context.Context) time.Time {
	t, _ := ctx.Value(startTimeKey{}).(time.Time)
	return t
}
