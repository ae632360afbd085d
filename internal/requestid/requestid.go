// Package requestid carries the per-request correlation id from the HTTP
// edge to outbound calls.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header carries the correlation id on requests and responses.
const Header = "X-Request-ID"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the id stored in ctx, or "" if there is none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Ensure returns the id stored in ctx, or a new UUID when ctx has none.
func Ensure(ctx context.Context) string {
	if id := FromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
