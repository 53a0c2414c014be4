// Package actor identifies the editing session performing an action.
//
// There are no accounts in this system: each client session generates a
// short random identifier and sends it on every request. The ID is used
// for advisory locking and for the audit trail, and is always threaded
// through context and explicit parameters, never a process global.
package actor

import (
	"context"
	"fmt"
	"math/rand"
)

// HeaderName is the HTTP header clients use to send their session ID.
const HeaderName = "X-Actor-ID"

type contextKey string

const actorContextKey contextKey = "actor_id"

// NewID generates a session identifier in the same shape clients use.
// Intended for tools and tests, not for request handling: the caller of
// the API owns its identity.
func NewID() string {
	return fmt.Sprintf("user_%03d", rand.Intn(1000))
}

// FromContext retrieves the actor ID from the context.
// Returns the empty string if none is present.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(actorContextKey).(string)
	return id
}

// WithID returns a new context with the actor ID attached.
func WithID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, id)
}
