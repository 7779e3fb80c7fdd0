// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// ActorContext contains the resolved identity performing a request.
// Authentication itself is an external collaborator; by the time the
// core runs, the actor has already been resolved.
type ActorContext struct {
	UserID   string
	ChurchID string
	Email    string
	Roles    []string
	IsAdmin  bool
}

type actorContextKey struct{}

// WithActor adds ActorContext to context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns ActorContext from context.
func GetActor(ctx context.Context) *ActorContext {
	if v, ok := ctx.Value(actorContextKey{}).(*ActorContext); ok {
		return v
	}
	return nil
}

// GetActorID returns the acting user id from context or empty string.
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.UserID
	}
	return ""
}

// GetChurchID returns tenant id from context or empty string.
func GetChurchID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.ChurchID
	}
	return ""
}

// HasRole checks if actor has specific role.
func HasRole(ctx context.Context, role string) bool {
	a := GetActor(ctx)
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
