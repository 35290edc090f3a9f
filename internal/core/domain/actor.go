package domain

import "context"

// ActorID identifies who performed a write, for audit purposes.
type ActorID string

// SystemActor is attributed to writes the service performs on its own behalf
// (startup seeding, maintenance jobs).
const SystemActor ActorID = "system"

type actorCtxKey struct{}

// actorValue wraps the stored id so a cleared context can shadow a parent's actor.
type actorValue struct {
	id  ActorID
	set bool
}

// WithActor returns a copy of ctx carrying id as the acting identity.
func WithActor(ctx context.Context, id ActorID) context.Context {
	if id == "" {
		return ClearActor(ctx)
	}
	return context.WithValue(ctx, actorCtxKey{}, actorValue{id: id, set: true})
}

// ClearActor returns a copy of ctx in which no actor is visible, even if a
// parent context carried one.
func ClearActor(ctx context.Context) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actorValue{})
}

// ActorFromContext reports the acting identity stored in ctx, if any.
func ActorFromContext(ctx context.Context) (ActorID, bool) {
	v, ok := ctx.Value(actorCtxKey{}).(actorValue)
	if !ok || !v.set {
		return "", false
	}
	return v.id, true
}
