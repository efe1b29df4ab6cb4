// Package actor carries the authenticated caller and request tracing
// information through context.
package actor

import (
	"context"

	"github.com/google/uuid"
)

// Actor describes the authenticated caller as seen by permission predicates
// and the audit trail. Claims is the raw claim map from the bearer token.
type Actor struct {
	Subject string
	Email   string
	Role    string
	Claims  map[string]any
}

// Anonymous is the actor used when no authentication is configured.
func Anonymous() *Actor {
	return &Actor{Subject: "anonymous", Role: "guest", Claims: map[string]any{}}
}

// PredicateInput returns the map bound to the "actor" variable of
// permission predicate expressions.
func (a *Actor) PredicateInput() map[string]any {
	in := map[string]any{
		"subject": a.Subject,
		"email":   a.Email,
		"role":    a.Role,
	}
	for k, v := range a.Claims {
		if _, taken := in[k]; !taken {
			in[k] = v
		}
	}
	return in
}

type actorKey struct{}

// WithActor adds the actor to context.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor from context, or Anonymous.
func FromContext(ctx context.Context) *Actor {
	if a, ok := ctx.Value(actorKey{}).(*Actor); ok && a != nil {
		return a
	}
	return Anonymous()
}

// --- Tracing ---

// Trace contains request tracing information.
type Trace struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// WithTrace adds Trace to context.
func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// GetTrace returns Trace from context.
func GetTrace(ctx context.Context) *Trace {
	if t, ok := ctx.Value(traceKey{}).(*Trace); ok {
		return t
	}
	return nil
}

// NewTrace creates a Trace with generated IDs.
func NewTrace() *Trace {
	return &Trace{
		TraceID:   uuid.New().String(),
		RequestID: uuid.New().String(),
	}
}
