package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/baggage"
)

// sessionBaggageKey is the baggage member name carrying the MCP session id
// across process boundaries.
const sessionBaggageKey = "mcp.session.id"

// ContextWithSessionID returns a context whose baggage carries the given
// session id. The parent context is unchanged, so the association ends when
// the derived context goes out of scope. An invalid session id value leaves
// the baggage untouched.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}
	member, err := baggage.NewMember(sessionBaggageKey, sessionID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}

// SessionIDFromContext returns the session id carried in the context's
// baggage, or empty string when none is set.
func SessionIDFromContext(ctx context.Context) string {
	return baggage.FromContext(ctx).Member(sessionBaggageKey).Value()
}
