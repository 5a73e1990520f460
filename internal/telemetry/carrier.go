package telemetry

import "go.opentelemetry.io/otel/attribute"

// ContextArgKey is the reserved argument name under which handlers may
// receive an execution context carrier. When present and implementing
// RequestContext, its allow-listed fields become span attributes.
const ContextArgKey = "ctx"

// contextFields is the fixed allow-list of execution context fields that
// may be copied onto spans. Anything else a carrier exposes is ignored.
var contextFields = []string{
	"request_id",
	"session_id",
	"client_id",
	"user_id",
	"tenant_id",
}

// RequestContext exposes per-request correlation fields to the instrumentor.
// Implementations return ok=false for fields they do not carry; empty values
// are treated as absent.
type RequestContext interface {
	Field(name string) (value string, ok bool)
}

// MapRequestContext adapts a plain string map to RequestContext.
type MapRequestContext map[string]string

// Field returns the named field from the map.
func (m MapRequestContext) Field(name string) (string, bool) {
	value, ok := m[name]
	return value, ok
}

// contextAttributes extracts the allow-listed fields from a carrier as span
// attributes, prefixed with "mcp.context.".
func contextAttributes(carrier RequestContext) []attribute.KeyValue {
	if carrier == nil {
		return nil
	}
	var attrs []attribute.KeyValue
	for _, field := range contextFields {
		value, ok := carrier.Field(field)
		if !ok || value == "" {
			continue
		}
		attrs = append(attrs, attribute.String(spanAttrContextPrefix+field, value))
	}
	return attrs
}

// requestContextFromArgs looks for a RequestContext carrier under the
// reserved argument key.
func requestContextFromArgs(args map[string]any) RequestContext {
	raw, ok := args[ContextArgKey]
	if !ok {
		return nil
	}
	carrier, ok := raw.(RequestContext)
	if !ok {
		return nil
	}
	return carrier
}
