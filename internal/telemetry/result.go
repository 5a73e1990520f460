package telemetry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Result summary attribute keys.
const (
	attrToolResultValue      = "mcp.tool.result.value"
	attrToolResultType       = "mcp.tool.result.type"
	attrToolResultCount      = "mcp.tool.result.count"
	attrToolResultSampleKeys = "mcp.tool.result.sample_keys"
	attrToolResultLength     = "mcp.tool.result.length"
	attrToolResultClass      = "mcp.tool.result.class"

	attrResourceContentType = "mcp.resource.content.type"
	attrResourceSize        = "mcp.resource.size"
	attrResourceKeysCount   = "mcp.resource.keys_count"
	attrResourceItemsCount  = "mcp.resource.items_count"
	attrResourceClass       = "mcp.resource.class"

	attrPromptMessageCount = "mcp.prompt.message_count"
	attrPromptRoles        = "mcp.prompt.roles"
)

// Summary truncation limits. Scalar values are clipped so large payloads
// never bloat span storage; mapping keys are clipped harder since they only
// serve as a shape hint.
const (
	maxScalarValueLen = 100
	maxSampleKeyLen   = 20
	maxSampledEntries = 5
)

// Sized is implemented by results that expose a collection size without
// being a slice or map.
type Sized interface {
	Len() int
}

// SummarizeToolResult classifies a tool result and returns summary
// attributes describing its shape. Values themselves are never recorded
// except for scalars, and those are truncated. The concrete runtime type
// name is always attached last, whichever branch matched.
//
// Classification, in order: nil, scalar (string/bool/numeric), sequence
// (slice/array), mapping (map), sized (Len() int), other.
func SummarizeToolResult(result any) []attribute.KeyValue {
	if result == nil {
		return []attribute.KeyValue{
			attribute.String(attrToolResultType, "null"),
			attribute.String(attrToolResultClass, "nil"),
		}
	}

	class := attribute.String(attrToolResultClass, fmt.Sprintf("%T", result))

	if value, kind, ok := scalarValue(result); ok {
		return []attribute.KeyValue{
			attribute.String(attrToolResultValue, truncate(value, maxScalarValueLen)),
			attribute.String(attrToolResultType, kind),
			class,
		}
	}

	rv := reflect.ValueOf(result)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return []attribute.KeyValue{
			attribute.String(attrToolResultType, "array"),
			attribute.Int(attrToolResultCount, rv.Len()),
			class,
		}
	case reflect.Map:
		attrs := []attribute.KeyValue{
			attribute.String(attrToolResultType, "object"),
			attribute.Int(attrToolResultCount, rv.Len()),
		}
		if keys := sampleKeys(rv); keys != "" {
			attrs = append(attrs, attribute.String(attrToolResultSampleKeys, keys))
		}
		return append(attrs, class)
	}

	if sized, ok := result.(Sized); ok {
		return []attribute.KeyValue{
			attribute.String(attrToolResultType, "sized"),
			attribute.Int(attrToolResultLength, sized.Len()),
			class,
		}
	}

	return []attribute.KeyValue{
		attribute.String(attrToolResultType, "other"),
		class,
	}
}

// scalarValue renders scalar results to a string together with a stable
// type label.
func scalarValue(result any) (value, kind string, ok bool) {
	switch v := result.(type) {
	case string:
		return v, "string", true
	case bool:
		return fmt.Sprintf("%t", v), "bool", true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), "int", true
	case float32, float64:
		return fmt.Sprintf("%v", v), "float", true
	}
	return "", "", false
}

// sampleKeys returns a comma-joined sample of the map's keys when the map
// is small enough (1 to 5 entries). Keys longer than the limit are clipped
// with an ellipsis suffix. Keys are sorted to make the attribute
// deterministic; Go map iteration order is not.
func sampleKeys(rv reflect.Value) string {
	n := rv.Len()
	if n < 1 || n > maxSampledEntries {
		return ""
	}
	keys := make([]string, 0, n)
	for _, key := range rv.MapKeys() {
		keys = append(keys, clipKey(fmt.Sprintf("%v", key.Interface())))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// clipKey truncates a sampled key to maxSampleKeyLen runes, marking the cut
// with an ellipsis. The cut falls on a rune boundary, never mid-character.
func clipKey(key string) string {
	runes := []rune(key)
	if len(runes) <= maxSampleKeyLen {
		return key
	}
	return string(runes[:maxSampleKeyLen]) + "..."
}

// SummarizeResourceResult returns summary attributes for a resource read.
// Text content records its length in bytes, binary content its size in
// bytes, maps and slices their entry count. Content is never recorded.
func SummarizeResourceResult(content any) []attribute.KeyValue {
	switch v := content.(type) {
	case string:
		return []attribute.KeyValue{
			attribute.String(attrResourceContentType, "text"),
			attribute.Int(attrResourceSize, len(v)),
		}
	case []byte:
		return []attribute.KeyValue{
			attribute.String(attrResourceContentType, "binary"),
			attribute.Int(attrResourceSize, len(v)),
		}
	case nil:
		return []attribute.KeyValue{
			attribute.String(attrResourceContentType, "null"),
		}
	}

	rv := reflect.ValueOf(content)
	switch rv.Kind() {
	case reflect.Map:
		return []attribute.KeyValue{
			attribute.String(attrResourceContentType, "object"),
			attribute.Int(attrResourceKeysCount, rv.Len()),
		}
	case reflect.Slice, reflect.Array:
		return []attribute.KeyValue{
			attribute.String(attrResourceContentType, "array"),
			attribute.Int(attrResourceItemsCount, rv.Len()),
		}
	}

	return []attribute.KeyValue{
		attribute.String(attrResourceContentType, "other"),
		attribute.String(attrResourceClass, fmt.Sprintf("%T", content)),
	}
}

// SummarizePromptMessages returns summary attributes for generated prompt
// messages: the message count, the distinct roles in first-seen order, and
// a per-role message count. Messages without a role are counted in the
// total but contribute nothing to the role attributes.
func SummarizePromptMessages(roles []string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(attrPromptMessageCount, len(roles)),
	}
	counts := make(map[string]int, len(roles))
	distinct := make([]string, 0, len(roles))
	for _, role := range roles {
		if role == "" {
			continue
		}
		if counts[role] == 0 {
			distinct = append(distinct, role)
		}
		counts[role]++
	}
	if len(distinct) == 0 {
		return attrs
	}
	attrs = append(attrs, attribute.String(attrPromptRoles, strings.Join(distinct, ",")))
	for _, role := range distinct {
		attrs = append(attrs, attribute.Int(attrPromptRoles+"."+role, counts[role]))
	}
	return attrs
}

// truncate clips s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
