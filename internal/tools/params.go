// Package tools provides shared utilities and types for MCP tool implementations.
package tools

// GetString extracts a string argument by name, returning the fallback when
// the argument is absent or not a string.
func GetString(args map[string]any, name, fallback string) string {
	if v, ok := args[name].(string); ok && v != "" {
		return v
	}
	return fallback
}

// GetBool extracts a boolean argument by name, returning the fallback when
// the argument is absent or not a boolean.
func GetBool(args map[string]any, name string, fallback bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return fallback
}

// GetInt extracts an integer argument by name. JSON decoding delivers numbers
// as float64, so both representations are accepted.
func GetInt(args map[string]any, name string, fallback int) int {
	switch v := args[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// RequireString extracts a required string argument by name. The boolean is
// false when the argument is missing or empty.
func RequireString(args map[string]any, name string) (string, bool) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
