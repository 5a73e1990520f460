// Package diagnostics provides the built-in MCP tools, resources, and
// prompts of the telemetry server.
//
// The callables here are deliberately self-contained: echo verifies the
// instrumentation path end to end, server_info and the config resource
// expose pipeline state, and session_info plus the session resource surface
// correlation state without leaking raw session identifiers.
package diagnostics
