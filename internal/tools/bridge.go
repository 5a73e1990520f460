package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opsforge/mcp-telemetry/internal/server"
	"github.com/opsforge/mcp-telemetry/internal/telemetry"
)

// resourceURIKey carries the request URI into resource handler arguments.
const resourceURIKey = "uri"

// WrapTool bridges a telemetry-native tool handler into the mcp-go handler
// shape. The handler is wrapped through the instrumentor at registration
// time, so each invocation gets a span, lifecycle events, and metrics. With a
// disabled provider the instrumentor returns the handler unchanged and the
// bridge adds no overhead beyond argument plumbing.
//
// Handler errors become MCP error results rather than protocol errors, so
// agents see the failure text instead of a dropped request. Failures are
// logged with the trace id of the surrounding span so operators can jump
// from the log line to the trace.
func WrapTool(
	toolName string,
	handler telemetry.Handler,
	sc *server.ServerContext,
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wrapped := handler
	if instr := sc.Instrumentor(); instr != nil {
		wrapped = instr.WrapTool(toolName, handler)
	}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		value, err := wrapped(ctx, request.GetArguments())
		if err != nil {
			sc.Logger().Warn("Tool execution failed",
				"tool", toolName,
				"error", err.Error(),
				"trace_id", telemetry.GetTraceID(ctx),
			)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResult(value)
	}
}

// WrapResource bridges a telemetry-native resource handler into the mcp-go
// handler shape. The request URI is passed to the handler under the "uri"
// argument key; template variables arrive under their own names.
func WrapResource(
	uri string,
	template bool,
	handler telemetry.Handler,
	sc *server.ServerContext,
) func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	wrapped := handler
	if instr := sc.Instrumentor(); instr != nil {
		wrapped = instr.WrapResource(uri, template, handler)
	}

	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		args := make(map[string]any, len(request.Params.Arguments)+1)
		for k, v := range request.Params.Arguments {
			args[k] = v
		}
		args[resourceURIKey] = request.Params.URI

		value, err := wrapped(ctx, args)
		if err != nil {
			return nil, err
		}
		return resourceContents(request.Params.URI, value)
	}
}

// WrapPrompt bridges a telemetry-native prompt handler into the mcp-go
// handler shape.
func WrapPrompt(
	promptName string,
	handler telemetry.PromptHandler,
	sc *server.ServerContext,
) func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	wrapped := handler
	if instr := sc.Instrumentor(); instr != nil {
		wrapped = instr.WrapPrompt(promptName, handler)
	}

	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := make(map[string]any, len(request.Params.Arguments))
		for k, v := range request.Params.Arguments {
			args[k] = v
		}

		messages, err := wrapped(ctx, args)
		if err != nil {
			return nil, err
		}

		promptMessages := make([]mcp.PromptMessage, 0, len(messages))
		for _, m := range messages {
			promptMessages = append(promptMessages, mcp.NewPromptMessage(
				mcp.Role(m.Role),
				mcp.NewTextContent(m.Content),
			))
		}
		return mcp.NewGetPromptResult(promptName, promptMessages), nil
	}
}

// toolResult converts a handler return value into an MCP tool result.
// Strings pass through as text; everything else is rendered as JSON.
func toolResult(value any) (*mcp.CallToolResult, error) {
	switch v := value.(type) {
	case nil:
		return mcp.NewToolResultText(""), nil
	case string:
		return mcp.NewToolResultText(v), nil
	case *mcp.CallToolResult:
		return v, nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool result: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// resourceContents converts a handler return value into MCP resource
// contents. Strings become text contents, byte slices become blobs, and
// other values are rendered as JSON.
func resourceContents(uri string, value any) ([]mcp.ResourceContents, error) {
	switch v := value.(type) {
	case string:
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     v,
		}}, nil
	case []byte:
		return []mcp.ResourceContents{mcp.BlobResourceContents{
			URI:      uri,
			MIMEType: "application/octet-stream",
			Blob:     base64.StdEncoding.EncodeToString(v),
		}}, nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode resource contents: %w", err)
		}
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}}, nil
	}
}
