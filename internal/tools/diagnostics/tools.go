package diagnostics

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpgoserver "github.com/mark3labs/mcp-go/server"

	"github.com/opsforge/mcp-telemetry/internal/server"
	"github.com/opsforge/mcp-telemetry/internal/tools"
)

// EchoTool returns its message argument, optionally transformed. It exists
// so operators can verify the full instrumentation path with a tool whose
// behavior is trivially predictable.
var EchoTool = mcp.NewTool("echo",
	mcp.WithDescription("Echo a message back. Useful for verifying connectivity "+
		"and inspecting the telemetry emitted for a tool call."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The message to echo back"),
	),
	mcp.WithBoolean("uppercase",
		mcp.Description("Return the message in upper case"),
	),
	mcp.WithNumber("repeat",
		mcp.Description("Number of times to repeat the message (default 1, max 10)"),
	),
)

// ServerInfoTool reports the server identity, uptime, telemetry pipeline
// state, and registration counts.
var ServerInfoTool = mcp.NewTool("server_info",
	mcp.WithDescription("Report server identity, uptime, telemetry pipeline state, "+
		"and how many tools, resources, and prompts are registered."),
)

// SessionInfoTool reports the correlation state of the calling session.
var SessionInfoTool = mcp.NewTool("session_info",
	mcp.WithDescription("Report the session correlation state for the current request: "+
		"whether a session id was propagated and how long the session has been tracked."),
)

// TroubleshootPrompt guides an agent through diagnosing failed tool calls
// using the emitted telemetry.
var TroubleshootPrompt = mcp.NewPrompt("troubleshoot_traces",
	mcp.WithPromptDescription("Guide for diagnosing failed MCP operations from their traces"),
	mcp.WithArgument("component",
		mcp.ArgumentDescription("Component to focus on: tool, resource, or prompt"),
	),
)

// Resource URIs served by this package.
const (
	ServerConfigResourceURI    = "config://server"
	SessionResourceTemplateURI = "sessions://{id}"
)

// RegisterAll registers the diagnostic tools, resources, and prompts with
// the MCP server. Tools listed in the configuration's DisabledTools are
// skipped. Every registered callable is wrapped through the instrumentor.
func RegisterAll(mcpServer *mcpgoserver.MCPServer, sc *server.ServerContext) {
	h := newHandlers(sc)
	cfg := sc.Config()

	register := func(tool mcp.Tool, handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)) {
		name := tool.Name
		if cfg.ToolDisabled(name) {
			sc.Logger().Info("Skipping disabled tool", "tool", name)
			return
		}
		mcpServer.AddTool(tool, handler)
		sc.Metrics().IncrementToolsRegistered()
	}

	register(EchoTool, tools.WrapTool("echo", handleEcho, sc))
	register(ServerInfoTool, tools.WrapTool("server_info", h.handleServerInfo, sc))
	register(SessionInfoTool, tools.WrapTool("session_info", h.handleSessionInfo, sc))

	mcpServer.AddResource(
		mcp.NewResource(ServerConfigResourceURI, "Server configuration",
			mcp.WithResourceDescription("The active server configuration as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		tools.WrapResource(ServerConfigResourceURI, false, h.handleServerConfigResource, sc),
	)
	sc.Metrics().IncrementResourcesRegistered()

	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(SessionResourceTemplateURI, "Session state",
			mcp.WithTemplateDescription("Correlation state for a tracked session id"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		tools.WrapResource(SessionResourceTemplateURI, true, h.handleSessionResource, sc),
	)
	sc.Metrics().IncrementResourcesRegistered()

	mcpServer.AddPrompt(TroubleshootPrompt, tools.WrapPrompt("troubleshoot_traces", handleTroubleshootPrompt, sc))
	sc.Metrics().IncrementPromptsRegistered()
}
