package main

import (
	"github.com/opsforge/mcp-telemetry/cmd"
)

// version is the application version, injected at build time via
// -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
