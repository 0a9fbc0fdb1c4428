package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name: "repo_search",
		Description: "Code-oriented repository search using ripgrep. The query cascades through strategies: " +
			"regex first, then literal substring, then multi-term AND (all whitespace-separated terms on the same line). " +
			"Returns matching lines (path, line, text), matching file paths, and the strategy that produced them.",
	}, ToolSearch(d))
}
