// Package tools contains the MCP tool implementations.
package tools

import (
	"context"

	"github.com/repogrep/repogrep-mcp/internal/config"
	"github.com/repogrep/repogrep-mcp/pkg/types"
)

// Searcher is the call boundary into the cascade engine. Tools depend on
// this interface so tests can script outcomes without running ripgrep.
type Searcher interface {
	Search(ctx context.Context, req *types.SearchRequest) (*types.SearchOutcome, error)
}

// Deps carries the dependencies shared by all tool handlers.
type Deps struct {
	Config *config.Config
	Engine Searcher
}
