package tools

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/repogrep/repogrep-mcp/pkg/types"
)

// SearchInput is the input for repo_search.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"The search query. Tried as a regex first, then as a literal string, then as AND of whitespace-separated terms."`
	Root       string `json:"root,omitempty" jsonschema:"Root directory to search (default: configured search root)"`
	PathFilter string `json:"path_filter,omitempty" jsonschema:"Glob restricting which files are searched, e.g. '*.go' or 'src/**'"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of matching lines (default: 20)"`
	Hidden     bool   `json:"hidden,omitempty" jsonschema:"Also search hidden files and directories"`
	Ignored    bool   `json:"ignored,omitempty" jsonschema:"Also search files excluded by .gitignore"`
}

// SearchOutput is the output for repo_search.
type SearchOutput struct {
	Strategy    string                 `json:"strategy,omitempty"`
	Matches     []types.MatchLine      `json:"matches,omitzero"`
	FileMatches []string               `json:"file_matches,omitzero"`
	Truncated   bool                   `json:"truncated,omitempty"`
	Attempts    []types.AttemptSummary `json:"attempts,omitzero"`
	Hint        string                 `json:"hint,omitempty"`
}

// ToolSearch searches the repository tree with the strategy cascade.
func ToolSearch(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
		outcome, err := d.Engine.Search(ctx, &types.SearchRequest{
			Query:      input.Query,
			PathFilter: input.PathFilter,
			Root:       input.Root,
			MaxResults: input.MaxResults,
			Hidden:     input.Hidden,
			Ignored:    input.Ignored,
		})
		if err != nil {
			return nil, SearchOutput{}, describeSearchError(err)
		}

		return nil, SearchOutput{
			Strategy:    string(outcome.StrategyUsed),
			Matches:     outcome.Matches,
			FileMatches: outcome.FileMatches,
			Truncated:   outcome.Truncated,
			Attempts:    outcome.Attempts,
			Hint:        buildSearchHint(outcome, input.MaxResults, d.Config.DefaultMaxResults),
		}, nil
	}
}

// buildSearchHint mirrors the notes a human reviewer would want: which
// fallback fired and whether the result list was cut short.
func buildSearchHint(o *types.SearchOutcome, requestedMax, defaultMax int) string {
	limit := requestedMax
	if limit <= 0 {
		limit = defaultMax
	}

	switch {
	case !o.Matched():
		return "No strategy matched. The query was tried as a regex, a literal string, and (for multi-word queries) an AND of terms."
	case o.StrategyUsed == types.StrategyLiteral:
		if o.Truncated {
			return fmt.Sprintf("Fallback used: literal substring search. Results truncated to first %d matches; narrow the query or raise max_results.", limit)
		}
		return "Fallback used: literal substring search (the query is not a valid regex, or the regex matched nothing)."
	case o.StrategyUsed == types.StrategyMultiTermAnd:
		if o.Truncated {
			return fmt.Sprintf("Fallback used: multi-term AND (every term on the same line). Results truncated to first %d matches.", limit)
		}
		return "Fallback used: multi-term AND (every term on the same line)."
	case o.Truncated:
		return fmt.Sprintf("Results truncated to first %d matches; narrow the query or raise max_results.", limit)
	}
	return ""
}

// describeSearchError maps the engine's error taxonomy to messages that
// tell the caller what to do next.
func describeSearchError(err error) error {
	switch {
	case errors.Is(err, types.ErrEmptyQuery):
		return fmt.Errorf("query must not be empty or whitespace-only")
	case errors.Is(err, types.ErrToolUnavailable):
		return fmt.Errorf("ripgrep (rg) is not installed or not on PATH; install it (e.g. 'apt install ripgrep' or 'brew install ripgrep') and retry")
	}
	var te *types.TimeoutError
	if errors.As(err, &te) {
		return fmt.Errorf("search timed out during the %s attempt; narrow the query or raise ATTEMPT_TIMEOUT_MS", te.Strategy)
	}
	return err
}
