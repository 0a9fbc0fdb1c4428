// Package cascade implements the fallback search strategy engine: a
// query is tried as a regex, then as a literal string, then as an AND of
// independent terms, until one interpretation produces a definitive
// answer.
package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/repogrep/repogrep-mcp/internal/cache"
	"github.com/repogrep/repogrep-mcp/internal/config"
	"github.com/repogrep/repogrep-mcp/internal/matcher"
	"github.com/repogrep/repogrep-mcp/pkg/types"
)

// state is the cascade position. Transitions are the whole of the
// fallback policy; keeping them in one switch makes each one auditable.
type state int

const (
	stateRegex state = iota
	stateLiteral
	stateMultiTerm
	stateDone
)

// Engine runs the strategy cascade for one request at a time. It holds
// no per-request state, so concurrent Search calls need no coordination.
type Engine struct {
	runner  matcher.Runner
	cfg     *config.Config
	results *cache.ResultCache
}

// New creates an Engine. results may be nil to disable memoisation.
func New(runner matcher.Runner, cfg *config.Config, results *cache.ResultCache) *Engine {
	return &Engine{runner: runner, cfg: cfg, results: results}
}

// Search runs the cascade and returns the terminal outcome. A confirmed
// no-match is a valid outcome, never an error; errors mean the search
// could not be completed.
func (e *Engine) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchOutcome, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, types.ErrEmptyQuery
	}

	root := req.Root
	if root == "" {
		root = e.cfg.DefaultRoot
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", types.ErrBadRoot, root)
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = e.cfg.DefaultMaxResults
	}
	if maxResults > e.cfg.MaxResultsCap {
		maxResults = e.cfg.MaxResultsCap
	}

	resolved := *req
	resolved.Query = query
	resolved.Root = root
	resolved.MaxResults = maxResults

	if cached, ok := e.results.Get(cache.Key(&resolved)); ok {
		slog.Debug("result cache hit", "query", query)
		return cached, nil
	}

	out, err := e.cascade(ctx, &resolved)
	if err != nil {
		return nil, err
	}

	out.FileMatches = e.fileMatches(ctx, &resolved, out.Matches)

	e.results.Put(cache.Key(&resolved), out)
	return out, nil
}

// cascade drives the state machine over at most three attempts.
func (e *Engine) cascade(ctx context.Context, req *types.SearchRequest) (*types.SearchOutcome, error) {
	terms := strings.Fields(req.Query)
	out := &types.SearchOutcome{}

	st := stateRegex
	for st != stateDone {
		var att attempt
		switch st {
		case stateRegex:
			att = regexAttempt(req, req.Query, req.MaxResults+1)
		case stateLiteral:
			att = literalAttempt(req, req.Query, req.MaxResults+1)
		case stateMultiTerm:
			att = multiTermAttempt(req, terms, e.cfg.MaxScanLines)
		}

		res, err := e.runner.Search(ctx, matcher.Invocation{
			Args:     att.args,
			Root:     req.Root,
			MaxLines: att.maxLines,
		})
		if err != nil {
			return nil, fmt.Errorf("%s attempt: %w", att.kind, err)
		}

		outcome := res.Outcome
		lines := res.Lines
		if outcome == types.OutcomeMatched && len(att.filterTerms) > 0 {
			// AND semantics: a first-term hit only counts when every
			// remaining term shares the line.
			lines = filterLines(lines, att.filterTerms)
			if len(lines) == 0 {
				outcome = types.OutcomeNoMatch
			}
		}
		out.Attempts = append(out.Attempts, types.AttemptSummary{Strategy: att.kind, Outcome: outcome})
		slog.Debug("cascade attempt", "strategy", att.kind, "outcome", outcome)

		switch outcome {
		case types.OutcomeMatched:
			out.StrategyUsed = att.kind
			out.Truncated = res.Truncated
			if len(lines) > req.MaxResults {
				lines = lines[:req.MaxResults]
				out.Truncated = true
			}
			out.Matches = lines
			st = stateDone

		case types.OutcomeNoMatch:
			// A miss falls through: a valid regex with zero hits may
			// still be meant as a phrase or as independent keywords.
			switch st {
			case stateRegex:
				st = stateLiteral
			case stateLiteral:
				if len(terms) >= 2 {
					st = stateMultiTerm
				} else {
					st = stateDone
				}
			case stateMultiTerm:
				st = stateDone
			}

		case types.OutcomeInvalidPattern:
			if st == stateRegex {
				// Expected for queries that merely look like regexes.
				st = stateLiteral
				break
			}
			// Fixed-string modes must not reject their pattern; if one
			// does, the tool is misbehaving and the cascade stops.
			return nil, fmt.Errorf("%s attempt rejected its pattern: %s", att.kind, strings.TrimSpace(res.Stderr))

		case types.OutcomeToolUnavailable:
			return nil, fmt.Errorf("%s attempt: %w", att.kind, types.ErrToolUnavailable)

		case types.OutcomeTimeout:
			return nil, &types.TimeoutError{Strategy: att.kind}

		default:
			return nil, fmt.Errorf("%s attempt: unexpected outcome %q", att.kind, outcome)
		}
	}

	return out, nil
}

// fileMatches merges the paths of the content matches with files whose
// path contains the query, deduped in order, capped at the result limit.
// Listing failures degrade to content paths only; they never fail the
// search.
func (e *Engine) fileMatches(ctx context.Context, req *types.SearchRequest, matches []types.MatchLine) []string {
	seen := make(map[string]bool)
	var merged []string
	add := func(p string) bool {
		if seen[p] {
			return true
		}
		seen[p] = true
		merged = append(merged, p)
		return len(merged) < req.MaxResults
	}

	for _, m := range matches {
		if !add(m.Path) {
			return merged
		}
	}

	paths, err := e.runner.ListFiles(ctx, req.Root, req.Hidden, req.Ignored, e.cfg.MaxScanLines)
	if err != nil {
		slog.Warn("file listing failed, reporting content paths only", "error", err)
		return merged
	}
	for _, p := range paths {
		if !termMatches(p, req.Query) {
			continue
		}
		if !add(p) {
			break
		}
	}
	return merged
}
