package cascade

import (
	"strings"

	"github.com/repogrep/repogrep-mcp/pkg/types"
)

// attempt is one fully-built cascade step: the strategy it represents,
// the matcher-ready argument list, and the post-processing it needs.
type attempt struct {
	kind     types.StrategyKind
	args     []string
	maxLines int

	// filterTerms holds the terms beyond the first for multi-term AND.
	// Each must appear on a line for it to be retained.
	filterTerms []string
}

// baseArgs are the flags shared by every strategy: machine-readable
// line output plus the request's visibility toggles.
func baseArgs(req *types.SearchRequest) []string {
	args := []string{"--no-heading", "--color=never", "--line-number", "--smart-case"}
	if req.Hidden {
		args = append(args, "--hidden")
	}
	if req.Ignored {
		args = append(args, "--no-ignore")
	}
	if req.PathFilter != "" {
		args = append(args, "--glob", req.PathFilter)
	}
	return args
}

// regexAttempt treats the query verbatim as a regular expression.
func regexAttempt(req *types.SearchRequest, query string, maxLines int) attempt {
	return attempt{
		kind:     types.StrategyRegex,
		args:     append(baseArgs(req), "--regexp", query),
		maxLines: maxLines,
	}
}

// literalAttempt treats the query as a fixed string, no metacharacters.
func literalAttempt(req *types.SearchRequest, query string, maxLines int) attempt {
	return attempt{
		kind:     types.StrategyLiteral,
		args:     append(baseArgs(req), "--fixed-strings", "--regexp", query),
		maxLines: maxLines,
	}
}

// multiTermAttempt emulates AND-of-terms: search the first term as a
// fixed string, then keep only lines that also contain every remaining
// term. scanLines bounds the pre-filter search space, so it should be
// well above the caller's result cap.
func multiTermAttempt(req *types.SearchRequest, terms []string, scanLines int) attempt {
	return attempt{
		kind:        types.StrategyMultiTermAnd,
		args:        append(baseArgs(req), "--fixed-strings", "--regexp", terms[0]),
		maxLines:    scanLines,
		filterTerms: terms[1:],
	}
}

// termMatches applies ripgrep's smart-case rule to an in-memory
// substring test: an all-lowercase term matches case-insensitively, a
// term with any uppercase matches exactly.
func termMatches(text, term string) bool {
	if term == strings.ToLower(term) {
		return strings.Contains(strings.ToLower(text), term)
	}
	return strings.Contains(text, term)
}

// filterLines keeps lines on which every term appears.
func filterLines(lines []types.MatchLine, terms []string) []types.MatchLine {
	if len(terms) == 0 {
		return lines
	}
	var kept []types.MatchLine
	for _, ml := range lines {
		all := true
		for _, t := range terms {
			if !termMatches(ml.Text, t) {
				all = false
				break
			}
		}
		if all {
			kept = append(kept, ml)
		}
	}
	return kept
}
