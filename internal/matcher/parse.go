package matcher

import (
	"strconv"
	"strings"

	"github.com/repogrep/repogrep-mcp/pkg/types"
)

// parseMatchLine parses one line of matcher output in the
// path:lineNumber:text shape. The exact output format belongs to the
// external tool, so parsing is defensive: a line that does not fit the
// shape is dropped, never an error.
//
// Paths may themselves contain colons (Windows drive letters), so the
// line number is located by scanning for a colon-delimited run of digits
// rather than splitting on the first colon.
func parseMatchLine(line string) (types.MatchLine, bool) {
	// Find the first ":<digits>:" separator with a non-empty path
	// before it.
	for i := 1; i < len(line); i++ {
		if line[i] != ':' {
			continue
		}
		rest := line[i+1:]
		j := strings.IndexByte(rest, ':')
		if j <= 0 {
			continue
		}
		n, err := strconv.Atoi(rest[:j])
		if err != nil || n <= 0 {
			continue
		}
		return types.MatchLine{
			Path:       line[:i],
			LineNumber: n,
			Text:       rest[j+1:],
		}, true
	}
	return types.MatchLine{}, false
}

// looksLikePatternError reports whether stderr output indicates the
// pattern itself was rejected, as opposed to an I/O or environment
// failure. Matches ripgrep's diagnostics for both its default engine and
// PCRE2.
func looksLikePatternError(stderr string) bool {
	s := strings.ToLower(stderr)
	for _, marker := range []string{
		"regex parse error",
		"error parsing pattern",
		"unclosed group",
		"unclosed character class",
		"repetition operator missing expression",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// classifyExit maps the matcher's exit status to a tri-state outcome.
// Conventional line-matcher semantics: 0 matched, 1 no match, 2 usage or
// pattern error. Unknown nonzero statuses count as a pattern error only
// when stderr says so; otherwise ok is false and the caller escalates.
func classifyExit(code int, stderr string) (types.Outcome, bool) {
	switch code {
	case 0:
		return types.OutcomeMatched, true
	case 1:
		return types.OutcomeNoMatch, true
	case 2:
		return types.OutcomeInvalidPattern, true
	}
	if looksLikePatternError(stderr) {
		return types.OutcomeInvalidPattern, true
	}
	return "", false
}
