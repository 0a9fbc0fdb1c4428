// Package types contains the caller-visible request and result types for
// repository search.
package types

// StrategyKind identifies one interpretation of a query.
type StrategyKind string

const (
	StrategyRegex        StrategyKind = "regex"
	StrategyLiteral      StrategyKind = "literal"
	StrategyMultiTermAnd StrategyKind = "multi_term_and"
)

// Outcome classifies the result of a single matcher attempt.
type Outcome string

const (
	OutcomeMatched         Outcome = "matched"
	OutcomeNoMatch         Outcome = "no_match"
	OutcomeInvalidPattern  Outcome = "invalid_pattern"
	OutcomeToolUnavailable Outcome = "tool_unavailable"
	OutcomeTimeout         Outcome = "timeout"
)

// SearchRequest is the immutable input to one search operation.
type SearchRequest struct {
	// Query is the free-form search string. Required; a query that is
	// empty after trimming is rejected before any strategy runs.
	Query string

	// PathFilter restricts matching to paths matching this glob
	// (rg --glob). Empty means no restriction.
	PathFilter string

	// Root is the directory to search. Empty means the configured
	// default root.
	Root string

	// MaxResults caps the number of returned match lines. Zero or
	// negative means the configured default.
	MaxResults int

	// Hidden includes hidden files and directories in the search.
	Hidden bool

	// Ignored includes files normally excluded by .gitignore.
	Ignored bool
}

// MatchLine is one matching line from the repository.
type MatchLine struct {
	Path       string `json:"path"`
	LineNumber int    `json:"line"`
	Text       string `json:"text"`
}

// AttemptSummary records one cascade step for diagnostics. Raw matcher
// output is not retained past the attempt.
type AttemptSummary struct {
	Strategy StrategyKind `json:"strategy"`
	Outcome  Outcome      `json:"outcome"`
}

// SearchOutcome is the terminal result of a search. A zero StrategyUsed
// means no strategy matched; that is a confirmed no-match, never a
// disguised tool failure.
type SearchOutcome struct {
	StrategyUsed StrategyKind     `json:"strategy_used,omitempty"`
	Matches      []MatchLine      `json:"matches,omitzero"`
	FileMatches  []string         `json:"file_matches,omitzero"`
	Truncated    bool             `json:"truncated,omitempty"`
	Attempts     []AttemptSummary `json:"attempts,omitzero"`
}

// Matched reports whether any strategy produced matches.
func (o *SearchOutcome) Matched() bool {
	return o.StrategyUsed != ""
}

// Clone returns a deep copy. Cached outcomes are cloned on both store and
// load so callers can never alias each other's slices.
func (o *SearchOutcome) Clone() *SearchOutcome {
	if o == nil {
		return nil
	}
	dup := &SearchOutcome{
		StrategyUsed: o.StrategyUsed,
		Truncated:    o.Truncated,
	}
	if o.Matches != nil {
		dup.Matches = append([]MatchLine(nil), o.Matches...)
	}
	if o.FileMatches != nil {
		dup.FileMatches = append([]string(nil), o.FileMatches...)
	}
	if o.Attempts != nil {
		dup.Attempts = append([]AttemptSummary(nil), o.Attempts...)
	}
	return dup
}
