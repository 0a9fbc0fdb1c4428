package types

import (
	"errors"
	"fmt"
)

// Error taxonomy for search failures. A no-match result is not an error;
// these cover requests that could not be completed at all.
var (
	// ErrEmptyQuery rejects blank or whitespace-only queries before any
	// strategy runs.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrBadRoot means the requested search root does not exist or is
	// not a directory.
	ErrBadRoot = errors.New("search root is not a directory")

	// ErrToolUnavailable means the external matcher binary is missing or
	// not executable. This is an environment failure, not a query-shape
	// failure, so the cascade stops immediately.
	ErrToolUnavailable = errors.New("ripgrep (rg) is not available")

	// ErrMalformedOutput means the matcher reported a match (exit 0) but
	// produced no lines this parser recognizes. Individual unparsable
	// lines are dropped silently; zero parsable lines under a reported
	// match is a contract violation.
	ErrMalformedOutput = errors.New("matcher reported a match but produced no parsable output")
)

// TimeoutError reports which strategy's attempt exceeded its deadline.
// A timed-out matcher's partial output cannot be trusted as an
// authoritative no-match, so the whole request fails.
type TimeoutError struct {
	Strategy StrategyKind
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("matcher timed out during %s attempt", e.Strategy)
}
