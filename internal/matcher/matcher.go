// Package matcher drives the external line-oriented matcher (ripgrep) as
// a bounded subprocess and classifies each attempt into a tri-state
// outcome the cascade can act on.
package matcher

import (
	"context"

	"github.com/repogrep/repogrep-mcp/pkg/types"
)

// Invocation describes exactly one matching attempt.
type Invocation struct {
	// Args is the complete matcher-ready argument list, excluding the
	// binary name. The search root is not part of Args; the process runs
	// with Root as its working directory so output paths stay relative.
	Args []string

	// Root is the directory the matcher runs in.
	Root string

	// MaxLines caps the number of match lines parsed from stdout. Once
	// reached, remaining output is discarded and the process is killed.
	// Zero means no cap.
	MaxLines int
}

// Result is the normalized outcome of one attempt.
type Result struct {
	Outcome types.Outcome

	// Lines holds the parsed matches when Outcome is OutcomeMatched.
	Lines []types.MatchLine

	// Truncated is set when MaxLines was reached before the matcher
	// exhausted its output.
	Truncated bool

	// Stderr carries the matcher's diagnostic output, retained for
	// error classification and logging only.
	Stderr string
}

// Runner executes matcher invocations. The concrete implementation spawns
// ripgrep; tests substitute a scripted fake so no subprocess is needed to
// exercise the cascade.
type Runner interface {
	// Search runs one matching attempt. The returned error is reserved
	// for failures outside the exit-status contract (caller cancellation,
	// malformed-output contract violations); everything the cascade can
	// act on arrives as Result.Outcome.
	Search(ctx context.Context, inv Invocation) (Result, error)

	// ListFiles returns the paths the matcher would search, honoring the
	// hidden/ignored toggles, capped at max entries.
	ListFiles(ctx context.Context, root string, hidden, ignored bool, max int) ([]string, error)
}
