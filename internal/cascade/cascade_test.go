package cascade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repogrep/repogrep-mcp/internal/cache"
	"github.com/repogrep/repogrep-mcp/internal/config"
	"github.com/repogrep/repogrep-mcp/internal/matcher"
	"github.com/repogrep/repogrep-mcp/pkg/types"
)

// fakeRunner replays scripted results in invocation order, recording the
// argument lists it was given. No subprocess is spawned in these tests.
type fakeRunner struct {
	results  []matcher.Result
	errs     []error
	calls    []matcher.Invocation
	files    []string
	filesErr error
}

func (f *fakeRunner) Search(ctx context.Context, inv matcher.Invocation) (matcher.Result, error) {
	i := len(f.calls)
	f.calls = append(f.calls, inv)
	if i < len(f.errs) && f.errs[i] != nil {
		return matcher.Result{}, f.errs[i]
	}
	if i >= len(f.results) {
		return matcher.Result{Outcome: types.OutcomeNoMatch}, nil
	}
	return f.results[i], nil
}

func (f *fakeRunner) ListFiles(ctx context.Context, root string, hidden, ignored bool, max int) ([]string, error) {
	if f.filesErr != nil {
		return nil, f.filesErr
	}
	return f.files, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DefaultRoot:       t.TempDir(),
		DefaultMaxResults: 20,
		MaxResultsCap:     1000,
		MaxScanLines:      10000,
	}
}

func newTestEngine(t *testing.T, runner matcher.Runner) *Engine {
	t.Helper()
	return New(runner, testConfig(t), nil)
}

func matched(lines ...types.MatchLine) matcher.Result {
	return matcher.Result{Outcome: types.OutcomeMatched, Lines: lines}
}

func outcomeOnly(o types.Outcome) matcher.Result {
	return matcher.Result{Outcome: o}
}

func line(path string, n int, text string) types.MatchLine {
	return types.MatchLine{Path: path, LineNumber: n, Text: text}
}

// --- validation ---

func TestSearch_EmptyQueryRejected(t *testing.T) {
	runner := &fakeRunner{}
	eng := newTestEngine(t, runner)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := eng.Search(context.Background(), &types.SearchRequest{Query: q})
		assert.ErrorIs(t, err, types.ErrEmptyQuery, "query %q", q)
	}
	assert.Empty(t, runner.calls, "no strategy may run for an empty query")
}

func TestSearch_BadRoot(t *testing.T) {
	eng := newTestEngine(t, &fakeRunner{})
	_, err := eng.Search(context.Background(), &types.SearchRequest{Query: "x", Root: "/does/not/exist"})
	assert.ErrorIs(t, err, types.ErrBadRoot)
}

// --- cascade ordering ---

func TestSearch_RegexMatchesFirst(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		matched(line("todo.go", 3, "// TODO: fix this")),
	}}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "TODO"})
	require.NoError(t, err)

	assert.Equal(t, types.StrategyRegex, out.StrategyUsed)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, "todo.go", out.Matches[0].Path)
	assert.Equal(t, []types.AttemptSummary{
		{Strategy: types.StrategyRegex, Outcome: types.OutcomeMatched},
	}, out.Attempts)
	assert.Len(t, runner.calls, 1)
}

func TestSearch_InvalidPatternAdvancesToLiteral(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		outcomeOnly(types.OutcomeInvalidPattern),
		matched(line("a.go", 5, "x := a[b]")),
	}}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "a[b"})
	require.NoError(t, err)

	assert.Equal(t, types.StrategyLiteral, out.StrategyUsed)
	assert.Equal(t, []types.AttemptSummary{
		{Strategy: types.StrategyRegex, Outcome: types.OutcomeInvalidPattern},
		{Strategy: types.StrategyLiteral, Outcome: types.OutcomeMatched},
	}, out.Attempts)
	assert.Contains(t, runner.calls[1].Args, "--fixed-strings")
}

func TestSearch_RegexNoMatchFallsThroughToLiteral(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		outcomeOnly(types.OutcomeNoMatch),
		matched(line("a.go", 1, "foo.bar")),
	}}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "foo.bar"})
	require.NoError(t, err)
	assert.Equal(t, types.StrategyLiteral, out.StrategyUsed)
}

func TestSearch_SingleTermSkipsMultiTerm(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		outcomeOnly(types.OutcomeNoMatch),
		outcomeOnly(types.OutcomeNoMatch),
	}}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "nowhere"})
	require.NoError(t, err)

	assert.False(t, out.Matched())
	assert.Len(t, runner.calls, 2, "multi-term must be skipped for a single term")
	assert.Len(t, out.Attempts, 2)
}

func TestSearch_UnbalancedGroupNoLiteralOccurrence(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		outcomeOnly(types.OutcomeInvalidPattern),
		outcomeOnly(types.OutcomeNoMatch),
	}}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "("})
	require.NoError(t, err)

	assert.False(t, out.Matched())
	assert.Equal(t, []types.AttemptSummary{
		{Strategy: types.StrategyRegex, Outcome: types.OutcomeInvalidPattern},
		{Strategy: types.StrategyLiteral, Outcome: types.OutcomeNoMatch},
	}, out.Attempts)
	assert.Len(t, runner.calls, 2)
}

// --- multi-term AND ---

func TestSearch_MultiTermMatchesCommonLine(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		outcomeOnly(types.OutcomeNoMatch), // regex "class User"
		outcomeOnly(types.OutcomeNoMatch), // literal "class User"
		matched(
			line("models.py", 10, "class Account(User, Base):"),
			line("models.py", 30, "class Session(Base):"),
		),
	}}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "class User"})
	require.NoError(t, err)

	assert.Equal(t, types.StrategyMultiTermAnd, out.StrategyUsed)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, 10, out.Matches[0].LineNumber)

	// Third invocation searches the first term only.
	third := runner.calls[2].Args
	assert.Contains(t, third, "class")
	assert.NotContains(t, third, "class User")
	assert.NotContains(t, third, "User")
}

func TestSearch_MultiTermNoCommonLineIsNoMatch(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		outcomeOnly(types.OutcomeNoMatch),
		outcomeOnly(types.OutcomeNoMatch),
		matched(line("a.py", 1, "class Account:"), line("b.py", 2, "class Widget:")),
	}}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "class User"})
	require.NoError(t, err)

	assert.False(t, out.Matched())
	assert.Equal(t, types.AttemptSummary{
		Strategy: types.StrategyMultiTermAnd, Outcome: types.OutcomeNoMatch,
	}, out.Attempts[2])
}

// --- error classes ---

func TestSearch_ToolUnavailableIsFatal(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		outcomeOnly(types.OutcomeToolUnavailable),
	}}
	eng := newTestEngine(t, runner)

	_, err := eng.Search(context.Background(), &types.SearchRequest{Query: "anything at all"})
	assert.ErrorIs(t, err, types.ErrToolUnavailable)
	assert.Len(t, runner.calls, 1, "no further strategy can succeed without the tool")
}

func TestSearch_TimeoutNamesStrategy(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		outcomeOnly(types.OutcomeNoMatch),
		outcomeOnly(types.OutcomeTimeout),
	}}
	eng := newTestEngine(t, runner)

	_, err := eng.Search(context.Background(), &types.SearchRequest{Query: "slow"})
	var te *types.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, types.StrategyLiteral, te.Strategy)
}

func TestSearch_LiteralInvalidPatternIsFatal(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		outcomeOnly(types.OutcomeNoMatch),
		outcomeOnly(types.OutcomeInvalidPattern),
	}}
	eng := newTestEngine(t, runner)

	_, err := eng.Search(context.Background(), &types.SearchRequest{Query: "plain"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrToolUnavailable)
	assert.Len(t, runner.calls, 2)
}

func TestSearch_RunnerErrorPropagates(t *testing.T) {
	wrapped := types.ErrMalformedOutput
	runner := &fakeRunner{errs: []error{wrapped}}
	eng := newTestEngine(t, runner)

	_, err := eng.Search(context.Background(), &types.SearchRequest{Query: "x"})
	assert.ErrorIs(t, err, types.ErrMalformedOutput)
}

// --- truncation ---

func TestSearch_TruncatesToMaxResults(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		matched(
			line("a.go", 1, "hit"),
			line("a.go", 2, "hit"),
			line("a.go", 3, "hit"),
		),
	}}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "hit", MaxResults: 2})
	require.NoError(t, err)

	assert.True(t, out.Matched(), "truncation must not be misreported as no-match")
	assert.Len(t, out.Matches, 2)
	assert.True(t, out.Truncated)
	// The matcher is asked for one line past the cap so truncation is
	// detectable.
	assert.Equal(t, 3, runner.calls[0].MaxLines)
}

func TestSearch_ExactlyMaxResultsNotTruncated(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		matched(line("a.go", 1, "hit"), line("a.go", 2, "hit")),
	}}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "hit", MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, out.Matches, 2)
	assert.False(t, out.Truncated)
}

func TestSearch_MaxResultsCapped(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		matched(line("a.go", 1, "x")),
	}}
	cfg := testConfig(t)
	cfg.MaxResultsCap = 50
	eng := New(runner, cfg, nil)

	_, err := eng.Search(context.Background(), &types.SearchRequest{Query: "x", MaxResults: 9999})
	require.NoError(t, err)
	assert.Equal(t, 51, runner.calls[0].MaxLines)
}

// --- file matches ---

func TestSearch_FileMatchesMergeContentPathsAndNames(t *testing.T) {
	runner := &fakeRunner{
		results: []matcher.Result{
			matched(line("pkg/user.go", 4, "type user struct{}")),
		},
		files: []string{"pkg/user.go", "docs/user_guide.md", "main.go"},
	}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "user"})
	require.NoError(t, err)

	// Content path first, then filename matches, deduped.
	assert.Equal(t, []string{"pkg/user.go", "docs/user_guide.md"}, out.FileMatches)
}

func TestSearch_FileListingFailureIsNotFatal(t *testing.T) {
	runner := &fakeRunner{
		results:  []matcher.Result{matched(line("a.go", 1, "x"))},
		filesErr: errors.New("listing broke"),
	}
	eng := newTestEngine(t, runner)

	out, err := eng.Search(context.Background(), &types.SearchRequest{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, out.FileMatches)
}

// --- idempotence / caching ---

func TestSearch_CacheReturnsIdenticalOutcomeWithoutRerunning(t *testing.T) {
	runner := &fakeRunner{
		results: []matcher.Result{matched(line("a.go", 1, "x"))},
		files:   []string{"a.go"},
	}
	cfg := testConfig(t)
	results := cache.NewResultCache(16, time.Minute)
	eng := New(runner, cfg, results)

	req := &types.SearchRequest{Query: "x"}
	first, err := eng.Search(context.Background(), req)
	require.NoError(t, err)

	second, err := eng.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, runner.calls, 1, "second identical request must be served from cache")
}

func TestSearch_DifferentRequestsDoNotShareCacheEntries(t *testing.T) {
	runner := &fakeRunner{results: []matcher.Result{
		matched(line("a.go", 1, "x")),
		matched(line("b.go", 2, "y")),
	}}
	eng := New(runner, testConfig(t), cache.NewResultCache(16, time.Minute))

	out1, err := eng.Search(context.Background(), &types.SearchRequest{Query: "x"})
	require.NoError(t, err)
	out2, err := eng.Search(context.Background(), &types.SearchRequest{Query: "x", Hidden: true})
	require.NoError(t, err)

	assert.NotEqual(t, out1.Matches, out2.Matches)
	assert.Len(t, runner.calls, 2)
}
