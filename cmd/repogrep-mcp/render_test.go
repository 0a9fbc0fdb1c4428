package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repogrep/repogrep-mcp/pkg/types"
)

func init() {
	color.NoColor = true
}

func TestRenderOutcome_GroupsByFileSortedByPath(t *testing.T) {
	var buf bytes.Buffer
	renderOutcome(&buf, "x", &types.SearchOutcome{
		StrategyUsed: types.StrategyRegex,
		Matches: []types.MatchLine{
			{Path: "z.go", LineNumber: 9, Text: "x := 9"},
			{Path: "a.go", LineNumber: 1, Text: "x := 1"},
			{Path: "a.go", LineNumber: 2, Text: "x := 2"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "a.go  (2)")
	assert.Contains(t, out, "z.go  (1)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("a.go")), bytes.Index(buf.Bytes(), []byte("z.go")))
	assert.NotContains(t, out, "note:")
}

func TestRenderOutcome_NoMatch(t *testing.T) {
	var buf bytes.Buffer
	renderOutcome(&buf, "ghost", &types.SearchOutcome{})
	assert.Contains(t, buf.String(), "No matches found")
}

func TestRenderOutcome_FallbackAndTruncationNotes(t *testing.T) {
	var buf bytes.Buffer
	renderOutcome(&buf, "class User", &types.SearchOutcome{
		StrategyUsed: types.StrategyMultiTermAnd,
		Matches:      []types.MatchLine{{Path: "m.py", LineNumber: 10, Text: "class Account(User):"}},
		FileMatches:  []string{"m.py"},
		Truncated:    true,
	})

	out := buf.String()
	assert.Contains(t, out, "fallback strategy multi_term_and")
	assert.Contains(t, out, "truncated")
	assert.Contains(t, out, "Files")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	outcome := &types.SearchOutcome{
		StrategyUsed: types.StrategyLiteral,
		Matches:      []types.MatchLine{{Path: "a.go", LineNumber: 3, Text: "a[b]"}},
	}
	require.NoError(t, renderJSON(&buf, outcome))

	var decoded types.SearchOutcome
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *outcome, decoded)
}
