package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/repogrep/repogrep-mcp/pkg/types"
)

var (
	colorHeader  = color.New(color.FgHiMagenta, color.Bold)
	colorPath    = color.New(color.FgCyan, color.Bold)
	colorLineNo  = color.New(color.FgYellow)
	colorWarning = color.New(color.FgYellow)
)

// renderOutcome prints a search outcome grouped by file, sorted by path.
func renderOutcome(w io.Writer, query string, o *types.SearchOutcome) {
	if !o.Matched() {
		fmt.Fprintf(w, "No matches found for %q.\n", query)
		return
	}

	colorHeader.Fprintf(w, "Matches for %q", query)
	fmt.Fprintf(w, "  (strategy: %s)\n\n", o.StrategyUsed)

	byFile := make(map[string][]types.MatchLine)
	for _, m := range o.Matches {
		byFile[m.Path] = append(byFile[m.Path], m)
	}
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		lines := byFile[p]
		colorPath.Fprint(w, p)
		fmt.Fprintf(w, "  (%d)\n", len(lines))
		for _, m := range lines {
			colorLineNo.Fprintf(w, "  %6d", m.LineNumber)
			fmt.Fprintf(w, "  %s\n", m.Text)
		}
		fmt.Fprintln(w)
	}

	if len(o.FileMatches) > 0 {
		colorHeader.Fprintln(w, "Files")
		for _, p := range o.FileMatches {
			fmt.Fprintf(w, "  %s\n", p)
		}
		fmt.Fprintln(w)
	}

	if o.StrategyUsed != types.StrategyRegex {
		colorWarning.Fprintf(w, "note: fallback strategy %s was used\n", o.StrategyUsed)
	}
	if o.Truncated {
		colorWarning.Fprintf(w, "note: results truncated to %d lines; narrow the query or raise --max\n", len(o.Matches))
	}
}

// renderJSON prints the raw outcome for scripting.
func renderJSON(w io.Writer, o *types.SearchOutcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(o)
}
