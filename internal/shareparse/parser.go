// Package shareparse turns pasted puzzle "share text" into a structured,
// validated result. Dispatch is an ordered {signature, grammar} table: the
// first signature matching the text selects that game's grammar, and a
// generic fallback handles unlabeled text. Parsing is a pure function of its
// inputs.
package shareparse

import (
	"regexp"
	"strings"
)

// Parse extracts a structured result from share text. When expectedGame is
// non-empty only that game's grammar is attempted, and a mismatch yields a
// *ParseError carrying the expected format, never a partial result and never
// another grammar's output. Games without a dedicated grammar (custom catalog
// entries) run the generic fallback under the expected game's name.
func Parse(text, expectedGame string) (*ParsedResult, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))

	if expectedGame != "" {
		g := grammarFor(expectedGame)
		if g == nil {
			res := parseGeneric(text)
			if !res.Completed {
				return nil, &ParseError{Game: expectedGame}
			}
			res.Game = expectedGame
			return finalize(res), nil
		}
		res := g.parse(text)
		if res == nil {
			return nil, &ParseError{Game: g.display, Expected: g.example}
		}
		res.Game = g.game
		return finalize(res), nil
	}

	for i := range grammars {
		g := &grammars[i]
		if !g.signature.MatchString(text) {
			continue
		}
		res := g.parse(text)
		if res == nil {
			return nil, &ParseError{Game: g.display, Expected: g.example}
		}
		res.Game = g.game
		return finalize(res), nil
	}

	return finalize(parseGeneric(text)), nil
}

// Supported lists the game IDs with a dedicated grammar, in dispatch order.
func Supported() []string {
	out := make([]string, len(grammars))
	for i := range grammars {
		out[i] = grammars[i].game
	}
	return out
}

// ExampleFor returns the expected-format sample for a game's grammar, or ""
// when the game has none.
func ExampleFor(game string) string {
	if g := grammarFor(game); g != nil {
		return g.example
	}
	return ""
}

var genericHeader = regexp.MustCompile(`(?m)^#?([\p{L}][\p{L}\p{N} .'#-]*?) #?([\d,./-]+) (\d+|X)/(\d+)\*?\s*$`)

// The generic fallback looks for any "<label> <number> <token>/<max>" header
// and separately scans lines against the union marker alphabet to build a
// grid. With a grid but no header, the outcome is inferred from whether the
// last grid line is entirely success glyphs.
func parseGeneric(text string) *ParsedResult {
	res := &ParsedResult{Grid: extractGrid(text, genericGlyphs)}

	if m := genericHeader.FindStringSubmatch(text); m != nil {
		attempts := attemptsOf(m[3])
		res.Scores = singleScore(map[string]any{"attempts": attempts})
		res.Failed = attempts == -1
		res.Completed = true
		res.PuzzleNumber = m[2]
		if max := commaInt(m[4]); max > 0 {
			res.Metrics.MaxAttempts = intPtr(max)
		}
		return res
	}

	if res.Grid != "" {
		lines := strings.Split(res.Grid, "\n")
		res.Failed = !allSuccess(lines[len(lines)-1])
		res.Completed = true
	}
	return res
}
