package shareparse

import (
	"fmt"
	"time"

	"github.com/karuha/puzzleboard-go/internal/domain"
)

// ParsedResult is the structured outcome of parsing one pasted share text.
// Optional fields are absent (zero/nil) when the grammar that ran does not
// extract them.
type ParsedResult struct {
	// Game is the grammar that produced the result ("" for the generic
	// fallback on unlabeled text).
	Game string

	Scores    domain.Scores
	Failed    bool
	Completed bool

	// PuzzleNumber is an opaque per-game identifier (numeric index or date
	// string), display-only.
	PuzzleNumber string

	// Grid holds the share-text lines made of the game's marker glyphs,
	// verbatim, newline-joined. It is a display artifact and is never
	// reparsed.
	Grid string

	Metrics domain.Metrics

	// Warnings collects non-fatal parse notes, e.g. a score field captured as
	// text where a number was expected.
	Warnings []string
}

// ParseError reports share text that does not match the expected game's
// format. It is user-facing: Expected carries a sample the user can compare
// their paste against.
type ParseError struct {
	Game     string
	Expected string
}

func (e *ParseError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("could not read a %s result from the pasted text", e.Game)
	}
	return fmt.Sprintf("could not read a %s result from the pasted text (expected something like %q)", e.Game, e.Expected)
}

// Score fields allowed to hold non-numeric values.
var allowedStringFields = map[string]bool{
	"grade": true,
}

// clock for the puzzle-number fallback; tests override it.
var nowFunc = time.Now

// finalize applies the grammar-independent post-processing pass: empty
// sub-puzzle maps are pruned (absent when all are empty), unexpected
// non-numeric score values become warnings, and an unset puzzle number
// defaults to the current UTC calendar date.
func finalize(res *ParsedResult) *ParsedResult {
	for key, fields := range res.Scores {
		if len(fields) == 0 {
			delete(res.Scores, key)
			continue
		}
		for name, v := range fields {
			switch v.(type) {
			case int, int64, float64:
			case string:
				if !allowedStringFields[name] {
					res.Warnings = append(res.Warnings,
						fmt.Sprintf("score %s.%s: expected a number, got %q", key, name, v))
				}
			default:
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("score %s.%s: expected a number, got %T", key, name, v))
			}
		}
	}
	if len(res.Scores) == 0 {
		res.Scores = nil
	}
	if res.PuzzleNumber == "" {
		res.PuzzleNumber = nowFunc().UTC().Format("2006-01-02")
	}
	return res
}
