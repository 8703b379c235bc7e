package shareparse

import "strings"

// Marker-glyph alphabets, one per grammar. A share-text line belongs to a
// game's grid iff every rune in it (ignoring spaces and emoji variation
// selectors) is in the game's alphabet.

const (
	vs16   = '️' // emoji variation selector
	keycap = '⃣' // combining enclosing keycap
)

func alphabet(glyphs string) map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range glyphs {
		set[r] = true
	}
	return set
}

var (
	wordleGlyphs      = alphabet("⬛⬜🟨🟩🟧🟦")
	quordleGlyphs     = alphabet("⬛⬜🟨🟩🟥123456789")
	worldleGlyphs     = alphabet("🟩🟨⬛⬜🟥➡⬆⬇↗↘↖↙🎉")
	flagleGlyphs      = alphabet("🟩🟥⬛")
	nerdleGlyphs      = alphabet("🟩🟪⬛⬜")
	heardleGlyphs     = alphabet("🔇🔈🔉🔊🟥🟩⬜⬛")
	framedGlyphs      = alphabet("🎥🟥🟩⬛⬜")
	gamedleGlyphs     = alphabet("🎮🟥🟩⬜⬛")
	connectionsGlyphs = alphabet("🟨🟩🟦🟪")
	waffleGlyphs      = alphabet("🟩🟨⬜⭐🔥")
	timeguessrGlyphs  = alphabet("🌎🌍🌏📅🥇🥈🥉✅❌⚫🟡")
	globleGlyphs      = alphabet("🟥🟧🟨🟩⬜")
	strandsGlyphs     = alphabet("🔵🟡💡")

	// Union alphabet used by the generic fallback's grid scan.
	genericGlyphs = alphabet("🟩🟨🟧🟦🟪🟥⬛⬜⭐🔥✅❌")

	// Glyphs the generic fallback treats as "success" when inferring the
	// outcome from the final grid line (🟦 covers high-contrast palettes).
	successGlyphs = alphabet("🟩🟦✅")
)

// extractGrid returns the share-text lines composed entirely of the given
// alphabet, verbatim, joined with newlines.
func extractGrid(text string, glyphs map[rune]bool) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !lineMatches(trimmed, glyphs) {
			continue
		}
		lines = append(lines, trimmed)
	}
	return strings.Join(lines, "\n")
}

func lineMatches(line string, glyphs map[rune]bool) bool {
	for _, r := range line {
		if r == ' ' || r == '\t' || r == vs16 || r == keycap {
			continue
		}
		if !glyphs[r] {
			return false
		}
	}
	return true
}

// glyphRun filters a line down to its alphabet runes, for games that mix
// markers into prose lines.
func glyphRun(line string, glyphs map[rune]bool) string {
	var b strings.Builder
	for _, r := range line {
		if glyphs[r] || r == vs16 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// gridRunes flattens a grid line to its marker runes, dropping spaces and
// combining characters.
func gridRunes(line string) []rune {
	var out []rune
	for _, r := range line {
		if r == ' ' || r == '\t' || r == vs16 || r == keycap {
			continue
		}
		out = append(out, r)
	}
	return out
}

// allSuccess reports whether every rune of a grid line is a success glyph.
func allSuccess(line string) bool {
	rs := gridRunes(line)
	if len(rs) == 0 {
		return false
	}
	for _, r := range rs {
		if !successGlyphs[r] {
			return false
		}
	}
	return true
}
