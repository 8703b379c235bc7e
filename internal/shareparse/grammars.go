package shareparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/karuha/puzzleboard-go/internal/domain"
)

// grammar is one game's share-text pipeline. signature is the short
// near-unique pattern used for auto-detection; parse runs the full grammar
// and returns nil when the header does not match. Grammars must keep their
// signatures specific enough that no two can claim the same text.
type grammar struct {
	game      string
	display   string
	example   string
	signature *regexp.Regexp
	parse     func(text string) *ParsedResult
}

// Ordered dispatch table. Adding a game is a data addition here plus a
// catalog entry.
var grammars = []grammar{
	{"wordle", "Wordle", "Wordle 1,643 4/6", regexp.MustCompile(`(?m)^Wordle [\d,]+ [1-6X]/6`), parseWordle},
	{"quordle", "Quordle", "Daily Quordle 742", regexp.MustCompile(`(?m)^Daily Quordle [\d,]+`), parseQuordle},
	{"worldle", "Worldle", "#Worldle #1000 3/6 (100%)", regexp.MustCompile(`(?m)^#Worldle #`), parseWorldle},
	{"flagle", "Flagle", "#Flagle #966 (11.03.2024) 2/6", regexp.MustCompile(`(?m)^#Flagle #`), parseFlagle},
	{"nerdle", "Nerdle", "nerdlegame 800 3/6", regexp.MustCompile(`(?m)^nerdlegame `), parseNerdle},
	{"heardle", "Heardle", "#Heardle #612", regexp.MustCompile(`(?m)^#Heardle #`), parseHeardle},
	{"framed", "Framed", "Framed #737", regexp.MustCompile(`(?m)^Framed #`), parseFramed},
	{"gamedle", "Gamedle", "Gamedle (Cover art): 20/04/2024 🎮", regexp.MustCompile(`(?m)^Gamedle(?: \([^)]+\))?:`), parseGamedle},
	{"connections", "Connections", "Connections\nPuzzle #402", regexp.MustCompile(`(?ms)^Connections\s*$.*?^Puzzle #`), parseConnections},
	{"waffle", "Waffle", "#waffle795 4/5", regexp.MustCompile(`(?m)^#waffle\d+ `), parseWaffle},
	{"timeguessr", "TimeGuessr", "TimeGuessr #301 41,080/50,000", regexp.MustCompile(`(?m)^TimeGuessr #`), parseTimeguessr},
	{"globle", "Globle", "🌎 Jun 2, 2024 🌍\n🔥 1 | Avg. Guesses: 7.9\n🟧🟧🟥🟩 = 4", regexp.MustCompile(`(?m)^🌎 .+ 🌍\s*$`), parseGloble},
	{"strands", "Strands", "Strands #123\n“Sound logic”\n💡🔵🔵🟡\n🔵🔵🔵🔵", regexp.MustCompile(`(?m)^Strands #[\d,]+`), parseStrands},
	{"squaredle", "Squaredle", "Squaredle #123 41/46 words", regexp.MustCompile(`(?im)\bSquaredle\b`), parseSquaredle},
	{"dailydozen", "Daily Dozen Trivia", "Daily Dozen Trivia Grade: A", regexp.MustCompile(`Daily Dozen Trivia`), parseDailyDozen},
	{"nytmini", "NYT Mini Crossword", "I solved the 8/28/2026 New York Times Mini Crossword in 0:36!", regexp.MustCompile(`New York Times Mini Crossword`), parseMini},
}

func grammarFor(game string) *grammar {
	for i := range grammars {
		if strings.EqualFold(grammars[i].game, game) {
			return &grammars[i]
		}
	}
	return nil
}

// attemptsOf maps an attempts token to its numeric value; the "X" failure
// marker is stored as -1.
func attemptsOf(tok string) int {
	if tok == "X" {
		return -1
	}
	n, _ := strconv.Atoi(tok)
	return n
}

func commaInt(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	return n
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
func int64Ptr(n int64) *int64     { return &n }

func singleScore(fields map[string]any) domain.Scores {
	return domain.Scores{"puzzle1": fields}
}

// countToFirstSuccess walks marker runes (ignoring any in skip) and returns
// the 1-based position of the first success glyph.
func countToFirstSuccess(rs []rune, skip map[rune]bool) (int, bool) {
	n := 0
	for _, r := range rs {
		if skip != nil && skip[r] {
			continue
		}
		n++
		if r == '🟩' {
			return n, true
		}
	}
	return 0, false
}

var wordleHeader = regexp.MustCompile(`(?m)^Wordle ([\d,]+) ([1-6X])/6(\*)?`)

func parseWordle(text string) *ParsedResult {
	m := wordleHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	attempts := attemptsOf(m[2])
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"attempts": attempts}),
		Failed:       attempts == -1,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         extractGrid(text, wordleGlyphs),
		Metrics:      domain.Metrics{MaxAttempts: intPtr(6)},
	}
}

var quordleHeader = regexp.MustCompile(`(?m)^Daily Quordle ([\d,]+)`)

// Quordle reports four sub-puzzles as keycap digits (🟥 for an unsolved
// board), e.g. "5️⃣7️⃣\n4️⃣🟥".
func parseQuordle(text string) *ParsedResult {
	m := quordleHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var attempts []int
	for _, line := range strings.Split(text, "\n") {
		rs := gridRunes(line)
		if len(rs) == 0 || !isQuordleScoreRow(rs) {
			continue
		}
		for _, r := range rs {
			if r >= '1' && r <= '9' {
				attempts = append(attempts, int(r-'0'))
			} else {
				attempts = append(attempts, -1)
			}
		}
	}
	if len(attempts) == 0 {
		return nil
	}
	scores := make(domain.Scores, len(attempts))
	failed := false
	for i, a := range attempts {
		scores["puzzle"+strconv.Itoa(i+1)] = map[string]any{"attempts": a}
		if a == -1 {
			failed = true
		}
	}
	return &ParsedResult{
		Scores:       scores,
		Failed:       failed,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         extractGrid(text, quordleGlyphs),
		Metrics:      domain.Metrics{MaxAttempts: intPtr(9)},
	}
}

func isQuordleScoreRow(rs []rune) bool {
	for _, r := range rs {
		if (r < '1' || r > '9') && r != '🟥' {
			return false
		}
	}
	return true
}

var worldleHeader = regexp.MustCompile(`(?m)^#Worldle #([\d,]+) ([1-6X])/6(?: \((\d+(?:\.\d+)?)%\))?`)

func parseWorldle(text string) *ParsedResult {
	m := worldleHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	attempts := attemptsOf(m[2])
	res := &ParsedResult{
		Scores:       singleScore(map[string]any{"attempts": attempts}),
		Failed:       attempts == -1,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         extractGrid(text, worldleGlyphs),
		Metrics:      domain.Metrics{MaxAttempts: intPtr(6)},
	}
	if m[3] != "" {
		pct, _ := strconv.ParseFloat(m[3], 64)
		res.Metrics.Accuracy = floatPtr(pct)
	}
	return res
}

var flagleHeader = regexp.MustCompile(`(?m)^#Flagle #(\d+) \([0-9.]+\) ([1-6X])/6`)

func parseFlagle(text string) *ParsedResult {
	m := flagleHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	attempts := attemptsOf(m[2])
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"attempts": attempts}),
		Failed:       attempts == -1,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         extractGrid(text, flagleGlyphs),
		Metrics:      domain.Metrics{MaxAttempts: intPtr(6)},
	}
}

var nerdleHeader = regexp.MustCompile(`(?m)^nerdlegame (\d+) ([1-6X])/6`)

func parseNerdle(text string) *ParsedResult {
	m := nerdleHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	attempts := attemptsOf(m[2])
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"attempts": attempts}),
		Failed:       attempts == -1,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         extractGrid(text, nerdleGlyphs),
		Metrics:      domain.Metrics{MaxAttempts: intPtr(6)},
	}
}

var heardleHeader = regexp.MustCompile(`(?m)^#Heardle #([\d,]+)`)

var heardleSpeakers = alphabet("🔈🔉🔊")

// Heardle has no numeric header; the attempt count is the position of the
// first success glyph in the result strip (🔇 marks a give-up).
func parseHeardle(text string) *ParsedResult {
	m := heardleHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	grid := extractGrid(text, heardleGlyphs)
	attempts, solved := countToFirstSuccess(gridRunes(strings.ReplaceAll(grid, "\n", "")), heardleSpeakers)
	if strings.ContainsRune(text, '🔇') {
		solved = false
	}
	if !solved {
		attempts = -1
	}
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"attempts": attempts}),
		Failed:       !solved,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         grid,
		Metrics:      domain.Metrics{MaxAttempts: intPtr(6)},
	}
}

var framedHeader = regexp.MustCompile(`(?m)^Framed #([\d,]+)`)

var framedSkip = alphabet("🎥")

func parseFramed(text string) *ParsedResult {
	m := framedHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	grid := extractGrid(text, framedGlyphs)
	attempts, solved := countToFirstSuccess(gridRunes(strings.ReplaceAll(grid, "\n", "")), framedSkip)
	if !solved {
		attempts = -1
	}
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"attempts": attempts}),
		Failed:       !solved,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         grid,
		Metrics:      domain.Metrics{MaxAttempts: intPtr(6)},
	}
}

var gamedleHeader = regexp.MustCompile(`(?m)^Gamedle(?: \([^)]+\))?: (\S+)`)

var gamedleSkip = alphabet("🎮⬜")

// Gamedle puts its guess squares on the header line itself, so the grid is
// the glyph run filtered out of each line rather than whole matching lines.
func parseGamedle(text string) *ParsedResult {
	m := gamedleHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var gridLines []string
	for _, line := range strings.Split(text, "\n") {
		if run := glyphRun(line, gamedleGlyphs); run != "" {
			gridLines = append(gridLines, run)
		}
	}
	grid := strings.Join(gridLines, "\n")
	flat := gridRunes(strings.ReplaceAll(grid, "\n", ""))
	attempts, solved := countToFirstSuccess(flat, gamedleSkip)
	if !solved {
		attempts = -1
	}
	maxAttempts := 0
	for _, r := range flat {
		if r != '🎮' {
			maxAttempts++
		}
	}
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"attempts": attempts}),
		Failed:       !solved,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         grid,
		Metrics:      domain.Metrics{MaxAttempts: intPtr(maxAttempts)},
	}
}

var connectionsHeader = regexp.MustCompile(`(?m)^Puzzle #([\d,]+)`)

// Connections is a threshold grammar: the puzzle is solved when all four
// groups come out monochrome; off-color rows count as mistakes.
func parseConnections(text string) *ParsedResult {
	m := connectionsHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	grid := extractGrid(text, connectionsGlyphs)
	groups, mistakes := 0, 0
	for _, line := range strings.Split(grid, "\n") {
		rs := gridRunes(line)
		if len(rs) != 4 {
			continue
		}
		if rs[0] == rs[1] && rs[1] == rs[2] && rs[2] == rs[3] {
			groups++
		} else {
			mistakes++
		}
	}
	if groups+mistakes == 0 {
		return nil
	}
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"groups": groups, "mistakes": mistakes}),
		Failed:       groups < 4,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         grid,
	}
}

var waffleHeader = regexp.MustCompile(`(?m)^#waffle(\d+) ([0-5X])/5`)

func parseWaffle(text string) *ParsedResult {
	m := waffleHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	stars := attemptsOf(m[2])
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"stars": stars}),
		Failed:       stars == -1,
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         extractGrid(text, waffleGlyphs),
		Metrics:      domain.Metrics{MaxAttempts: intPtr(5)},
	}
}

var timeguessrHeader = regexp.MustCompile(`(?m)^TimeGuessr #(\d+) ([\d,]+)/([\d,]+)`)

func parseTimeguessr(text string) *ParsedResult {
	m := timeguessrHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	score, max := commaInt(m[2]), commaInt(m[3])
	res := &ParsedResult{
		Scores:       singleScore(map[string]any{"score": score}),
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         extractGrid(text, timeguessrGlyphs),
	}
	if max > 0 {
		res.Metrics.Accuracy = floatPtr(100 * float64(score) / float64(max))
	}
	return res
}

var (
	globleHeader  = regexp.MustCompile(`(?m)^🌎 (.+?) 🌍`)
	globleGuesses = regexp.MustCompile(`=\s*(\d+)`)
)

// Globle allows unlimited guesses and every share ends on the target country,
// so a share is never a failure. The guess count follows the heat strip
// ("🟧🟧🟥🟩 = 4"); the strip itself is the grid.
func parseGloble(text string) *ParsedResult {
	m := globleHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var gridLines []string
	for _, line := range strings.Split(text, "\n") {
		if run := glyphRun(line, globleGlyphs); run != "" {
			gridLines = append(gridLines, run)
		}
	}
	grid := strings.Join(gridLines, "\n")
	guesses := len(gridRunes(strings.ReplaceAll(grid, "\n", "")))
	if g := globleGuesses.FindStringSubmatch(text); g != nil {
		guesses = commaInt(g[1])
	}
	if guesses == 0 {
		return nil
	}
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"guesses": guesses}),
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         grid,
	}
}

var strandsHeader = regexp.MustCompile(`(?m)^Strands #([\d,]+)`)

// Strands shares are only produced for a finished board, so the result is
// never a failure. 💡 marks a word found via hint, 🟡 the spangram.
func parseStrands(text string) *ParsedResult {
	m := strandsHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	grid := extractGrid(text, strandsGlyphs)
	hints, words := 0, 0
	for _, r := range gridRunes(strings.ReplaceAll(grid, "\n", "")) {
		switch r {
		case '💡':
			hints++
		case '🔵', '🟡':
			words++
		}
	}
	if hints+words == 0 {
		return nil
	}
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"words": words, "hints": hints}),
		Completed:    true,
		PuzzleNumber: m[1],
		Grid:         grid,
	}
}

var (
	squaredleHeader = regexp.MustCompile(`(?im)Squaredle #?([\d,/-]+)`)
	squaredleWords  = regexp.MustCompile(`(?i)(\d+)/(\d+) words`)
	squaredleBonus  = regexp.MustCompile(`(?i)\+(\d+) bonus`)
)

// Squaredle is scored by threshold: solved when every required word is found.
func parseSquaredle(text string) *ParsedResult {
	h := squaredleHeader.FindStringSubmatch(text)
	w := squaredleWords.FindStringSubmatch(text)
	if h == nil || w == nil {
		return nil
	}
	found, total := commaInt(w[1]), commaInt(w[2])
	fields := map[string]any{"words": found}
	if b := squaredleBonus.FindStringSubmatch(text); b != nil {
		fields["bonusWords"] = commaInt(b[1])
	}
	res := &ParsedResult{
		Scores:       singleScore(fields),
		Failed:       found < total,
		Completed:    true,
		PuzzleNumber: h[1],
	}
	if total > 0 {
		res.Metrics.Uniqueness = floatPtr(float64(found) / float64(total))
	}
	return res
}

var (
	dailyDozenGrade   = regexp.MustCompile(`Grade:\s*([A-F][+-]?)`)
	dailyDozenCorrect = regexp.MustCompile(`(\d+) Correct`)
)

func parseDailyDozen(text string) *ParsedResult {
	g := dailyDozenGrade.FindStringSubmatch(text)
	if g == nil {
		return nil
	}
	fields := map[string]any{"grade": g[1]}
	if c := dailyDozenCorrect.FindStringSubmatch(text); c != nil {
		fields["correct"] = commaInt(c[1])
	}
	return &ParsedResult{
		Scores:    singleScore(fields),
		Failed:    strings.HasPrefix(g[1], "F"),
		Completed: true,
		Metrics:   domain.Metrics{Grade: g[1]},
	}
}

var miniHeader = regexp.MustCompile(`I solved the (.+?) New York Times Mini Crossword in (\d+):(\d{2})`)

func parseMini(text string) *ParsedResult {
	m := miniHeader.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	elapsed := int64(minutes*60+seconds) * 1000
	return &ParsedResult{
		Scores:       singleScore(map[string]any{"seconds": minutes*60 + seconds}),
		Completed:    true,
		PuzzleNumber: m[1],
		Metrics:      domain.Metrics{TimeMS: int64Ptr(elapsed)},
	}
}
