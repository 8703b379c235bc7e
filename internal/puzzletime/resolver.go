package puzzletime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/karuha/puzzleboard-go/internal/domain"
)

// Day is a civil calendar date in a game's relevant time frame. All puzzle-day
// arithmetic is done on explicit year/month/day components so DST shifts and
// month/year rollovers cannot produce off-by-one days.
type Day struct {
	Year  int
	Month time.Month
	Date  int
}

func dayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Date: d}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Date)
}

func (d Day) utcMidnight() time.Time {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, time.UTC)
}

// Sub returns the whole-day difference d - o.
func (d Day) Sub(o Day) int {
	return int(d.utcMidnight().Sub(o.utcMidnight()) / (24 * time.Hour))
}

// Before reports whether d is strictly earlier than o.
func (d Day) Before(o Day) bool { return d.Sub(o) < 0 }

// ParseResetTime parses a "HH:MM" 24-hour reset time.
func ParseResetTime(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("reset time %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("reset time %q: bad hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("reset time %q: bad minute", s)
	}
	return hour, minute, nil
}

// mustResetTime panics on a malformed reset time. A game config that reaches
// the resolver unvalidated is a caller contract violation; defaulting here
// would silently corrupt streak data (the catalog validates at load).
func mustResetTime(game *domain.Game) (hour, minute int) {
	h, m, err := ParseResetTime(game.ResetTime)
	if err != nil {
		panic(fmt.Sprintf("puzzletime: game %q: %v", game.ID, err))
	}
	return h, m
}

// Resolver answers puzzle-period questions for (timestamp, game) pairs.
// The zero value uses the wall clock; tests inject Now.
type Resolver struct {
	Now func() time.Time
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Time exposes the resolver's time source so consumers comparing "now"
// against stored timestamps stay consistent with injected test clocks.
func (r *Resolver) Time() time.Time { return r.now() }

// frame moves t into the game's relevant time frame: the timestamp's own local
// frame for asynchronous games, UTC for synchronous ones.
func frame(t time.Time, game *domain.Game) time.Time {
	if game.IsAsynchronous {
		return t
	}
	return t.UTC()
}

// PuzzleDay returns the logical puzzle day a timestamp belongs to. Times
// strictly before the game's reset time still count toward the previous day's
// puzzle.
func (r *Resolver) PuzzleDay(ts time.Time, game *domain.Game) Day {
	resetH, resetM := mustResetTime(game)
	t := frame(ts, game)
	d := dayOf(t)
	if t.Hour() < resetH || (t.Hour() == resetH && t.Minute() < resetM) {
		y, m, dd := t.AddDate(0, 0, -1).Date()
		d = Day{Year: y, Month: m, Date: dd}
	}
	return d
}

// IsCurrentPuzzle reports whether a record's timestamp falls in the current
// puzzle period. Bare calendar-date timestamps (no time component) are
// compared directly against today's UTC date so legacy records stay stable
// under any reset-time configuration.
func (r *Resolver) IsCurrentPuzzle(recordTS time.Time, game *domain.Game) bool {
	if isBareDate(recordTS) {
		return dayOf(recordTS) == dayOf(r.now().UTC())
	}
	return r.PuzzleDay(recordTS, game) == r.PuzzleDay(r.now(), game)
}

func isBareDate(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// LastResetInstant returns the most recent instant the game's reset fired, in
// the game's relevant frame.
func (r *Resolver) LastResetInstant(game *domain.Game) time.Time {
	resetH, resetM := mustResetTime(game)
	n := frame(r.now(), game)
	y, m, d := n.Date()
	reset := time.Date(y, m, d, resetH, resetM, 0, 0, n.Location())
	if reset.After(n) {
		reset = reset.AddDate(0, 0, -1)
	}
	return reset
}

// TimeUntilReset returns the whole hours and remaining minutes until the next
// reset, rounded to the minute.
func (r *Resolver) TimeUntilReset(game *domain.Game) (hours, minutes int) {
	resetH, resetM := mustResetTime(game)
	n := frame(r.now(), game)
	y, m, d := n.Date()
	reset := time.Date(y, m, d, resetH, resetM, 0, 0, n.Location())
	if !reset.After(n) {
		reset = reset.AddDate(0, 0, 1)
	}
	total := int(reset.Sub(n).Round(time.Minute) / time.Minute)
	if total < 0 {
		total = 0
	}
	return total / 60, total % 60
}
