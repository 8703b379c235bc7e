package streak

import (
	"time"

	"github.com/karuha/puzzleboard-go/internal/domain"
	"github.com/karuha/puzzleboard-go/internal/puzzletime"
)

// Prior is the slice of the most recent stored record the accumulator needs:
// its streak triple, its failure flag, and when it was appended.
type Prior struct {
	Streak    domain.StreakState
	Failed    bool
	CreatedAt time.Time
}

// Accumulate computes the streak triple for a new record from the single most
// recent prior record for the same (owner, game) pair. It never errors: the
// caller guarantees a valid timestamp and game config before appending.
//
// A prior record exactly one puzzle day back extends the play streak; any
// other gap (missed days, same-day or earlier-day resubmission) restarts both
// counters. MaxWinstreak only ever ratchets up.
func Accumulate(failed bool, ts time.Time, prior *Prior, game *domain.Game, r *puzzletime.Resolver) domain.StreakState {
	if prior == nil {
		return first(failed)
	}

	daysDiff := r.PuzzleDay(ts, game).Sub(r.PuzzleDay(prior.CreatedAt, game))
	if daysDiff != 1 {
		s := first(failed)
		if prior.Streak.MaxWinstreak > s.MaxWinstreak {
			s.MaxWinstreak = prior.Streak.MaxWinstreak
		}
		return s
	}

	s := domain.StreakState{Playstreak: prior.Streak.Playstreak + 1}
	switch {
	case failed:
		s.Winstreak = 0
	case prior.Failed:
		s.Winstreak = 1
	default:
		s.Winstreak = prior.Streak.Winstreak + 1
	}
	s.MaxWinstreak = prior.Streak.MaxWinstreak
	if s.Winstreak > s.MaxWinstreak {
		s.MaxWinstreak = s.Winstreak
	}
	return s
}

func first(failed bool) domain.StreakState {
	s := domain.StreakState{Playstreak: 1, Winstreak: 1}
	if failed {
		s.Winstreak = 0
	}
	s.MaxWinstreak = s.Winstreak
	return s
}

// Status is the presentation view of a player's streak for one game.
type Status struct {
	domain.StreakState

	// AtRisk is set when the latest record belongs to yesterday's puzzle: the
	// streak survives but ends unless today's puzzle is played.
	AtRisk bool
}

// CurrentStatus derives the displayable streak from the latest stored record
// without mutating it. A latest record older than yesterday clamps the shown
// play and win streaks to zero; MaxWinstreak is historical and never clamped.
func CurrentStatus(latest *Prior, game *domain.Game, r *puzzletime.Resolver) Status {
	if latest == nil {
		return Status{}
	}
	st := Status{StreakState: latest.Streak}
	gap := r.PuzzleDay(r.Time(), game).Sub(r.PuzzleDay(latest.CreatedAt, game))
	switch {
	case gap == 1:
		st.AtRisk = true
	case gap > 1:
		st.Playstreak = 0
		st.Winstreak = 0
	}
	return st
}
