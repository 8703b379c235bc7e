package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/karuha/puzzleboard-go/internal/gamecat"
	"github.com/karuha/puzzleboard-go/internal/puzzletime"
	"github.com/karuha/puzzleboard-go/internal/shareparse"
)

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	catalog, err := gamecat.New("")
	if err != nil {
		t.Fatalf("gamecat.New: %v", err)
	}
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryRepository(), NewMutexLocker(), catalog, nil)
	svc.resolver = &puzzletime.Resolver{Now: func() time.Time { return now }}
	return svc, &now
}

func TestIngestFirstRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, res, err := svc.Ingest(ctx, "ana", "wordle", "Wordle 1,107 4/6\n⬛🟨⬛⬛⬛\n🟩🟩🟩🟩🟩")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.PuzzleDay != "2024-07-01" {
		t.Fatalf("puzzle day = %s", rec.PuzzleDay)
	}
	if rec.Streak.Playstreak != 1 || rec.Streak.Winstreak != 1 || rec.Streak.MaxWinstreak != 1 {
		t.Fatalf("streak = %+v", rec.Streak)
	}
	if res.PuzzleNumber != "1,107" {
		t.Fatalf("parsed number = %q", res.PuzzleNumber)
	}
}

func TestIngestStreakProgression(t *testing.T) {
	svc, now := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Ingest(ctx, "ana", "wordle", "Wordle 1,107 4/6"); err != nil {
		t.Fatalf("day 1: %v", err)
	}
	*now = now.AddDate(0, 0, 1)
	rec, _, err := svc.Ingest(ctx, "ana", "wordle", "Wordle 1,108 3/6")
	if err != nil {
		t.Fatalf("day 2: %v", err)
	}
	if rec.Streak.Playstreak != 2 || rec.Streak.Winstreak != 2 {
		t.Fatalf("day 2 streak = %+v", rec.Streak)
	}

	*now = now.AddDate(0, 0, 1)
	rec, _, err = svc.Ingest(ctx, "ana", "wordle", "Wordle 1,109 X/6")
	if err != nil {
		t.Fatalf("day 3: %v", err)
	}
	if rec.Streak.Playstreak != 3 || rec.Streak.Winstreak != 0 || rec.Streak.MaxWinstreak != 2 {
		t.Fatalf("day 3 streak = %+v", rec.Streak)
	}
}

func TestIngestDuplicateDay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Ingest(ctx, "ana", "wordle", "Wordle 1,107 4/6"); err != nil {
		t.Fatalf("first: %v", err)
	}
	_, _, err := svc.Ingest(ctx, "ana", "wordle", "Wordle 1,107 5/6")
	if !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("want ErrDuplicateRecord, got %v", err)
	}
}

func TestIngestAutoDetect(t *testing.T) {
	svc, _ := newTestService(t)

	rec, _, err := svc.Ingest(context.Background(), "ana", "", "nerdlegame 800 3/6")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.GameID != "nerdle" {
		t.Fatalf("detected game = %q", rec.GameID)
	}
}

func TestIngestMismatchSurfacesExpectedFormat(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Ingest(context.Background(), "ana", "wordle", "#Worldle #795 4/6 (98%)")
	var perr *shareparse.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("want *ParseError, got %v", err)
	}
	if perr.Expected == "" {
		t.Fatal("parse error must carry an expected-format example")
	}
}

func TestIngestValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Ingest(ctx, " ", "wordle", "Wordle 1 1/6"); !errors.Is(err, ErrMissingOwner) {
		t.Fatalf("owner: %v", err)
	}
	if _, _, err := svc.Ingest(ctx, "ana", "wordle", "  "); !errors.Is(err, ErrEmptyShare) {
		t.Fatalf("text: %v", err)
	}
	if _, _, err := svc.Ingest(ctx, "ana", "tictactoe", "Wordle 1 1/6"); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("game: %v", err)
	}
}

func TestStreakStatusAtRisk(t *testing.T) {
	svc, now := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Ingest(ctx, "ana", "wordle", "Wordle 1,107 4/6"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	*now = now.AddDate(0, 0, 1)
	st, err := svc.StreakStatus(ctx, "ana", "wordle")
	if err != nil {
		t.Fatalf("StreakStatus: %v", err)
	}
	if !st.Streak.AtRisk || st.Streak.Playstreak != 1 {
		t.Fatalf("day after: %+v", st.Streak)
	}

	*now = now.AddDate(0, 0, 2)
	st, err = svc.StreakStatus(ctx, "ana", "wordle")
	if err != nil {
		t.Fatalf("StreakStatus: %v", err)
	}
	if st.Streak.AtRisk || st.Streak.Playstreak != 0 {
		t.Fatalf("stale: %+v", st.Streak)
	}
}

func TestMemrepoUpdateScoresDoesNotTouchStreaks(t *testing.T) {
	svc, now := newTestService(t)
	ctx := context.Background()

	rec1, _, err := svc.Ingest(ctx, "ana", "wordle", "Wordle 1,107 4/6")
	if err != nil {
		t.Fatalf("day 1: %v", err)
	}
	*now = now.AddDate(0, 0, 1)
	if _, _, err := svc.Ingest(ctx, "ana", "wordle", "Wordle 1,108 3/6"); err != nil {
		t.Fatalf("day 2: %v", err)
	}

	// Flip day 1 to a loss after the fact; day 2's streak stays as written.
	if err := svc.repo.UpdateRecordScores(ctx, rec1.ID, "ana", rec1.Scores, true); err != nil {
		t.Fatalf("update: %v", err)
	}
	latest, err := svc.repo.LatestRecord(ctx, "ana", "wordle")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Streak.Winstreak != 2 {
		t.Fatalf("edit must not recompute later streaks: %+v", latest.Streak)
	}
}
