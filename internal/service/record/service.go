// Package record glues the ingestion core together: share text goes in, a
// parsed, streak-annotated, persisted GameRecord comes out.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karuha/puzzleboard-go/internal/domain"
	"github.com/karuha/puzzleboard-go/internal/gamecat"
	"github.com/karuha/puzzleboard-go/internal/puzzletime"
	"github.com/karuha/puzzleboard-go/internal/shareparse"
	"github.com/karuha/puzzleboard-go/internal/streak"
)

var (
	ErrMissingOwner = errors.New("owner is required")
	ErrEmptyShare   = errors.New("share text is empty")
	ErrUnknownGame  = errors.New("unknown game")
)

type Service struct {
	repo     Repository
	locker   Locker
	catalog  *gamecat.Catalog
	resolver *puzzletime.Resolver
	logger   *zap.Logger
}

func NewService(repo Repository, locker Locker, catalog *gamecat.Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		catalog:  catalog,
		resolver: &puzzletime.Resolver{},
		logger:   logger,
	}
}

// Ingest parses pasted share text, resolves the puzzle day, computes the
// streak triple against the most recent prior record, and persists the
// result. gameID may be empty, in which case the game is auto-detected from
// the text. The append lock guarantees at most one concurrent append per
// (owner, game) pair.
func (s *Service) Ingest(ctx context.Context, owner, gameID, text string) (*domain.GameRecord, *shareparse.ParsedResult, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, nil, ErrMissingOwner
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, ErrEmptyShare
	}

	var game *domain.Game
	if gameID != "" {
		game = s.catalog.Get(gameID)
		if game == nil {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownGame, gameID)
		}
	}

	expected := ""
	if game != nil {
		expected = game.ID
	}
	res, err := shareparse.Parse(text, expected)
	if err != nil {
		var perr *shareparse.ParseError
		if game != nil && errors.As(err, &perr) && perr.Expected == "" {
			perr.Expected = game.ExampleShare
		}
		return nil, nil, err
	}
	if !res.Completed {
		perr := &shareparse.ParseError{Game: displayName(game, res.Game)}
		if game != nil {
			perr.Expected = game.ExampleShare
		}
		return nil, res, perr
	}
	if game == nil {
		game = s.catalog.Get(res.Game)
		if game == nil {
			return nil, res, fmt.Errorf("%w: detected %q but it is not in the catalog", ErrUnknownGame, res.Game)
		}
	}

	release, err := s.locker.Acquire(ctx, owner, game.ID)
	if err != nil {
		return nil, res, fmt.Errorf("acquire append lock: %w", err)
	}
	defer release()

	prior, err := s.repo.LatestRecord(ctx, owner, game.ID)
	if err != nil {
		return nil, res, fmt.Errorf("load prior record: %w", err)
	}
	var p *streak.Prior
	if prior != nil {
		p = &streak.Prior{Streak: prior.Streak, Failed: prior.Failed, CreatedAt: prior.CreatedAt}
	}

	now := s.resolver.Time()
	rec := &domain.GameRecord{
		ID:           uuid.NewString(),
		Owner:        owner,
		GameID:       game.ID,
		PuzzleDay:    s.resolver.PuzzleDay(now, game).String(),
		CreatedAt:    now,
		Scores:       res.Scores,
		Failed:       res.Failed,
		PuzzleNumber: res.PuzzleNumber,
		Grid:         res.Grid,
		Metrics:      metricsOrNil(res.Metrics),
		Streak:       streak.Accumulate(res.Failed, now, p, game, s.resolver),
	}

	if err := s.repo.InsertRecord(ctx, rec); err != nil {
		return nil, res, err
	}

	s.logger.Info("record ingested",
		zap.String("owner", owner),
		zap.String("game", game.ID),
		zap.String("puzzleDay", rec.PuzzleDay),
		zap.Bool("failed", rec.Failed),
		zap.Int("playstreak", rec.Streak.Playstreak),
		zap.Int("winstreak", rec.Streak.Winstreak),
		zap.Strings("warnings", res.Warnings),
	)
	return rec, res, nil
}

// StreakStatus is the presentation view for one (owner, game) pair: the
// clamped streak, whether it is at risk, and the countdown to the next reset.
type StreakStatus struct {
	Game         string
	Streak       streak.Status
	HoursToReset int
	MinsToReset  int
}

func (s *Service) StreakStatus(ctx context.Context, owner, gameID string) (*StreakStatus, error) {
	game := s.catalog.Get(gameID)
	if game == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, gameID)
	}
	latest, err := s.repo.LatestRecord(ctx, owner, gameID)
	if err != nil {
		return nil, fmt.Errorf("load latest record: %w", err)
	}
	var p *streak.Prior
	if latest != nil {
		p = &streak.Prior{Streak: latest.Streak, Failed: latest.Failed, CreatedAt: latest.CreatedAt}
	}
	h, m := s.resolver.TimeUntilReset(game)
	return &StreakStatus{
		Game:         game.ID,
		Streak:       streak.CurrentStatus(p, game, s.resolver),
		HoursToReset: h,
		MinsToReset:  m,
	}, nil
}

func (s *Service) Recent(ctx context.Context, owner, gameID string, limit int) ([]*domain.GameRecord, error) {
	if s.catalog.Get(gameID) == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, gameID)
	}
	return s.repo.RecentRecords(ctx, owner, gameID, limit)
}

func displayName(game *domain.Game, detected string) string {
	if game != nil {
		return game.DisplayName
	}
	if detected != "" {
		return detected
	}
	return "puzzle"
}

func metricsOrNil(m domain.Metrics) *domain.Metrics {
	if m == (domain.Metrics{}) {
		return nil
	}
	cp := m
	return &cp
}
