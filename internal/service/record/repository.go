package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/karuha/puzzleboard-go/internal/domain"
)

// ErrDuplicateRecord is returned when an attempt already exists for the same
// (owner, game, puzzle day).
var ErrDuplicateRecord = errors.New("puzzle record already exists for this day")

// Repository persists game records. Streak metadata is written once at insert
// and never recomputed; see UpdateRecordScores.
type Repository interface {
	InsertRecord(ctx context.Context, rec *domain.GameRecord) error
	LatestRecord(ctx context.Context, owner, gameID string) (*domain.GameRecord, error)
	RecentRecords(ctx context.Context, owner, gameID string, limit int) ([]*domain.GameRecord, error)

	// UpdateRecordScores edits a stored record's scores and failure flag.
	// Later records' streak metadata is intentionally NOT recomputed; edits
	// are display corrections, not history rewrites.
	UpdateRecordScores(ctx context.Context, id, owner string, scores domain.Scores, failed bool) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const recordColumns = `
			id,
			owner,
			game_id,
			puzzle_day,
			created_at,
			scores,
			failed,
			puzzle_number,
			grid,
			metrics,
			playstreak,
			winstreak,
			max_winstreak`

func (r *repository) InsertRecord(ctx context.Context, rec *domain.GameRecord) error {
	if rec == nil {
		return fmt.Errorf("nil game record payload")
	}

	scoresJSON, err := nullableJSON(rec.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	metricsJSON, err := nullableJSON(rec.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	const query = `
		INSERT INTO game_records (
			id,
			owner,
			game_id,
			puzzle_day,
			created_at,
			scores,
			failed,
			puzzle_number,
			grid,
			metrics,
			playstreak,
			winstreak,
			max_winstreak
		)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10::jsonb, $11, $12, $13)
		ON CONFLICT (owner, game_id, puzzle_day) DO NOTHING
		RETURNING id`

	var id sql.NullString
	err = r.db.QueryRowContext(
		ctx,
		query,
		rec.ID,
		rec.Owner,
		rec.GameID,
		rec.PuzzleDay,
		rec.CreatedAt,
		scoresJSON,
		rec.Failed,
		rec.PuzzleNumber,
		rec.Grid,
		metricsJSON,
		rec.Streak.Playstreak,
		rec.Streak.Winstreak,
		rec.Streak.MaxWinstreak,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return ErrDuplicateRecord
	}
	if err != nil {
		return fmt.Errorf("insert game record: %w", err)
	}
	return nil
}

func (r *repository) LatestRecord(ctx context.Context, owner, gameID string) (*domain.GameRecord, error) {
	const query = `
		SELECT` + recordColumns + `
		FROM game_records
		WHERE owner = $1 AND game_id = $2
		ORDER BY created_at DESC
		LIMIT 1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, owner, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest record: %w", err)
	}
	return rec, nil
}

func (r *repository) RecentRecords(ctx context.Context, owner, gameID string, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT` + recordColumns + `
		FROM game_records
		WHERE owner = $1 AND game_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, owner, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent records: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *repository) UpdateRecordScores(ctx context.Context, id, owner string, scores domain.Scores, failed bool) error {
	scoresJSON, err := nullableJSON(scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	const query = `
		UPDATE game_records
		SET scores = $3::jsonb, failed = $4
		WHERE id = $1 AND owner = $2`

	res, err := r.db.ExecContext(ctx, query, id, owner, scoresJSON, failed)
	if err != nil {
		return fmt.Errorf("update game record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.GameRecord, error) {
	var (
		rec         domain.GameRecord
		scoresJSON  []byte
		metricsJSON []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Owner,
		&rec.GameID,
		&rec.PuzzleDay,
		&rec.CreatedAt,
		&scoresJSON,
		&rec.Failed,
		&rec.PuzzleNumber,
		&rec.Grid,
		&metricsJSON,
		&rec.Streak.Playstreak,
		&rec.Streak.Winstreak,
		&rec.Streak.MaxWinstreak,
	); err != nil {
		return nil, err
	}
	if len(scoresJSON) > 0 {
		if err := json.Unmarshal(scoresJSON, &rec.Scores); err != nil {
			return nil, fmt.Errorf("unmarshal scores: %w", err)
		}
	}
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &rec.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	return &rec, nil
}

func nullableJSON(v any) (any, error) {
	switch x := v.(type) {
	case domain.Scores:
		if len(x) == 0 {
			return nil, nil
		}
	case *domain.Metrics:
		if x == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
