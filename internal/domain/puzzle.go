package domain

import "time"

// NoMaximum marks a score field with no upper bound in a game's score schema.
const NoMaximum = -1

// Game describes one trackable daily puzzle game and its reset configuration.
// Games are read-only catalog entries; the ingestion core never mutates them.
type Game struct {
	ID          string
	DisplayName string

	// ResetTime is the "HH:MM" wall-clock time at which a new puzzle is issued.
	ResetTime string

	// IsAsynchronous games reset in each player's local time; synchronous games
	// reset at the same UTC instant for everyone.
	IsAsynchronous bool

	// ScoreTypes maps sub-puzzle key -> score field name -> maximum value
	// (NoMaximum for unbounded fields).
	ScoreTypes map[string]map[string]int

	// ExampleShare is a short expected-format sample surfaced in parse errors.
	ExampleShare string
}

// Scores maps sub-puzzle key -> score field -> value. Values are numeric except
// for the letter-grade field, which is a string by contract.
type Scores map[string]map[string]any

// StreakState is the streak triple written into a record's metadata at append
// time. Winstreak never exceeds MaxWinstreak, and MaxWinstreak never decreases
// across one owner's history for a game.
type StreakState struct {
	Playstreak   int `json:"playstreak"`
	Winstreak    int `json:"winstreak"`
	MaxWinstreak int `json:"maxWinstreak"`
}

// Metrics carries the optional derived values a grammar may extract.
type Metrics struct {
	MaxAttempts *int     `json:"maxAttempts,omitempty"`
	Accuracy    *float64 `json:"accuracy,omitempty"`
	TimeMS      *int64   `json:"timeMs,omitempty"`
	Uniqueness  *float64 `json:"uniqueness,omitempty"`
	Grade       string   `json:"grade,omitempty"`
}

// GameRecord is one attempt at one game, keyed by owner + game + puzzle day.
// Streak metadata is computed once at append time and never recomputed.
type GameRecord struct {
	ID           string
	Owner        string
	GameID       string
	PuzzleDay    string // "YYYY-MM-DD" in the game's relevant time frame
	CreatedAt    time.Time
	Scores       Scores
	Failed       bool
	PuzzleNumber string
	Grid         string
	Metrics      *Metrics
	Streak       StreakState
}
