// Package httpapi exposes the ingestion service over a small fasthttp JSON
// API. It is deliberately thin: all semantics live in the record service.
package httpapi

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/karuha/puzzleboard-go/internal/gamecat"
	"github.com/karuha/puzzleboard-go/internal/service/record"
	"github.com/karuha/puzzleboard-go/internal/shareparse"
)

type Server struct {
	svc         *record.Service
	catalog     *gamecat.Catalog
	logger      *zap.Logger
	recentLimit int
}

func NewServer(svc *record.Service, catalog *gamecat.Catalog, logger *zap.Logger, recentLimit int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recentLimit <= 0 {
		recentLimit = 20
	}
	return &Server{svc: svc, catalog: catalog, logger: logger, recentLimit: recentLimit}
}

// Handler is the root fasthttp request handler.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())
	method := string(ctx.Method())

	switch {
	case path == "/healthz" && method == fasthttp.MethodGet:
		s.writeJSON(ctx, fasthttp.StatusOK, map[string]any{"ok": true})
	case path == "/v1/games" && method == fasthttp.MethodGet:
		s.handleGames(ctx)
	case path == "/v1/records" && method == fasthttp.MethodPost:
		s.handleIngest(ctx)
	case path == "/v1/records" && method == fasthttp.MethodGet:
		s.handleRecent(ctx)
	case path == "/v1/streak" && method == fasthttp.MethodGet:
		s.handleStreak(ctx)
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, "not found", "")
	}

	s.logger.Debug("http request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

type ingestRequest struct {
	Owner string `json:"owner"`
	Game  string `json:"game"`
	Text  string `json:"text"`
}

type recordResponse struct {
	ID           string         `json:"id"`
	Game         string         `json:"game"`
	PuzzleDay    string         `json:"puzzleDay"`
	CreatedAt    time.Time      `json:"createdAt"`
	Scores       map[string]any `json:"scores,omitempty"`
	Failed       bool           `json:"failed"`
	PuzzleNumber string         `json:"puzzleNumber,omitempty"`
	Grid         string         `json:"grid,omitempty"`
	Metrics      any            `json:"metrics,omitempty"`
	Playstreak   int            `json:"playstreak"`
	Winstreak    int            `json:"winstreak"`
	MaxWinstreak int            `json:"maxWinstreak"`
	Warnings     []string       `json:"warnings,omitempty"`
}

func (s *Server) handleIngest(ctx *fasthttp.RequestCtx) {
	var req ingestRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON body", "")
		return
	}

	rec, res, err := s.svc.Ingest(ctx, req.Owner, req.Game, req.Text)
	if err != nil {
		var perr *shareparse.ParseError
		switch {
		case errors.As(err, &perr):
			s.writeError(ctx, fasthttp.StatusUnprocessableEntity, perr.Error(), perr.Expected)
		case errors.Is(err, record.ErrDuplicateRecord):
			s.writeError(ctx, fasthttp.StatusConflict, err.Error(), "")
		case errors.Is(err, record.ErrAppendInFlight):
			s.writeError(ctx, fasthttp.StatusTooManyRequests, err.Error(), "")
		case errors.Is(err, record.ErrUnknownGame):
			s.writeError(ctx, fasthttp.StatusNotFound, err.Error(), "")
		case errors.Is(err, record.ErrMissingOwner), errors.Is(err, record.ErrEmptyShare):
			s.writeError(ctx, fasthttp.StatusBadRequest, err.Error(), "")
		default:
			s.logger.Error("ingest failed", zap.Error(err))
			s.writeError(ctx, fasthttp.StatusInternalServerError, "internal error", "")
		}
		return
	}

	out := recordResponse{
		ID:           rec.ID,
		Game:         rec.GameID,
		PuzzleDay:    rec.PuzzleDay,
		CreatedAt:    rec.CreatedAt,
		Failed:       rec.Failed,
		PuzzleNumber: rec.PuzzleNumber,
		Grid:         rec.Grid,
		Playstreak:   rec.Streak.Playstreak,
		Winstreak:    rec.Streak.Winstreak,
		MaxWinstreak: rec.Streak.MaxWinstreak,
		Warnings:     res.Warnings,
	}
	if rec.Scores != nil {
		out.Scores = make(map[string]any, len(rec.Scores))
		for k, v := range rec.Scores {
			out.Scores[k] = v
		}
	}
	if rec.Metrics != nil {
		out.Metrics = rec.Metrics
	}
	s.writeJSON(ctx, fasthttp.StatusCreated, map[string]any{"ok": true, "data": out})
}

func (s *Server) handleRecent(ctx *fasthttp.RequestCtx) {
	owner := string(ctx.QueryArgs().Peek("owner"))
	game := string(ctx.QueryArgs().Peek("game"))
	if owner == "" || game == "" {
		s.writeError(ctx, fasthttp.StatusBadRequest, "owner and game are required", "")
		return
	}
	limit := s.recentLimit
	if v := string(ctx.QueryArgs().Peek("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	records, err := s.svc.Recent(ctx, owner, game, limit)
	if err != nil {
		if errors.Is(err, record.ErrUnknownGame) {
			s.writeError(ctx, fasthttp.StatusNotFound, err.Error(), "")
			return
		}
		s.logger.Error("recent lookup failed", zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, "internal error", "")
		return
	}

	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		item := recordResponse{
			ID:           rec.ID,
			Game:         rec.GameID,
			PuzzleDay:    rec.PuzzleDay,
			CreatedAt:    rec.CreatedAt,
			Failed:       rec.Failed,
			PuzzleNumber: rec.PuzzleNumber,
			Grid:         rec.Grid,
			Playstreak:   rec.Streak.Playstreak,
			Winstreak:    rec.Streak.Winstreak,
			MaxWinstreak: rec.Streak.MaxWinstreak,
		}
		if rec.Scores != nil {
			item.Scores = make(map[string]any, len(rec.Scores))
			for k, v := range rec.Scores {
				item.Scores[k] = v
			}
		}
		if rec.Metrics != nil {
			item.Metrics = rec.Metrics
		}
		out = append(out, item)
	}
	s.writeJSON(ctx, fasthttp.StatusOK, map[string]any{"ok": true, "data": out})
}

func (s *Server) handleStreak(ctx *fasthttp.RequestCtx) {
	owner := string(ctx.QueryArgs().Peek("owner"))
	game := string(ctx.QueryArgs().Peek("game"))
	if owner == "" || game == "" {
		s.writeError(ctx, fasthttp.StatusBadRequest, "owner and game are required", "")
		return
	}

	st, err := s.svc.StreakStatus(ctx, owner, game)
	if err != nil {
		if errors.Is(err, record.ErrUnknownGame) {
			s.writeError(ctx, fasthttp.StatusNotFound, err.Error(), "")
			return
		}
		s.logger.Error("streak lookup failed", zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, "internal error", "")
		return
	}

	s.writeJSON(ctx, fasthttp.StatusOK, map[string]any{"ok": true, "data": map[string]any{
		"game":         st.Game,
		"playstreak":   st.Streak.Playstreak,
		"winstreak":    st.Streak.Winstreak,
		"maxWinstreak": st.Streak.MaxWinstreak,
		"atRisk":       st.Streak.AtRisk,
		"nextResetIn":  map[string]int{"hours": st.HoursToReset, "minutes": st.MinsToReset},
	}})
}

func (s *Server) handleGames(ctx *fasthttp.RequestCtx) {
	type gameInfo struct {
		ID           string `json:"id"`
		DisplayName  string `json:"displayName"`
		ResetTime    string `json:"resetTime"`
		Asynchronous bool   `json:"asynchronous"`
		Example      string `json:"example,omitempty"`
	}
	games := s.catalog.All()
	out := make([]gameInfo, 0, len(games))
	for _, g := range games {
		out = append(out, gameInfo{
			ID:           g.ID,
			DisplayName:  g.DisplayName,
			ResetTime:    g.ResetTime,
			Asynchronous: g.IsAsynchronous,
			Example:      g.ExampleShare,
		})
	}
	s.writeJSON(ctx, fasthttp.StatusOK, map[string]any{"ok": true, "data": out})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(body)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, msg, expected string) {
	payload := map[string]any{"ok": false, "error": msg}
	if expected != "" {
		payload["expected"] = expected
	}
	s.writeJSON(ctx, status, payload)
}
