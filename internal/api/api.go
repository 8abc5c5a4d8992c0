// Package api is the status HTTP server reclink serve exposes, serving
// run progress out of the match_runs table internal/runqueue owns.
package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/chapinhall-oss/reclink/internal/runqueue"
)

// RunStatus is the JSON shape GET /runs/{id} returns.
type RunStatus struct {
	RunID           string   `json:"runId"`
	Status          string   `json:"status"`
	Attempts        int      `json:"attempts"`
	TotalCandidates *int     `json:"totalCandidates"`
	MatchedCount    *int     `json:"matchedCount"`
	ProgressPercent *float64 `json:"progressPercent,omitempty"`
	LastError       *string  `json:"lastError,omitempty"`
	CreatedAt       string   `json:"createdAt"`
	UpdatedAt       string   `json:"updatedAt"`
}

// Server wires the status API's routes over a shared DB handle and the
// match-run queue.
type Server struct {
	DB     *sqlx.DB
	Queue  *runqueue.Queue
	Logger *zap.Logger
	echo   *echo.Echo
}

// New builds a Server with panic recovery and permissive CORS.
func New(db *sqlx.DB, queue *runqueue.Queue, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) { return true, nil },
		AllowMethods:    []string{http.MethodGet, http.MethodPost},
	}))

	s := &Server{DB: db, Queue: queue, Logger: logger, echo: e}
	e.GET("/healthz", s.healthz)
	e.GET("/runs/:runId", s.getRun)
	e.POST("/runs", s.createRun)
	return s
}

// Start begins serving on addr; it blocks until the server stops.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// createRun queues a match-run request; the serve poller picks it up.
func (s *Server) createRun(c echo.Context) error {
	var req struct {
		ConfigPath string `json:"configPath"`
		OutputDir  string `json:"outputDir"`
	}
	if err := c.Bind(&req); err != nil || req.ConfigPath == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "configPath is required"})
	}

	runID, err := s.Queue.Enqueue(req.ConfigPath, req.OutputDir)
	if err != nil {
		s.Logger.Error("enqueue run failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to queue run"})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"runId": runID, "status": "queued"})
}

func (s *Server) getRun(c echo.Context) error {
	runID := c.Param("runId")

	var run struct {
		ID              string         `db:"id"`
		Status          string         `db:"status"`
		Attempts        int            `db:"attempts"`
		TotalCandidates sql.NullInt64  `db:"total_candidates"`
		MatchedCount    sql.NullInt64  `db:"matched_count"`
		LastError       sql.NullString `db:"last_error"`
		CreatedAt       time.Time      `db:"created_at"`
		UpdatedAt       time.Time      `db:"updated_at"`
	}

	err := s.DB.Get(&run, `
		SELECT id, status, attempts, total_candidates, matched_count, last_error, created_at, updated_at
		FROM match_runs
		WHERE id = $1
	`, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
		}
		s.Logger.Error("fetch run failed", zap.String("run_id", runID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch run"})
	}

	resp := RunStatus{
		RunID:     run.ID,
		Status:    run.Status,
		Attempts:  run.Attempts,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		UpdatedAt: run.UpdatedAt.Format(time.RFC3339),
	}
	if run.LastError.Valid {
		resp.LastError = &run.LastError.String
	}
	if run.TotalCandidates.Valid {
		total := int(run.TotalCandidates.Int64)
		resp.TotalCandidates = &total
		if run.MatchedCount.Valid && total > 0 {
			matched := int(run.MatchedCount.Int64)
			resp.MatchedCount = &matched
			percent := float64(matched) / float64(total) * 100.0
			if percent > 100.0 {
				percent = 100.0
			}
			resp.ProgressPercent = &percent
		}
	}
	if run.MatchedCount.Valid && resp.MatchedCount == nil {
		matched := int(run.MatchedCount.Int64)
		resp.MatchedCount = &matched
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, resp)
}
