// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the dashboard views as a local JSON API.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/bonial-oss/cve-pulse/internal/classify"
	"github.com/bonial-oss/cve-pulse/internal/datasource/cve"
	"github.com/bonial-oss/cve-pulse/internal/datasource/kev"
	"github.com/bonial-oss/cve-pulse/internal/filter"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

// Pipeline provides the CVE snapshot.
type Pipeline interface {
	Load(ctx context.Context) (*types.Snapshot, error)
	ForceRefresh(ctx context.Context) (*types.Snapshot, error)
	// Cached returns the stored snapshot, stale or not, without fetching.
	Cached(ctx context.Context) *types.Snapshot
}

// KEVSource provides the per-year known-exploited lists.
type KEVSource interface {
	Fetch(ctx context.Context, year string) ([]types.KEVEntry, error)
	FilterByDate(ctx context.Context, records []types.Record, year, date string) ([]types.Record, string)
}

// CountSource provides yearly CVE totals.
type CountSource interface {
	Resolve(ctx context.Context, snap *types.Snapshot) ([]types.YearCount, string)
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

type Server struct {
	app      *fiber.App
	pipeline Pipeline
	kev      KEVSource
	counts   CountSource
	logger   *zap.Logger
}

// New creates the API app and registers its routes.
func New(pipeline Pipeline, kevSource KEVSource, counts CountSource, opts ...Option) *Server {
	s := &Server{
		pipeline: pipeline,
		kev:      kevSource,
		counts:   counts,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "cve-pulse API v1",
		ReadTimeout:           60 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(fiberrecover.New())
	s.app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	s.app.Use(s.logRequests)

	s.app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api := s.app.Group("/api/v1")
	api.Get("/cves", s.listCVEs)
	api.Get("/years", s.listYears)
	api.Get("/kev/dates", s.listKEVDates)
	api.Get("/stats/types", s.typeStats)
	api.Get("/stats/trends", s.trendStats)
	api.Get("/stats/counts", s.yearCounts)
	api.Post("/refresh", s.refresh)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listen(addr) }()

	s.logger.Info("API listening", zap.String("addr", addr))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down API")
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("took", time.Since(start)))
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.Is(err, cve.ErrNoData):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
			"retry": true,
		})
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	default:
		s.logger.Warn("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func yearParam(c *fiber.Ctx) string {
	return c.Query("year", types.AllYears)
}

func (s *Server) listCVEs(c *fiber.Ctx) error {
	ctx := c.UserContext()
	snap, err := s.pipeline.Load(ctx)
	if err != nil {
		return err
	}

	year := yearParam(c)
	records := filter.ByYear(snap.NormalizedRecords, year)
	notice := ""
	if date := c.Query("kevDate"); date != "" {
		records, notice = s.kev.FilterByDate(ctx, snap.NormalizedRecords, year, date)
	}

	resp := fiber.Map{"year": year, "total": len(records), "records": records}
	if notice != "" {
		resp["notice"] = notice
	}
	return c.JSON(resp)
}

func (s *Server) listYears(c *fiber.Ctx) error {
	snap, err := s.pipeline.Load(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"filters":       filter.YearFilters(snap.YearsWithData),
		"yearsWithData": snap.YearsWithData,
	})
}

func (s *Server) listKEVDates(c *fiber.Ctx) error {
	year := yearParam(c)
	if year == types.AllYears {
		return fiber.NewError(fiber.StatusBadRequest, kev.NoticeAllYears)
	}
	entries, err := s.kev.Fetch(c.UserContext(), year)
	if err != nil {
		s.logger.Warn("KEV dates unavailable", zap.String("year", year), zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{"year": year, "dates": kev.Dates(entries)})
}

func (s *Server) typeStats(c *fiber.Ctx) error {
	snap, err := s.pipeline.Load(c.UserContext())
	if err != nil {
		return err
	}
	year := yearParam(c)
	return c.JSON(fiber.Map{
		"year":       year,
		"categories": classify.Count(filter.ByYear(snap.NormalizedRecords, year), classify.Types),
	})
}

func (s *Server) trendStats(c *fiber.Ctx) error {
	snap, err := s.pipeline.Load(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"categories": classify.Names(classify.Trends),
		"years":      classify.ByYear(snap.NormalizedRecords, classify.Trends),
	})
}

func (s *Server) yearCounts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	// Counts come from the backend; the cached snapshot is only the fallback
	// and a missing one does not trigger a refresh.
	counts, notice := s.counts.Resolve(ctx, s.pipeline.Cached(ctx))
	resp := fiber.Map{"counts": counts}
	if notice != "" {
		resp["notice"] = notice
	}
	return c.JSON(resp)
}

func (s *Server) refresh(c *fiber.Ctx) error {
	ctx := c.UserContext()
	load := s.pipeline.Load
	if c.QueryBool("force") {
		load = s.pipeline.ForceRefresh
	}
	snap, err := load(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"records":       len(snap.NormalizedRecords),
		"yearsWithData": snap.YearsWithData,
		"timestamp":     snap.Timestamp,
	})
}
