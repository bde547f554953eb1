// Package dashboard serves a read-only operations view over HTTP: the
// current session, trains and their switch lists, the order pool, and
// fleet statistics, plus a server-sent-events stream of store changes.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	DB              *gorm.DB
	Port            int
	StatsRefreshSec int
	Out             io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("dashboard: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.StatsRefreshSec <= 0 {
		opts.StatsRefreshSec = 60
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	stats := newStatsCache()
	stats.refresh(opts.DB)

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %ds", opts.StatsRefreshSec), func() {
		stats.refresh(opts.DB)
	}); err != nil {
		return fmt.Errorf("dashboard: schedule stats refresh: %w", err)
	}
	c.Start()
	defer c.Stop()

	registerRoutes(router, opts.DB, stats)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
