// Package dashboard serves a read-only JSON view of the host store.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/hearth/internal/host/store"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Store *store.Store
	Addr  string // e.g. ":8080"
	Out   io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Store == nil {
		return fmt.Errorf("dashboard: store is required")
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: Router(opts.Store),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard listening on %s\n", opts.Addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// Router builds the Gin router; split out so tests can drive it with
// httptest.
func Router(st *store.Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/ambitions", handleAmbitions(st))
	router.GET("/api/journal", handleJournal(st))
	router.GET("/api/insights", handleInsights(st))
	// Wildcard because state keys contain slashes ("guardian/health").
	router.GET("/api/state/*key", handleState(st))

	return router
}

func handleAmbitions(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := strconv.Atoi(c.DefaultQuery("n", "30"))
		if err != nil || n <= 0 {
			n = 30
		}
		recs, err := st.AmbitionHistory(n)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ambitions": recs})
	}
}

func handleJournal(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		day := c.Query("day")
		if day == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day query parameter is required"})
			return
		}
		recs, err := st.JournalForDay(day)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"day": day, "entries": recs})
	}
}

func handleInsights(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := strconv.Atoi(c.DefaultQuery("n", "50"))
		if err != nil || n <= 0 {
			n = 50
		}
		recs, err := st.RecentInsights(n)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"insights": recs})
	}
}

func handleState(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		value, ok, err := st.GetState(key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "key not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
	}
}
