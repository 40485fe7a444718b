// Package api exposes the scan pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fresh-wallet-scout/internal/observability"
	"fresh-wallet-scout/internal/orchestrator"
	"fresh-wallet-scout/internal/storage"
)

// Server wires the orchestrator and the watchlist into a gin router.
type Server struct {
	orch      *orchestrator.Orchestrator
	watchlist storage.WatchlistStore
	log       *zap.Logger
	http      *http.Server
}

// Options configures a Server.
type Options struct {
	Addr         string
	Orchestrator *orchestrator.Orchestrator
	Watchlist    storage.WatchlistStore
	Logger       *zap.Logger
}

// NewServer builds the router and the underlying http.Server.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		orch:      opts.Orchestrator,
		watchlist: opts.Watchlist,
		log:       log.Named("api"),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scan", s.handleScan)
		v1.GET("/results", s.handleResults)
		v1.GET("/symbols", s.handleListSymbols)
		v1.POST("/symbols", s.handleAddSymbol)
		v1.DELETE("/symbols/:symbol", s.handleRemoveSymbol)
	}

	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
