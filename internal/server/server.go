package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/facultycredits/internal/bootstrap"
	"github.com/yigit/facultycredits/internal/config"
	"github.com/yigit/facultycredits/internal/db"
)

const shutdownTimeout = 10 * time.Second

// Server holds the state for the HTTP server.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	database *db.Database
	deps     *bootstrap.Dependencies
	logger   zerolog.Logger
	http     *http.Server
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(ctx context.Context, configPath string) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, database, lgr)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return &Server{
		config:   cfg,
		router:   bootstrap.SetupRouter(cfg, deps, lgr),
		database: database,
		deps:     deps,
		logger:   lgr,
	}, nil
}

// Run serves HTTP and runs the notification hub and dispatcher until ctx is
// cancelled or one of them fails, then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:        ":" + s.config.Server.Port,
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
		// Websocket streams are long-lived; the hub handles their deadlines
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
	runErr := runLifecycle(ctx, s.http, s.deps.Hub, s.deps.Dispatcher, s.logger)
	return errors.Join(runErr, s.Close())
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

// runLifecycle serves until ctx is cancelled or a component fails. Shutdown
// goes in order: HTTP first so in-flight handlers finish publishing, then the
// dispatcher drains its queue, then the hub closes its sockets.
func runLifecycle(ctx context.Context, srv httpServer, hub, dispatcher runner, logger zerolog.Logger) error {
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return hub.Run(hubCtx)
	})
	g.Go(func() error {
		defer stopHub()
		return dispatcher.Run(dispatchCtx)
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopDispatch()
		logger.Info().Msg("Shutdown requested, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
			return err
		}
		logger.Info().Msg("HTTP server gracefully stopped.")
		return nil
	})

	return g.Wait()
}

// Close releases the database.
func (s *Server) Close() error {
	if s.database == nil {
		return nil
	}
	s.logger.Info().Msg("Closing database connection...")
	err := s.database.Close()
	s.database = nil
	if err != nil {
		s.logger.Error().Err(err).Msg("Database close error")
		return err
	}
	s.logger.Info().Msg("Server shutdown process complete.")
	return nil
}
