// internal/server/server.go wires config, stores and handlers into a running
// HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jason-s-yu/fourrow/internal/auth"
	"github.com/jason-s-yu/fourrow/internal/cache"
	"github.com/jason-s-yu/fourrow/internal/config"
	"github.com/jason-s-yu/fourrow/internal/database"
	"github.com/jason-s-yu/fourrow/internal/handlers"
	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout = 10 * time.Second
	evictEvery      = time.Minute
)

// NewLogger builds the process logger at the configured level.
func NewLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// NewSigner loads the token keys from disk when both paths are set and
// generates a pair otherwise.
func NewSigner(cfg *config.Config) (*auth.Signer, error) {
	if cfg.PrivateKeyPath != "" && cfg.PublicKeyPath != "" {
		return auth.NewSignerFromPath(cfg.PrivateKeyPath, cfg.PublicKeyPath, cfg.TokenTTL)
	}
	return auth.NewSigner(cfg.TokenTTL)
}

// Server is a configured game server with its optional stores attached.
type Server struct {
	Games *handlers.GameServer

	cfg    *config.Config
	logger *logrus.Logger
	cache  *cache.Store
	db     *database.Store
}

// New builds the game server. Redis and Postgres are optional: when one is
// unset or unreachable the server runs without it and logs a warning.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	signer, err := NewSigner(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Games:  handlers.NewGameServer(signer, rules, logger),
		cfg:    cfg,
		logger: logger,
	}

	if cfg.RedisAddr != "" {
		store, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.QueueName, cfg.SnapshotTTL)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable; snapshots and action history disabled")
		} else {
			s.cache = store
			s.Games.Snapshots = store
			s.Games.Recorder = store
		}
	}
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err == nil {
			err = db.Migrate(ctx)
			if err != nil {
				db.Close()
			}
		}
		if err != nil {
			logger.WithError(err).Warn("postgres unavailable; durable saves disabled")
		} else {
			s.db = db
			s.Games.Repo = db
		}
	}
	return s, nil
}

// Close releases the store connections.
func (s *Server) Close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.WithError(err).Warn("closing redis")
		}
	}
	if s.db != nil {
		s.db.Close()
	}
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Games.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.IdleTimeout > 0 {
		go s.Games.RunEviction(ctx, evictEvery, s.cfg.IdleTimeout)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Running on %s", ln.Addr())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Run builds the server, listens on the configured port and serves until ctx
// is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	s, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}
