package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/samvad-articles/internal/config"
	"github.com/samvad-hq/samvad-articles/internal/logger"
	"github.com/samvad-hq/samvad-articles/internal/server"
	"github.com/samvad-hq/samvad-articles/internal/storage"
	"github.com/samvad-hq/samvad-articles/pkg/publishers"
)

// Server represents the articles API runtime. It owns the store, the change-event
// fanout and the HTTP listener.
type Server struct {
	cfg     *config.Config
	store   storage.Store
	fanout  *publishers.Fanout
	httpSrv *http.Server
	log     logger.Logger
}

// NewServer builds the API runtime from config files.
func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.BBoltPath,
	})

	if cfg.FixturesFile != "" {
		fixtures, err := storage.LoadFixtures(cfg.FixturesFile)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		n, err := storage.Seed(store, fixtures)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("seed fixtures: %w", err)
		}
		log.InfoObj("fixtures seeded", "fixtures_meta", map[string]any{
			"file":  cfg.FixturesFile,
			"count": n,
		})
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Server{
		cfg:    cfg,
		store:  store,
		fanout: fanout,
		httpSrv: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           server.New(store, fanout, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}, nil
}

// buildFanout loads the optional publishers file. Without one, events go nowhere.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.InfoObj("no publishers file configured; change events disabled", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s == nil || s.httpSrv == nil {
		return fmt.Errorf("server is not initialized")
	}
	defer s.close()

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("http server listening", "addr", s.httpSrv.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		s.log.InfoObj("http server shutting down", "reason", ctx.Err().Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// close releases the publishers and the store, logging any errors encountered.
func (s *Server) close() {
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if err := s.store.Close(); err != nil {
		s.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
