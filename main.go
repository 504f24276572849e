package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/velli/flipscout/config"
	"github.com/velli/flipscout/internal/api"
	"github.com/velli/flipscout/internal/cache"
	"github.com/velli/flipscout/internal/comps"
	"github.com/velli/flipscout/internal/imaging"
	"github.com/velli/flipscout/internal/scan"
	"github.com/velli/flipscout/internal/session"
	"github.com/velli/flipscout/internal/storage"
	"golang.org/x/sync/errgroup"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create data directory")
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")

	images, err := imaging.NewStore(cfg.ImageDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize image store")
	}

	analyzer, err := buildAnalyzer(ctx, cfg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize scan analyzer")
	}

	provider := buildProvider(ctx, cfg)

	drafts := session.NewManager(cfg.DraftTTL)

	server := api.NewServer(store, analyzer, provider, drafts, images)
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr()).Msg("starting http server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		drafts.Run(ctx)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// buildAnalyzer picks the image analyzer backend: Gemini with SQLite-backed
// result caching, or the deterministic mock when no key is configured.
func buildAnalyzer(ctx context.Context, cfg *config.Config, store *storage.SQLiteStore) (scan.Analyzer, error) {
	if cfg.UseMockScan {
		log.Info().Msg("using mock scan analyzer")
		return scan.NewMockAnalyzer(), nil
	}

	gemini, err := scan.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("gemini scan analyzer initialized")

	return scan.NewCachedAnalyzer(gemini, store), nil
}

// buildProvider picks the comp source, wrapping the real client with a Redis
// or in-process cache.
func buildProvider(ctx context.Context, cfg *config.Config) comps.Provider {
	if cfg.UseMockComps {
		log.Info().Msg("using mock comp provider")
		return comps.NewMockProvider()
	}

	client := comps.NewClient(comps.ClientOpts{
		BaseURL: cfg.CompsBaseURL,
		APIKey:  cfg.CompsAPIKey,
	})

	var c cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, falling back to in-process comp cache")
			c = cache.NewMemoryCache()
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis comp cache enabled")
			c = redisCache
		}
	} else {
		c = cache.NewMemoryCache()
	}

	return comps.NewCachedProvider(client, c, cfg.CompsCacheTTL)
}
