package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/glossia"
	"github.com/ZaguanLabs/glossia/cache"
	"github.com/ZaguanLabs/glossia/config"
	"github.com/ZaguanLabs/glossia/convert"
	"github.com/ZaguanLabs/glossia/detect"
	"github.com/ZaguanLabs/glossia/httpapi"
	"github.com/ZaguanLabs/glossia/provider"
	"github.com/ZaguanLabs/glossia/transcribe"
	"github.com/ZaguanLabs/glossia/usage"
)

// shutdownGrace bounds how long in-flight requests get to finish after
// a termination signal.
const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the translation HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	completer := buildCompleter(cfg)

	tcache, closeCache, err := buildCache(cfg, sugar)
	if err != nil {
		return err
	}
	defer closeCache()

	converter := buildConverter(cfg)

	svc := glossia.NewService(completer,
		glossia.WithCache(tcache),
		glossia.WithDetector(detect.New()),
		glossia.WithConverter(converter),
		glossia.WithLogger(sugar),
		glossia.WithChunkBudget(cfg.Translate.ChunkBudget),
		glossia.WithWorkers(cfg.Translate.Workers),
		glossia.WithContextWords(cfg.Translate.ContextWords),
		glossia.WithCallTimeout(cfg.Translate.CallTimeout),
		glossia.WithRetryConfig(retryConfig(cfg)),
	)

	tracker, closeTracker, err := buildTracker(cfg, sugar)
	if err != nil {
		return err
	}
	defer closeTracker()

	apiOpts := []httpapi.ServerOption{
		httpapi.WithLogger(sugar),
		httpapi.WithClientURL(cfg.ClientURL),
		httpapi.WithConverter(converter),
		httpapi.WithTracker(tracker),
	}
	if cfg.Whisper.URL != "" {
		apiOpts = append(apiOpts, httpapi.WithTranscriber(
			transcribe.NewWhisperClient(transcribe.WhisperConfig{BaseURL: cfg.Whisper.URL})))
	}
	api := httpapi.NewServer(svc, apiOpts...)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("server listening", "addr", cfg.ListenAddr, "version", glossia.FullVersion())
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-shutdown:
		sugar.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
		return server.Close()
	}
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

func buildCompleter(cfg *config.Config) glossia.Completer {
	var completer glossia.Completer = provider.NewOpenAICompleter(provider.OpenAIConfig{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
	})

	if cfg.LLM.RequestsPerMinute > 0 {
		completer = glossia.NewRateLimitedCompleter(completer, glossia.RateLimitConfig{
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		})
	}
	return completer
}

// buildCache returns the configured cache plus a close function for the
// connection it may hold.
func buildCache(cfg *config.Config, sugar *zap.SugaredLogger) (glossia.TranslationCache, func(), error) {
	ttl := int(cfg.Cache.TTL.Seconds())

	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			URL: cfg.Cache.RedisURL,
			TTL: ttl,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		sugar.Infow("using redis translation cache")
		return rc, func() { rc.Close() }, nil
	}

	mem := cache.NewInMemoryCache(ttl)
	if cfg.Cache.MaxEntries > 0 {
		mem = mem.WithMaxEntries(cfg.Cache.MaxEntries)
	}
	sugar.Infow("using in-memory translation cache", "max_entries", cfg.Cache.MaxEntries)
	return mem, func() {}, nil
}

func buildConverter(cfg *config.Config) glossia.Converter {
	var remote *convert.RemoteConverter
	if cfg.Convert.URL != "" {
		remote = convert.NewRemoteConverter(convert.RemoteConfig{
			BaseURL: cfg.Convert.URL,
			Timeout: cfg.Convert.Timeout,
		})
	}
	return convert.NewEngine(remote)
}

// buildTracker returns the usage tracker plus a close function for its
// store.
func buildTracker(cfg *config.Config, sugar *zap.SugaredLogger) (*usage.Tracker, func(), error) {
	opts := []usage.TrackerOption{usage.WithLogger(sugar)}
	closeStore := func() {}

	if cfg.Usage.DB != "" {
		store, err := usage.OpenStore(cfg.Usage.DB)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, usage.WithStore(store))
		closeStore = func() { store.Close() }
	}

	return usage.NewTracker(cfg.Usage.Secret, opts...), closeStore, nil
}

func retryConfig(cfg *config.Config) glossia.RetryConfig {
	rc := glossia.DefaultRetryConfig()
	rc.MaxRetries = cfg.Translate.MaxRetries
	return rc
}
