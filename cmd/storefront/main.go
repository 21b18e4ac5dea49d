package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
	"github.com/Rahdeg/alt-commmerce/internal/cart/relay"
	"github.com/Rahdeg/alt-commmerce/internal/catalog"
	"github.com/Rahdeg/alt-commmerce/internal/gallery"
	"github.com/Rahdeg/alt-commmerce/internal/handlers"
	"github.com/Rahdeg/alt-commmerce/internal/httpserver"
	"github.com/Rahdeg/alt-commmerce/internal/middleware"
	"github.com/Rahdeg/alt-commmerce/internal/platform/config"
	"github.com/Rahdeg/alt-commmerce/internal/platform/observability"
	"github.com/Rahdeg/alt-commmerce/internal/storage"
	"github.com/Rahdeg/alt-commmerce/internal/storage/firestorestore"
	"github.com/Rahdeg/alt-commmerce/internal/storage/pgstore"
	"github.com/Rahdeg/alt-commmerce/internal/storage/redisstore"
	"github.com/Rahdeg/alt-commmerce/internal/views"
	"github.com/Rahdeg/alt-commmerce/public"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("storefront").With(zap.String("env", cfg.Environment))

	if cfg.Telemetry.Enabled {
		shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			logger.Fatal("failed to initialise tracing", zap.Error(err))
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(closeCtx); err != nil {
				logger.Warn("tracing shutdown error", zap.Error(err))
			}
		}()
	}

	backend, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to open cart storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	if closer, ok := backend.(storage.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()
	}
	logger.Info("cart storage ready", zap.String("driver", cfg.Storage.Driver))

	broker := cart.NewBroker(logger.Named("cart"))
	carts, err := cart.NewManager(cart.Dependencies{Storage: backend, Broker: broker, Logger: logger.Named("cart")})
	if err != nil {
		logger.Fatal("failed to initialise carts", zap.Error(err))
	}

	relayCtx, relayCancel := context.WithCancel(context.Background())
	var relayWG sync.WaitGroup
	if cfg.PubSub.Enabled() {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		rl, err := relay.New(broker, client.Topic(cfg.PubSub.Topic), client.Subscription(cfg.PubSub.Subscription),
			relay.WithLogger(logger.Named("relay")))
		if err != nil {
			logger.Fatal("failed to initialise cart relay", zap.Error(err))
		}
		defer rl.Stop()
		relayWG.Add(1)
		go func() {
			defer relayWG.Done()
			if err := rl.Run(relayCtx); err != nil {
				logger.Error("cart relay stopped", zap.Error(err))
			}
		}()
		logger.Info("cart relay started", zap.String("topic", cfg.PubSub.Topic), zap.String("origin", rl.Origin()))
	}

	cat, err := catalog.LoadFile(cfg.Catalog.File)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	static, err := staticFS(cfg.Server)
	if err != nil {
		logger.Fatal("failed to open static assets", zap.Error(err))
	}

	renderer, err := newRenderer(cfg.Server)
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	h, err := handlers.New(handlers.Dependencies{
		Carts:      carts,
		Catalog:    cat,
		Views:      renderer,
		Thumbnails: gallery.NewThumbnailer(static, 0, 0),
	})
	if err != nil {
		logger.Fatal("failed to initialise handlers", zap.Error(err))
	}

	signingKey := []byte(cfg.Session.SigningKey)
	if len(signingKey) == 0 {
		logger.Warn("STOREFRONT_SESSION_SIGNING_KEY not set; sessions will not survive a restart")
		signingKey = middleware.NewSigningKey()
	}

	server, err := httpserver.New(httpserver.Config{
		Address:      net.JoinHostPort("", cfg.Server.Port),
		Handlers:     h,
		Logger:       logger.Named("http"),
		Static:       static,
		Session:      middleware.SessionConfig{SigningKey: signingKey, Secure: cfg.Session.Secure},
		CSRF:         middleware.CSRFConfig{Secure: cfg.Session.Secure},
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})
	if err != nil {
		logger.Fatal("failed to initialise http server", zap.Error(err))
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	relayCancel()
	relayWG.Wait()
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return storage.NewFile(cfg.Dir)
	case config.DriverRedis:
		store, err := redisstore.New(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case config.DriverFirestore:
		return firestorestore.New(ctx, cfg.ProjectID, cfg.Collection)
	case config.DriverPostgres:
		// New creates the table when missing.
		return pgstore.New(ctx, cfg.DSN, cfg.Table)
	default:
		return storage.NewMemory(), nil
	}
}

// staticFS serves assets from disk in dev mode so edits show without a rebuild.
func staticFS(cfg config.ServerConfig) (fs.FS, error) {
	if cfg.DevMode && cfg.PublicDir != "" {
		dir := filepath.Join(cfg.PublicDir, "static")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir), nil
		}
	}
	return public.StaticFS()
}

func newRenderer(cfg config.ServerConfig) (*views.Renderer, error) {
	opts := views.Options{Dev: cfg.DevMode}
	if cfg.DevMode {
		if info, err := os.Stat(devTemplatesDir); err == nil && info.IsDir() {
			opts.Dir = devTemplatesDir
		}
	}
	return views.New(opts)
}

const devTemplatesDir = "internal/views/templates"
