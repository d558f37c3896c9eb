package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/handler"
	"github.com/portfolio/backend/internal/kvstore"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/notify"
	"github.com/portfolio/backend/internal/repository"
	"github.com/portfolio/backend/internal/service"
	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/pkg/auth"
)

const bootstrapTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	configFile := flag.StringP("config", "c", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Fatal("failed to load config", "error", err)
	}

	logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				slog.Warn("close failed", "error", err)
			}
		}
	}()

	// KV ストア
	kv, db, closeKV, err := openKV(ctx, cfg.KV)
	if err != nil {
		logging.Fatal("failed to open kv store", "driver", cfg.KV.Driver, "error", err)
	}
	if closeKV != nil {
		closers = append(closers, closeKV)
	}
	slog.Info("kv store ready", "driver", cfg.KV.Driver)

	// オブジェクトストレージ
	prefix := cfg.Server.RoutePrefix
	store, err := storage.Open(ctx, storage.Config{
		Driver:          cfg.Storage.Driver,
		BaseDir:         cfg.Storage.BaseDir,
		FilesURL:        cfg.Storage.PublicBaseURL + prefix + "/files",
		SigningSecret:   cfg.Storage.SigningSecret,
		BlobURLTemplate: cfg.Storage.BlobURLTemplate,
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		AccessKey:       cfg.Storage.AccessKey,
		SecretKey:       cfg.Storage.SecretKey,
	})
	if err != nil {
		logging.Fatal("failed to open object storage", "driver", cfg.Storage.Driver, "error", err)
	}
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c)
	}

	certPolicy := service.CertificatePolicy(cfg.Storage.CertificatesBucket)
	mediaPolicy := service.ProjectMediaPolicy(cfg.Storage.ProjectsBucket)

	bctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	service.BootstrapBuckets(bctx, store, logger, certPolicy, mediaPolicy)
	cancel()

	// 通知
	notifiers := notify.Multi{notify.NewLogNotifier(cfg.Notify.OwnerEmail, logger)}
	if len(cfg.Notify.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		closers = append(closers, kn)
		notifiers = append(notifiers, kn)
		slog.Info("kafka notifications enabled", "topic", cfg.Notify.KafkaTopic)
	}

	messageService := service.NewMessageService(repository.NewKVMessageRepository(kv), notifiers, logger)
	certService := service.NewUploadService(store, certPolicy, logger)
	mediaService := service.NewUploadService(store, mediaPolicy, logger)

	h := handler.New(db)

	verifier := auth.NewVerifier(cfg.Auth.APIKeys, cfg.Auth.JWTSecret)
	wrapAuth := auth.RequireBearer(verifier)
	if !verifier.Enabled() {
		slog.Warn("no api keys or jwt secret configured; admin endpoints are open (dev mode)")
		wrapAuth = auth.DevAuth
	}

	rt := routes{
		prefix:   prefix,
		base:     h,
		contact:  handler.NewContactHandler(messageService),
		messages: handler.NewMessageHandler(messageService),
		certs:    handler.NewCertificateHandler(certService),
		media:    handler.NewProjectMediaHandler(mediaService),
		limiter:  handler.NewRateLimiter(ctx, cfg.Server.ContactRateLimit, cfg.Server.TrustedProxies),
		auth:     wrapAuth,
	}
	if local, ok := store.(*storage.LocalStorage); ok {
		rt.files = handler.NewFileHandler(local)
		if cfg.UsesDevSigningSecret() {
			slog.Warn("local storage is signing URLs with the default secret; set storage.signing_secret")
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler.RequestLogger(logger)(handler.SecurityHeaders(h.CORS(rt.mux()))),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "route_prefix", prefix)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	sctx, scancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer scancel()
	if err := server.Shutdown(sctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// openKV returns the configured store, the connection checked by /health
// (nil for the memory driver) and a closer for the underlying client.
func openKV(ctx context.Context, cfg config.KVConfig) (kvstore.Store, repository.DB, io.Closer, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		pg := kvstore.NewPostgres(pool)
		return pg, pg, closerFunc(func() error { pool.Close(); return nil }), nil
	case "redis":
		r, err := kvstore.NewRedisFromURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, nil, nil, err
		}
		return r, r, r, nil
	default:
		kv, err := kvstore.Open(cfg.Driver, "")
		return kv, nil, nil, err
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
