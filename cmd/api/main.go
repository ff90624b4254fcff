package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/account"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify/email"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify/event"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/password"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/phone"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

func main() {
	// .env is best-effort; real env always wins
	cfg, cfgErr := config.Load()

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	if cfgErr != nil {
		sugar.Fatalw("invalid configuration", "err", cfgErr)
	}
	sugar.Infow("starting service-auth-go", "addr", cfg.HTTPAddr)

	db, err := database.ConnectX(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ids, err := utilities.NewIDNode(cfg.SnowflakeNode)
	if err != nil {
		sugar.Fatalf("snowflake node: %v", err)
	}
	store := repo.NewAccountRepo(db, ids)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureTable(ctx); err != nil {
			cancel()
			sugar.Fatalf("ensure accounts table: %v", err)
		}
		cancel()
	}

	hasher, err := password.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		sugar.Fatalf("password hasher: %v", err)
	}
	phones, err := phone.NewNormalizer(cfg.PhoneRegion)
	if err != nil {
		sugar.Fatalf("phone normalizer: %v", err)
	}
	codec, err := token.NewCodec(cfg.JWT.Secret, token.Options{
		Issuer:           cfg.JWT.Issuer,
		TTL:              cfg.JWT.TTL,
		AllowShortSecret: cfg.JWT.AllowShortSecret,
		Logger:           sugar,
	})
	if err != nil {
		sugar.Fatalf("token codec: %v", err)
	}

	var mailer notify.Notifier
	if cfg.SMTP.Host != "" {
		m, err := email.NewSMTPNotifier(cfg.SMTP, sugar)
		if err != nil {
			sugar.Fatalf("smtp notifier: %v", err)
		}
		mailer = m
	} else {
		sugar.Warn("SMTP_HOST not set; lifecycle emails are logged only")
		mailer = email.NewLogNotifier(cfg.SMTP.ActivationLink, sugar)
	}

	var (
		publisher   notify.Publisher = event.NoopPublisher{}
		redisPinger router.RedisPinger
	)
	if cfg.RedisURL != "" {
		client, err := newRedisClient(cfg.RedisURL, sugar)
		if err != nil {
			sugar.Fatalf("redis: %v", err)
		}
		defer client.Close()
		publisher = event.NewRedisPublisher(client, cfg.EventChannel, sugar)
		redisPinger = client
	}

	dispatchOpts := cfg.Dispatch
	dispatchOpts.Logger = sugar.Named("notify")
	dispatcher := notify.NewDispatcher(mailer, publisher, dispatchOpts)

	lifecycle := account.NewLifecycleManager(store, hasher, phones, dispatcher, sugar)
	auth := account.NewAuthenticator(store, hasher, codec, cfg.RequireActive, sugar)
	health := router.NewHealthHandler(db, redisPinger, func() any { return dispatcher.Stats() })
	handler := router.RegisterRoutes(sugar, account.NewHandler(lifecycle, auth, sugar), codec, health)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	// after the server so no request can dispatch into a closed pool
	if err := dispatcher.Close(doneCtx); err != nil {
		sugar.Warnw("notification dispatcher did not drain", "err", err, "stats", dispatcher.Stats())
	}
	sugar.Info("goodbye")
}

// newRedisClient connects to Redis. An unreachable server is not fatal:
// events are best-effort, so the client is kept and later publishes fail
// and get logged.
func newRedisClient(url string, logger *zap.SugaredLogger) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnw("redis ping failed; continuing", "err", err)
	}
	return client, nil
}
