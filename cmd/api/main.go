// @title           Chat Service API
// @version         1.0
// @description     Authenticated chat with persisted history and a stub assistant.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aichat/chat-service/internal/api"
	"github.com/aichat/chat-service/internal/api/handler"
	"github.com/aichat/chat-service/internal/core/ports"
	"github.com/aichat/chat-service/internal/core/service"
	"github.com/aichat/chat-service/internal/infrastructure/db/mongo"
	"github.com/aichat/chat-service/internal/infrastructure/db/postgres"
	"github.com/aichat/chat-service/internal/infrastructure/db/redis"
	"github.com/aichat/chat-service/internal/infrastructure/queue"
	"github.com/aichat/chat-service/internal/pkg/config"
	"github.com/aichat/chat-service/internal/pkg/token"
	"github.com/aichat/chat-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; real deployments use the process environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.New(logger.Options{})
		l.Fatal().Err(err).Msg("configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "chat-service",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Relational store ---
	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:          cfg.Postgres.URL,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
		SlowQuery:    200 * time.Millisecond,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = postgres.Close(db) }()

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := postgres.Migrate(ctx, sqlDB, log); err != nil {
		return err
	}

	// --- Session revocation ---
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	readiness := map[string]handler.Pinger{
		"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
		"redis":    func(ctx context.Context) error { return pingRedis(ctx, rdb) },
	}

	// --- Audit trail ---
	var auditRepo ports.AuditRepository = queue.NewLogRepository(log)
	if cfg.Mongo.URI != "" {
		client, mdb, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "chat-service",
		})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		repo := mongo.NewAuditRepository(mdb)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		auditRepo = repo
		readiness["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	} else {
		log.Warn().Msg("MONGO_URI not set, audit events are logged only")
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewAuditDispatcher(cfg.AuditWorkers, auditRepo, log)
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	tokens := token.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	sessions := redis.NewSessionStore(rdb)
	users := postgres.NewUserRepository(db)
	messages := postgres.NewMessageRepository(db)

	authService := service.NewAuthService(users, tokens, sessions, dispatcher, cfg.BcryptCost, log)
	chatService := service.NewChatService(users, messages, service.NewStubResponder(cfg.StubResponse), dispatcher, log)

	e := api.NewRouter(api.Deps{
		Log:          log,
		AuthService:  authService,
		ChatService:  chatService,
		Tokens:       tokens,
		Sessions:     sessions,
		Readiness:    readiness,
		SecureCookie: !cfg.IsDevelopment(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func pingRedis(ctx context.Context, rdb *goredis.Client) error {
	return rdb.Ping(ctx).Err()
}
