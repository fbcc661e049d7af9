package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PhotoSocial/feed-client/internal/config"
	"github.com/PhotoSocial/feed-client/internal/handler"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/repository"
	"github.com/PhotoSocial/feed-client/internal/repository/blob"
	"github.com/PhotoSocial/feed-client/internal/repository/events"
	"github.com/PhotoSocial/feed-client/internal/repository/identity"
	"github.com/PhotoSocial/feed-client/internal/repository/postgres"
	"github.com/PhotoSocial/feed-client/internal/server"
	"github.com/PhotoSocial/feed-client/internal/service"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx := context.Background()

	envErr := loadEnv()

	if err := initConfig(); err != nil {
		panic("failed to initialize yaml config: " + err.Error())
	}

	logger := initLogger(viper.GetString("app.log-level"))
	defer logger.Sync()

	if envErr != nil {
		logger.Sugar().Warnf("failed to load .env, using process environment: %s", envErr.Error())
	}

	tp, err := initTracer(ctx, viper.GetString("telemetry.service-name"), os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if err != nil {
		logger.Sugar().Errorf("failed to init tracer, continuing without traces: %s", err.Error())
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Sugar().Errorf("failed to shut down tracer: %s", err.Error())
			}
		}()
	}

	dbConfig := config.DBConfig{
		Username: os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		DBName:   os.Getenv("POSTGRES_DATABASE"),
		SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
	}
	db, err := postgres.DB(ctx, dbConfig)
	if err != nil {
		logger.Sugar().Panicf("failed to connect to postgres: %s", err.Error())
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		logger.Sugar().Panicf("failed to ping postgres: %s", err.Error())
	}
	logger.Info("Successfully connected to PostgreSQL")

	redisOptions := &redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	rdb := redis.NewClient(redisOptions)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Sugar().Panicf("failed to instrument redis: %s", err.Error())
	}
	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		logger.Sugar().Panicf("failed to ping redis: %s", err.Error())
	}
	logger.Sugar().Infof("Successfully connected to Redis: %s", pong)

	nc, err := nats.Connect(os.Getenv("NATS_URL"), nats.Name(viper.GetString("telemetry.service-name")))
	if err != nil {
		logger.Sugar().Panicf("failed to connect to nats: %s", err.Error())
	}
	defer nc.Close()
	logger.Info("Successfully connected to NATS")

	identityConfig := config.IdentityConfig{
		Endpoint:    viper.GetString("identity.endpoint"),
		APIKey:      os.Getenv("IDENTITY_API_KEY"),
		TokenSecret: os.Getenv("IDENTITY_TOKEN_SECRET"),
	}
	identityClient := identity.NewREST(logger, identityConfig, &http.Client{Timeout: viper.GetDuration("sync.timeout")})

	storageConfig := config.StorageConfig{
		Driver:             viper.GetString("storage.driver"),
		S3Region:           os.Getenv("S3_REGION"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		GCSProjectID:       os.Getenv("GCS_PROJECT_ID"),
		GCSBucketName:      os.Getenv("GCS_BUCKET_NAME"),
		GCSCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		LocalPath:          viper.GetString("storage.local.path"),
		LocalBaseURL:       viper.GetString("storage.local.base-url"),
		CDNOrigin:          viper.GetString("cdn.origin"),
	}
	blobStore, err := blob.New(ctx, logger, storageConfig)
	if err != nil {
		logger.Sugar().Panicf("failed to initialize blob storage(%s): %s", storageConfig.Driver, err.Error())
	}

	repos := repository.New(db, rdb, identityClient, blobStore, events.NewNats(nc, logger), logger)

	syncConfig := config.SyncConfig{
		Timeout:       viper.GetDuration("sync.timeout"),
		FeedLimit:     viper.GetInt("sync.feed-limit"),
		FeedCacheTTL:  viper.GetDuration("sync.feed-cache-ttl"),
		MaxUploadSize: viper.GetInt64("sync.max-upload-size"),
	}
	services := service.New(logger, repos, syncConfig, identityConfig.TokenSecret)
	handlers := handler.New(services)

	unsubscribe := services.Session.Subscribe(func(session *model.Session) {
		if session == nil {
			logger.Info("Signed out")
			return
		}
		logger.Sugar().Infof("Signed in as user(%s)", session.UserID)
	})
	defer unsubscribe()

	srv := server.New()
	serverConfig := config.ServerConfig{
		Port:           viper.GetString("app.port"),
		Handler:        handlers.InitRoutes(),
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    time.Second * 10,
		// live feed streams stay open
		WriteTimeout: 0,
	}
	go func(srv *server.Server, cfg config.ServerConfig) {
		if err := srv.Run(cfg); err != nil {
			logger.Sugar().Panicf("failed to run http server: %s", err.Error())
		}
	}(srv, serverConfig)

	logger.Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := services.Session.SignOut(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to sign out on shutdown: %s", err.Error())
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
	}
}

func loadEnv() error {
	return godotenv.Load()
}

func initConfig() error {
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.log-level", "info")
	viper.SetDefault("sync.timeout", service.DEFAULT_TIMEOUT)
	viper.SetDefault("storage.driver", "local")

	return viper.ReadInConfig()
}

func initLogger(logLevel string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(level)

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}

	return logger
}
