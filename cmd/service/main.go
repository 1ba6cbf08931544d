package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-service/config"
	"marketplace-service/internal/cache"
	"marketplace-service/internal/hashing"
	"marketplace-service/internal/health"
	"marketplace-service/internal/identity"
	"marketplace-service/internal/migrate"
	"marketplace-service/internal/producer"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/repository/memory"
	"marketplace-service/internal/service"
	"marketplace-service/internal/token"
	grpctransport "marketplace-service/internal/transport/grpc"
	"marketplace-service/internal/transport/http/router"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		repos  *repository.Repository
		checks []health.Check
	)
	switch cfg.DB.Driver {
	case config.DriverMemory:
		repos = memory.New().Repository()
	default:
		db := database.ConnectDB(&cfg.DB.Config, log)
		defer database.CloseDB(db, log)

		if cfg.DB.AutoMigrate {
			if err := migrate.MigrateMarketplaceDB(context.Background(), db, log, migrate.DefaultMigrateOptions()); err != nil {
				log.Fatal("Ошибка при выполнении миграции", zap.Error(err))
			}
		}

		repos = repository.New(db)
		checks = append(checks, health.Check{Name: "postgres", Probe: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}

	var (
		cacheClient service.CacheClient
		revoked     identity.RevocationList
	)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, log)
		if err != nil {
			log.Fatal("failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()
		cacheClient, revoked = redisClient, redisClient
		checks = append(checks, health.Check{Name: "redis", Probe: redisClient.Ping})
		log.Info("Redis cache enabled")
	} else {
		log.Info("Redis cache disabled")
	}

	var events service.EventBus
	if len(cfg.Kafka.Brokers) > 0 {
		orderEvents := producer.NewOrderEventProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders)
		defer orderEvents.Close()
		events = orderEvents
		log.Info("Kafka order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.TopicOrders))
	}

	hasher := hashing.NewBcrypt(0)
	tokens := token.NewHSProvider(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)

	svc := router.Services{
		Auth: service.NewAuthService(repos, hasher, tokens, cacheClient, cfg.JWT.AccessExp,
			service.LoginThrottle{MaxFailures: cfg.Login.MaxFailures, Window: cfg.Login.Window}, log),
		Tenants: service.NewTenantService(repos, hasher, log),
		Catalog: service.NewCatalogService(repos, log),
		Orders:  service.NewOrderService(repos, events, log),
	}
	resolver := identity.NewResolver(tokens, repos.Users, repos.Tenants, revoked, log)

	// Health server
	healthSrv := grpchealth.NewServer()
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()
	monitor := health.NewMonitor(healthSrv, "marketplace", 15*time.Second, log, checks...)
	monitor.Start(monitorCtx)

	httpSrv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router.Router(svc, resolver, router.Options{AllowOrigins: cfg.CORS, Health: monitor.Status}, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpctransport.NewLoggingUnaryServerInterceptor(log)))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Starting HTTP server", zap.String("addr", cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("Starting gRPC health server", zap.String("addr", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	<-quit
	log.Info("Shutting down...")

	monitor.Stop()
	monitorCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	grpcServer.GracefulStop()
	log.Info("Servers stopped gracefully")
}
