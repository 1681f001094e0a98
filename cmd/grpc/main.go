package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fekuna/pantry-service/config"
	"github.com/fekuna/pantry-service/internal/assistant"
	"github.com/fekuna/pantry-service/internal/auth"
	"github.com/fekuna/pantry-service/internal/broker"
	"github.com/fekuna/pantry-service/internal/cache"
	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/inventory"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/metrics"
	"github.com/fekuna/pantry-service/internal/priority"
	"github.com/fekuna/pantry-service/internal/reconcile"
	"github.com/fekuna/pantry-service/internal/rpc"
	"github.com/fekuna/pantry-service/internal/search"
	"github.com/fekuna/pantry-service/internal/shelflife"

	cookH "github.com/fekuna/pantry-service/internal/cook/handler"
	cookRepoPkg "github.com/fekuna/pantry-service/internal/cook/repository"

	invH "github.com/fekuna/pantry-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/pantry-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/pantry-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/pantry-service/internal/inventory/usecase"

	ledgerRepoPkg "github.com/fekuna/pantry-service/internal/ledger/repository"

	prioH "github.com/fekuna/pantry-service/internal/priority/handler"

	shopH "github.com/fekuna/pantry-service/internal/shopping/handler"
	shopRepoPkg "github.com/fekuna/pantry-service/internal/shopping/repository"
	shopUCPkg "github.com/fekuna/pantry-service/internal/shopping/usecase"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to Database
	db, err := openDB(cfg)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		appLogger.Fatal("Could not migrate database", zap.Error(err))
	}
	appLogger.Info("Connected to database", zap.String("driver", cfg.Postgres.Driver), zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	invRepo := invRepoPkg.NewPGRepository(db)
	ledgerRepo := ledgerRepoPkg.NewPGRepository(db)
	shopRepo := shopRepoPkg.NewPGRepository(db)
	cookRepo := cookRepoPkg.NewPGRepository(db)
	txManager := database.NewTxManager(db)

	// 5. Initialize Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// 6. Initialize Locker (Redis when shared across replicas)
	var locker cache.Locker = cache.NewLocalLocker()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient)
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 7. Initialize Elasticsearch
	var itemIndex inventory.Indexer
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch (search falls back to the database)", zap.Error(err))
		} else {
			idx := search.NewItemIndex(esClient, cfg.Elastic.Index)
			if err := idx.EnsureIndex(ctx); err != nil {
				appLogger.Warn("Could not create search index", zap.Error(err))
			}
			itemIndex = idx
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 8. Initialize LLM collaborators
	var (
		parser    assistant.Parser
		suggester assistant.Suggester
		collab    shelflife.Collaborator
	)
	if cfg.LLM.Token != "" {
		llmClient, err := assistant.NewOpenAI(assistant.Config{
			BaseURL:   cfg.LLM.BaseURL,
			Token:     cfg.LLM.Token,
			Model:     cfg.LLM.Model,
			Timeout:   cfg.LLM.Timeout,
			RateLimit: cfg.LLM.RateLimit,
		}, appLogger.Named("llm"))
		if err != nil {
			appLogger.Warn("LLM disabled", zap.Error(err))
		} else {
			parser, suggester = llmClient, llmClient
			collab = shelflife.NewLLMCollaborator(llmClient)
		}
	}
	helper := assistant.New(parser, suggester, appLogger)
	estimator := shelflife.New(shelflife.DefaultRules, collab, shelflife.Config{
		MaxDays:     cfg.ShelfLife.MaxDays,
		DefaultDays: cfg.ShelfLife.DefaultDays,
		Timeout:     cfg.ShelfLife.Timeout,
	}, appMetrics, appLogger)

	// 9. Initialize Engine and UseCases
	engine := reconcile.NewEngine(txManager, invRepo, ledgerRepo, shopRepo, cookRepo, locker, estimator, itemIndex, appMetrics, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(txManager, invRepo, ledgerRepo, shopRepo, locker, itemIndex, appLogger)
	shopUC := shopUCPkg.NewShoppingUseCase(shopRepo, invRepo, helper, appLogger)
	scorer := priority.NewScorer(invRepo, ledgerRepo, priority.Config{
		WindowDays:     cfg.Priority.WindowDays,
		TopN:           cfg.Priority.TopN,
		UseByDays:      cfg.Priority.UseByDays,
		BestBeforeDays: cfg.Priority.BestBeforeDays,
	}, appMetrics, appLogger)

	// 10. Initialize Listener
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, engine, helper, appLogger)
		go invListener.Start(ctx)
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// 11. Initialize Handlers
	invHandler := invH.NewInventoryHandler(invUC, engine, helper, appLogger)
	shopHandler := shopH.NewShoppingHandler(shopUC, engine, appLogger)
	cookHandler := cookH.NewCookHandler(cookRepo, engine, appLogger)
	prioHandler := prioH.NewPriorityHandler(scorer)

	// 12. Start Metrics Server
	metricsServer := &http.Server{
		Addr:              listenAddr(cfg.Server.MetricsPort),
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 13. Start gRPC Server
	port := listenAddr(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(rpc.LoggingInterceptor(appLogger), auth.OwnerInterceptor()),
	)

	// Register Services
	rpc.Register(grpcServer, invHandler.ServiceDesc())
	rpc.Register(grpcServer, shopHandler.ServiceDesc())
	rpc.Register(grpcServer, cookHandler.ServiceDesc())
	rpc.Register(grpcServer, prioHandler.ServiceDesc())

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = metricsServer.Shutdown(shutdownCtx)
	appLogger.Info("Server stopped")
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Postgres.Driver == "sqlite3" {
		return database.NewSQLite(cfg.Postgres.DBName)
	}
	return database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
}

func listenAddr(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
