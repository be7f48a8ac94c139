package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"freightchat/internal/config"
	"freightchat/internal/handler"
	"freightchat/internal/logger"
	"freightchat/internal/notify"
	"freightchat/internal/repository"
	"freightchat/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// store is the load repository plus the audit log
type store interface {
	service.LoadRepository
	service.TurnRecorder
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLogger.Sync() }()
	appLog := logger.NewZapAdapter(zapLogger)

	appLog.Info("Freight chat assistant", map[string]interface{}{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	repo, closeRepo, err := openStore(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Error("Failed to open load store", nil)
		os.Exit(1)
	}
	defer closeRepo()

	sessions, err := openSessions(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Error("Failed to open session store", nil)
		os.Exit(1)
	}

	notifier, err := openNotifier(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Error("Failed to create notifier", nil)
		os.Exit(1)
	}

	// Initialize OpenAI client
	aiClient := service.NewOpenAIClient(&cfg.OpenAI, appLog)
	if cfg.OpenAI.Enabled {
		provider := service.DetectProvider(cfg.OpenAI.APIBase)
		appLog.Info("✅ AI client initialized", map[string]interface{}{
			"api_base":    cfg.OpenAI.APIBase,
			"provider":    provider.Name,
			"chat_model":  cfg.OpenAI.ChatModel,
			"temperature": cfg.OpenAI.ChatTemperature,
			"top_p":       cfg.OpenAI.ChatTopP,
			"max_tokens":  cfg.OpenAI.ChatMaxTokens,
		})
	} else {
		appLog.Warn("⚠️  AI is disabled, only direct load answers will work", map[string]interface{}{
			"hint": "set OPENAI_API_KEY to enable AI replies",
		})
	}

	// Initialize services
	chatService := service.NewChatService(repo, repo, sessions, aiClient, notifier, cfg.Dialogue, appLog)
	defer chatService.Wait()

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.GinMode != gin.ReleaseMode {
		router.Use(gin.Logger())
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "freight-chat-assistant",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
			"ai_enabled": aiClient.IsEnabled(),
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	handler.RegisterRoutes(router.Group("/api/v1"), chatService, cfg.Search)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("🚀 Starting server", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.WithError(err).Error("Failed to start server", nil)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("🛑 Shutting down server...", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.WithError(err).Error("Server shutdown failed", nil)
	}
	if sns, ok := notifier.(*notify.SNSNotifier); ok {
		sns.Wait()
	}
	appLog.Info("✅ Server stopped", nil)
}

// openStore connects to PostgreSQL when configured, otherwise loads demo data
// into memory
func openStore(cfg *config.Config, log logger.Logger) (store, func(), error) {
	if cfg.HasDatabase() {
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
			cfg.Search.CandidateLimit,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("✅ Connected to PostgreSQL database", nil)
		return repo, func() { _ = repo.Close() }, nil
	}

	if cfg.Seed.File != "" {
		repo, err := repository.NewMemoryRepositoryFromFile(cfg.Seed.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		log.Info("✅ Loaded demo loads into memory", map[string]interface{}{
			"file":  cfg.Seed.File,
			"loads": repo.LoadCount(),
		})
		return repo, func() {}, nil
	}

	repo, err := repository.NewMemoryRepository()
	if err != nil {
		return nil, nil, err
	}
	log.Warn("⚠️  No database or seed file configured, the load store is empty", nil)
	return repo, func() {}, nil
}

func openSessions(cfg *config.Config, log logger.Logger) (service.SessionStore, error) {
	factory := service.TrackerFactory{
		Clock:  service.SystemClock(),
		Window: cfg.Dialogue.SuppressionWindow,
	}

	if cfg.Dialogue.SessionBackend == "redis" {
		client := service.NewRedisClient(cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Address, err)
		}
		log.Info("✅ Using Redis session store", map[string]interface{}{"addr": cfg.Redis.Address})
		return service.NewRedisSessionStore(client, factory, cfg.Redis.KeyPrefix, cfg.Dialogue.SessionTTL, log), nil
	}

	log.Info("✅ Using in-memory session store", nil)
	return service.NewMemorySessionStore(factory, cfg.Dialogue.SessionTTL), nil
}

func openNotifier(cfg *config.Config, log logger.Logger) (notify.Notifier, error) {
	if cfg.Notifications.Backend == "sns" {
		n, err := notify.NewSNSNotifier(context.Background(), cfg.Notifications.AWSRegion,
			cfg.Notifications.SNSTopicARN, cfg.Notifications.Timeout, log)
		if err != nil {
			return nil, err
		}
		log.Info("✅ Operator notifications go to SNS", map[string]interface{}{
			"topic_arn": cfg.Notifications.SNSTopicARN,
		})
		return n, nil
	}
	return notify.NewLogNotifier(log), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
