package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amalajeun/internal/config"
	"amalajeun/internal/handler"
	"amalajeun/internal/model"
	"amalajeun/internal/repository"
	"amalajeun/internal/service"
	"amalajeun/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// repoLister adapts the repository's read side to the query/discovery
// services, which only need a snapshot of the collection.
type repoLister struct {
	repo *repository.PostgresRepository
}

func (l *repoLister) List(ctx context.Context) ([]model.Spot, error) {
	return l.repo.ListSpots(ctx)
}

func main() {
	// Print version info
	log.Printf("AmalaJẹun Spot Service")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	logger := utils.NewLogger()

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("✅ Connected to PostgreSQL database")

	// Initialize OpenAI client
	var aiClient service.AIClient
	if cfg.OpenAI.Enabled {
		aiClient = service.NewOpenAIClient(&cfg.OpenAI, logger)
		log.Printf("✅ OpenAI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
		log.Printf("   - Chat Temperature: %.2f", cfg.OpenAI.ChatTemperature)
		log.Printf("   - Chat TopP: %.2f", cfg.OpenAI.ChatTopP)
		log.Printf("   - Chat MaxTokens: %d", cfg.OpenAI.ChatMaxTokens)
	} else {
		log.Println("⚠️  OpenAI is disabled - the intake and discovery chats will not work")
		log.Println("   Set OPENAI_API_KEY environment variable to enable them")
	}

	// Initialize services
	lister := &repoLister{repo: repo}
	queryService := service.NewQueryService(lister, logger, time.Now)

	spotsClient := service.NewSpotsClient(
		cfg.Spots.BaseURL,
		time.Duration(cfg.Spots.Timeout)*time.Second,
		logger,
	)
	contract := service.NewSubmitContract(spotsClient, logger)
	collab := service.NewLLMCollaborator(aiClient, logger)
	discovery := service.NewDiscoveryAssistant(aiClient, lister, logger, time.Now)

	log.Println("✅ Services initialized")

	// Initialize handlers
	spotsHandler := handler.NewSpotsHandler(repo, queryService)
	chatHandler := handler.NewChatHandler(collab, contract, discovery, logger)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "amalajeun-spot-service",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Spot storage endpoints
		apiV1.POST("/spots", handler.RequireAuth(cfg.Auth.JWTSecret), spotsHandler.Create)
		apiV1.GET("/spots", spotsHandler.List)
		apiV1.GET("/spots/:id", spotsHandler.Get)

		// Map/list query endpoint
		apiV1.POST("/spots/query", spotsHandler.Query)

		// Conversational endpoints
		apiV1.POST("/chat", chatHandler.Chat)
		apiV1.POST("/chat/spots", chatHandler.DiscoveryChat)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API base: http://localhost:%d/api/v1", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
