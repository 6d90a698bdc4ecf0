package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"

	"studio"
	"studio/internal/analytics"
	"studio/internal/api/handler/endpoints"
	"studio/internal/api/models"
	"studio/internal/api/service"
	"studio/internal/api/websocket"
	"studio/internal/llm"
	"studio/internal/sandbox"
	"studio/pkg"
)

func main() {
	studio.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)
	cfg := studio.GetConfig()

	if cfg.Mode == "dev" {
		if err := studio.DB.AutoMigrate(
			&models.User{},
			&models.Dataset{},
			&models.ChatSession{},
			&models.ChatMessage{},
			&models.MetadataDatabase{},
			&models.MetadataEmail{},
		); err != nil {
			studio.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		studio.Logger.Info().Msg("Database migrated successfully")
		gin.SetMode(gin.DebugMode)
	}

	pkg.InitializeEmailsProviders()

	engine, err := analytics.NewEngine(cfg.DuckDBPath)
	if err != nil {
		studio.Logger.Fatal().Err(err).Str("path", cfg.DuckDBPath).Msg("Failed to open analytical store")
	}
	defer engine.Close()

	llmClient, err := llm.NewClient(llm.Config{
		Type:            cfg.LLMConfig.Type,
		AzureAPIKey:     cfg.LLMConfig.AzureAPIKey,
		AzureEndpoint:   cfg.LLMConfig.AzureEndpoint,
		AzureVersion:    cfg.LLMConfig.AzureVersion,
		AzureDeployment: cfg.LLMConfig.AzureDeploy,
		LocalEndpoint:   cfg.LLMConfig.LocalEndpoint,
		LocalModel:      cfg.LLMConfig.LocalModel,
		OllamaEndpoint:  cfg.LLMConfig.OllamaEndpoint,
	})
	if err != nil {
		studio.Logger.Fatal().Err(err).Msg("Failed to configure model provider")
	}
	studio.Logger.Info().Str("model", llmClient.Model()).Msg("Model provider ready")

	policy, err := sandbox.ParseImportPolicy(cfg.SandboxConfig.ImportPolicy)
	if err != nil {
		studio.Logger.Fatal().Err(err).Msg("Failed to configure sandbox")
	}
	gate := sandbox.NewGate(cfg.SandboxConfig.TimeLimit, policy, studio.Logger)

	events, err := service.NewEventPublisher(cfg.NatsURL)
	if err != nil {
		studio.Logger.Warn().Err(err).Msg("NATS unavailable, events disabled")
		events = nil
	}
	defer events.Close()

	datasetService := service.NewDatasetService(engine, events)
	sqlService := service.NewSqlService(llmClient)
	chatService := service.NewChatService(datasetService, llmClient, gate, events)
	acledService := service.NewAcledService(datasetService)
	sdgService := service.NewSdgService(datasetService)

	inbox := service.NewInboxService(datasetService)
	if inbox.IsConfigured() {
		inbox.Start()
		defer inbox.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(cfg.ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Initialize WebSocket components
	processor := websocket.NewMessageProcessor(chatService, studio.Logger)
	hub := websocket.NewHub(studio.Logger)
	go hub.Run()
	studio.Logger.Info().Msg("WebSocket hub started")

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	endpoints.AuthHandler(router)
	endpoints.DatasetHandler(router, datasetService)
	endpoints.SqlHandler(router, sqlService)
	endpoints.MetadataHandler(router)
	endpoints.ChatHandler(router, chatService)
	endpoints.AcledHandler(router, acledService)
	endpoints.SdgHandler(router, sdgService)
	endpoints.WebSocketHandler(router, hub, processor, chatService)

	studio.Logger.Debug().Msgf("Starting CORE API on port %s", cfg.ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		studio.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}
