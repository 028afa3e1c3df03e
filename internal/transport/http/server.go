package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"carely/internal/ai"
	appsvc "carely/internal/app"
	"carely/internal/bootstrap"
	"carely/internal/cache"
	"carely/internal/platform/rabbitmq"
	"carely/internal/rag"
	"carely/internal/repository"
	"carely/internal/transport/http/handler"
	"carely/internal/transport/http/middleware"
	"carely/internal/whatsapp"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	companyRepo := repository.NewCompanyRepository(app.MySQL)
	documentRepo := repository.NewDocumentRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	categoryRepo := repository.NewCategoryRepository(app.MySQL)
	liveMessageRepo := repository.NewLiveMessageRepository(app.MySQL)
	whatsappConfigRepo := repository.NewWhatsAppConfigRepository(app.MySQL)

	chatModel := ai.NewChatModel(app.AIClient, ai.ChatConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	})
	embeddingModel := ai.NewEmbeddingModel(app.AIClient, ai.EmbeddingConfig{
		BaseURL: app.Config.Embedding.BaseURL,
		APIKey:  app.Config.Embedding.APIKey,
		Model:   app.Config.Embedding.Model,
	})
	var reranker rag.Reranker
	if app.Config.Rerank.Enabled {
		reranker = ai.NewRerankModel(app.AIClient, ai.RerankConfig{
			BaseURL: app.Config.Rerank.BaseURL,
			APIKey:  app.Config.Rerank.APIKey,
			Model:   app.Config.Rerank.Model,
		})
	}

	indexRegistry := appsvc.NewIndexRegistry(app.IndexStore)
	pipeline := rag.NewPipeline(indexRegistry, embeddingModel, reranker, chatModel)

	authService := appsvc.NewAuthService(
		companyRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	documentService := appsvc.NewDocumentService(
		documentRepo,
		chunkRepo,
		appsvc.PDFPageLoader{},
		embeddingModel,
		indexRegistry,
		app.Config.RAG.ChunkSize,
		app.Config.RAG.ChunkOverlap,
	)
	conversationService := appsvc.NewConversationService(pipeline, cache.NewConversationStore(app.Redis))
	classifierService := appsvc.NewClassifierService(chatModel, categoryRepo)
	categoryService := appsvc.NewCategoryService(categoryRepo)
	analyticsService := appsvc.NewAnalyticsService(liveMessageRepo)
	supportService := appsvc.NewSupportService(
		whatsappConfigRepo,
		conversationService,
		classifierService,
		whatsapp.NewClient(app.Config.WhatsApp.GraphBaseURL),
		rabbitmq.NewLiveMessagePublisher(app.MQConn, app.Config.RabbitMQ.LiveMessageQueue),
	)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(documentService, app.Config.RAG.UploadDir)
	conversationHandler := handler.NewConversationHandler(conversationService)
	categoryHandler := handler.NewCategoryHandler(categoryService, classifierService, chunkRepo)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	whatsappHandler := handler.NewWhatsAppHandler(supportService)
	accountHandler := handler.NewAccountHandler(documentService, conversationService, analyticsService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	// the webhook is called by Meta, not by authenticated tenants
	webhookGroup := v1.Group("/webhook")
	webhookGroup.GET("/whatsapp", whatsappHandler.VerifyWebhook)
	webhookGroup.POST("/whatsapp", whatsappHandler.Webhook)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))

	documentGroup := authed.Group("/documents")
	documentGroup.POST("", documentHandler.Upload)
	documentGroup.GET("", documentHandler.List)
	documentGroup.DELETE("/:id", documentHandler.Delete)
	documentGroup.GET("/status", documentHandler.Status)

	conversationGroup := authed.Group("/conversation")
	conversationGroup.POST("/ask", conversationHandler.Ask)
	conversationGroup.GET("/history", conversationHandler.History)
	conversationGroup.DELETE("/history", conversationHandler.Clear)
	conversationGroup.GET("/summary", conversationHandler.Summary)

	categoryGroup := authed.Group("/categories")
	categoryGroup.GET("", categoryHandler.List)
	categoryGroup.POST("", categoryHandler.Create)
	categoryGroup.PUT("", categoryHandler.Replace)
	categoryGroup.DELETE("/:id", categoryHandler.Delete)
	categoryGroup.POST("/suggest", categoryHandler.Suggest)

	analyticsGroup := authed.Group("/analytics")
	analyticsGroup.GET("/dashboard", analyticsHandler.Dashboard)
	analyticsGroup.GET("/messages", analyticsHandler.Messages)

	whatsappGroup := authed.Group("/whatsapp")
	whatsappGroup.POST("/config", whatsappHandler.SaveConfig)
	whatsappGroup.GET("/config", whatsappHandler.GetConfig)

	authed.DELETE("/account/data", accountHandler.DeleteData)

	return router
}
