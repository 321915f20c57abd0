// Command server is the process entrypoint: loads configuration, wires
// the database, vector store, cache, and LLM clients into the
// analytics pipeline and chat orchestrator, and serves the HTTP/SSE
// API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/saptiva-ai/bankcopilot/internal/analytics"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/intent"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/ragcontext"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	analyticssvc "github.com/saptiva-ai/bankcopilot/internal/analytics/service"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/specparser"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/sqlgen"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/sqlvalidator"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/viz"
	"github.com/saptiva-ai/bankcopilot/internal/application/repository"
	chatpipline "github.com/saptiva-ai/bankcopilot/internal/application/service/chat_pipline"
	"github.com/saptiva-ai/bankcopilot/internal/config"
	"github.com/saptiva-ai/bankcopilot/internal/document"
	"github.com/saptiva-ai/bankcopilot/internal/handler"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/models/chat"
	"github.com/saptiva-ai/bankcopilot/internal/models/embedding"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger("info", true)
	ctx := context.Background()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Errorf(ctx, "connect database: %v", err)
		os.Exit(1)
	}
	if err := migrateSchema(db); err != nil {
		logger.Errorf(ctx, "migrate schema: %v", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Errorf(ctx, "parse redis url: %v", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{Host: cfg.VectorDB.Host, Port: cfg.VectorDB.Port})
	if err != nil {
		logger.Errorf(ctx, "connect qdrant: %v", err)
		os.Exit(1)
	}

	embedder := document.NewOpenAIEmbedder(cfg.LLM.APIKey, cfg.LLM.BaseURL, "text-embedding-3-small", cfg.VectorDB.EmbeddingDim)
	llm := chat.NewOpenAIChat(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.ModelID)

	blobs, err := document.NewBlobStore(cfg.Blobs.Endpoint, cfg.Blobs.AccessKey, cfg.Blobs.SecretKey, cfg.Blobs.UseSSL)
	if err != nil {
		logger.Errorf(ctx, "create blob store: %v", err)
		os.Exit(1)
	}
	if err := blobs.EnsureBucket(ctx, cfg.Blobs.Bucket); err != nil {
		logger.Warn(ctx, "blob bucket not ready: ", err)
	}

	reg := registry.Default()

	documents := buildDocumentService(db, redisClient, qdrantClient, embedder, blobs, cfg)
	if err := documents.EnsureReady(ctx); err != nil {
		logger.Warn(ctx, "document vector collection not ready: ", err)
	}

	pipeline := buildAnalyticsPipeline(db, qdrantClient, embedder, llm, reg, cfg)

	chatRepo := repository.NewChatRepository(db)
	models := chatpipline.NewModelRegistry(llm)
	orchestrator := chatpipline.NewOrchestrator(cfg.Chat, chatRepo, models, documents, pipeline, reg)

	rateLimiter := document.NewUploadRateLimiter(redisClient, 10, time.Minute)

	router := buildRouter(cfg, orchestrator, documents, chatRepo, rateLimiter)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof(ctx, "listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf(ctx, "server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "graceful shutdown failed: %v", err)
	}
}

// migrateSchema auto-migrates the chat/artifact/document tables. A
// dedicated golang-migrate migration set belongs in deploy/migrations
// for production rollouts; AutoMigrate is sufficient to stand the
// service up from empty state.
func migrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(&types.Session{}, &types.Message{}, &types.Artifact{}, &document.Document{})
}

func buildDocumentService(db *gorm.DB, redisClient *redis.Client, qdrantClient *qdrant.Client, embedder document.Embedder, blobs *document.BlobStore, cfg *config.Config) *document.Service {
	repo := document.NewRepository(db)
	cache := document.NewTextCache(redisClient)
	store := document.NewVectorStore(qdrantClient, cfg.VectorDB.EmbeddingDim)
	chunker := document.NewChunker(0, -1)
	extractor := document.NewTieredExtractor(document.NewTextExtractor())
	return document.NewService(repo, cache, store, extractor, chunker, embedder).WithBlobStore(blobs)
}

// embedderAdapter bridges this service's single OpenAI-compatible
// document.Embedder into the heavier multi-provider embedding.Embedder
// interface the RAG context service was written against, without
// pulling in the Aliyun/Jina/Volcengine routing this service never
// uses.
type embedderAdapter struct {
	document.Embedder
}

func (a embedderAdapter) GetModelName() string { return a.ModelName() }
func (a embedderAdapter) GetDimensions() int   { return a.Dimensions() }
func (a embedderAdapter) GetModelID() string   { return a.ModelName() }
func (a embedderAdapter) BatchEmbedWithPool(ctx context.Context, model embedding.Embedder, texts []string) ([][]float32, error) {
	return model.BatchEmbed(ctx, texts)
}

func buildAnalyticsPipeline(db *gorm.DB, qdrantClient *qdrant.Client, embedder document.Embedder, llm chat.Chat, reg *registry.Registry, cfg *config.Config) *analytics.Pipeline {
	searcher, err := ragcontext.NewQdrantSearcher(cfg.VectorDB.Host, cfg.VectorDB.Port)
	if err != nil {
		logger.Errorf(context.Background(), "connect ragcontext qdrant searcher: %v", err)
	}

	disambiguator := intent.New(reg)
	parser := specparser.New(reg, llm)
	validator := sqlvalidator.New(cfg.Analytics.AllowedTables)
	narrator := sqlgen.NewLLMNarrator(llm)
	generator := sqlgen.New(reg, validator, narrator).WithDefaultTopN(cfg.Analytics.DefaultTopN)
	svc := analyticssvc.New(db, reg)
	builder := viz.New(reg)

	var ragSvc *ragcontext.Service
	if searcher != nil {
		ragSvc = ragcontext.New(searcher, embedderAdapter{embedder}, reg)
	}

	return analytics.New(reg, disambiguator, parser, ragSvc, generator, svc, builder)
}

func buildRouter(cfg *config.Config, orchestrator *chatpipline.Orchestrator, documents *document.Service, chatRepo *repository.ChatRepository, rateLimiter *document.UploadRateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.RequestContext())
	router.Use(handler.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Trace-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	chatHandler := handler.NewChatHandler(orchestrator)
	docHandler := handler.NewDocumentHandler(documents, cfg.Files.MaxSizeBytes, rateLimiter, cfg.Blobs.Bucket)
	artifactHandler := handler.NewArtifactHandler(chatRepo)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/chat", chatHandler.Chat)

		v1.POST("/documents", docHandler.Upload)
		v1.GET("/documents/:id/status", docHandler.Status)

		v1.GET("/artifacts/:id", artifactHandler.Get)
		v1.PUT("/artifacts/:id", artifactHandler.Update)
		v1.DELETE("/artifacts/:id", artifactHandler.Delete)
		v1.GET("/sessions/:session_id/artifacts", artifactHandler.List)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
