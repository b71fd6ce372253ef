// Package bootstrap wires configuration, infrastructure, adapters, and
// services into runnable API and worker processes.
package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/adapter/out/cache"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/adapter/out/dataset"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/adapter/out/persistence"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/adapter/out/provider"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/config"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/agent/llm"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/agent/rag"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/service/automation"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/service/knowledge"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/service/training"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/infra/database"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/crypto"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

// Dependencies holds every shared component; both the API and the worker
// are assembled from one instance.
type Dependencies struct {
	Config *config.Config

	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	Redis       *redis.Client

	// Repositories
	KnowledgeRepo out.KnowledgeRepository
	EmailRepo     out.AutomatedEmailRepository
	FeedbackRepo  out.FeedbackRepository
	SettingsRepo  out.SettingsRepository

	// Providers
	ProviderFactory out.ProviderFactory

	// Services
	AutomationService *automation.Service
	KnowledgeService  *knowledge.Service
	Monitor           *automation.Monitor
	Ingestor          *training.Ingestor
}

// NewDependencies builds the full dependency graph. The returned cleanup
// closes connections and drains background workers.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}

	// MongoDB
	mongoClient, err := persistence.NewClient(cfg.MongoDBURL)
	if err != nil {
		return nil, nil, err
	}
	deps.MongoClient = mongoClient
	deps.MongoDB = mongoClient.Database(cfg.MongoDBName)

	// Redis is optional: without it the knowledge cache degrades to
	// in-process memory.
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, using in-memory knowledge cache")
		} else {
			deps.Redis = redisClient
		}
	}

	encryptor, err := crypto.NewEncryptor([]byte(cfg.EncryptionKey))
	if err != nil {
		return nil, nil, err
	}

	// Repositories
	knowledgeAdapter := persistence.NewKnowledgeAdapter(deps.MongoDB)
	emailAdapter := persistence.NewAutomatedEmailAdapter(deps.MongoDB)
	feedbackAdapter := persistence.NewFeedbackAdapter(deps.MongoDB)
	deps.KnowledgeRepo = knowledgeAdapter
	deps.EmailRepo = emailAdapter
	deps.FeedbackRepo = feedbackAdapter
	deps.SettingsRepo = persistence.NewSettingsAdapter(deps.MongoDB, encryptor)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndex()
	for _, ensure := range []func(context.Context) error{
		knowledgeAdapter.EnsureIndexes,
		emailAdapter.EnsureIndexes,
		feedbackAdapter.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			return nil, nil, err
		}
	}

	// Knowledge cache
	var knowledgeCache out.KnowledgeCache
	if deps.Redis != nil {
		knowledgeCache = cache.NewRedisCache(deps.Redis, cfg.CacheTTL)
	} else {
		knowledgeCache = cache.NewMemoryCache(cfg.CacheTTL, cfg.CacheMaxEntries)
	}

	// LLM clients: OpenAI primary, Ollama secondary. The chains try them
	// in order so a cloud outage degrades to the local model.
	openaiClient := llm.NewClientWithConfig(llm.ClientConfig{
		APIKey:         cfg.OpenAIAPIKey,
		Model:          cfg.LLMModel,
		EmbeddingModel: cfg.EmbeddingModel,
		MaxTokens:      cfg.LLMMaxTokens,
		Temperature:    cfg.LLMTemperature,
		Timeout:        time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})
	ollamaClient := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL:        cfg.OllamaURL,
		Model:          cfg.OllamaModel,
		EmbeddingModel: cfg.OllamaEmbeddingModel,
	})
	completions := llm.NewCompletionChain(openaiClient, ollamaClient)
	embeddings := llm.NewEmbeddingChain(openaiClient, ollamaClient)

	// Retrieval
	loader := rag.NewLoader(deps.KnowledgeRepo, knowledgeCache)
	retriever := rag.NewRetriever(embeddings, loader, &rag.RetrieverConfig{
		MaxQueries: cfg.MaxRetrievalQueries,
		TopK:       cfg.RetrievalTopK,
		MinScore:   cfg.RetrievalMinScore,
	})

	// Mail providers
	deps.ProviderFactory = provider.NewFactory(&provider.GmailConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	// Training
	datasetWriter, err := dataset.NewJSONLWriter(cfg.DatasetDir)
	if err != nil {
		return nil, nil, err
	}
	var tuner out.FineTuner
	if cfg.TrainingEnabled && cfg.OpenAIAPIKey != "" {
		tuner = llm.NewFineTuner(cfg.OpenAIAPIKey, cfg.FineTuneBaseModel)
	} else {
		tuner = &llm.SimulatedFineTuner{}
	}
	deps.Ingestor = training.NewIngestor(datasetWriter, tuner, cfg.TrainingBatchSize)
	deps.Ingestor.Start()

	// Automation
	pipeline := automation.NewPipeline(
		automation.NewClassifier(completions),
		retriever,
		automation.NewResponseGenerator(completions),
		automation.NewQualityGate(completions),
		deps.EmailRepo,
		deps.ProviderFactory,
	)
	deps.Monitor = automation.NewMonitor(pipeline, deps.ProviderFactory, deps.SettingsRepo)
	deps.AutomationService = automation.NewService(
		deps.Monitor,
		deps.SettingsRepo,
		deps.EmailRepo,
		deps.FeedbackRepo,
		deps.ProviderFactory,
		deps.Ingestor,
		cfg.DefaultPollInterval,
	)

	deps.KnowledgeService = knowledge.NewService(deps.KnowledgeRepo, embeddings, loader)

	cleanup := func() {
		deps.Monitor.StopAll()
		deps.Ingestor.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if deps.Redis != nil {
			if err := deps.Redis.Close(); err != nil {
				logger.WithError(err).Warn("closing redis failed")
			}
		}
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.WithError(err).Warn("closing mongodb failed")
		}
	}

	return deps, cleanup, nil
}
