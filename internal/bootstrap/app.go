package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"concierge/internal/ai"
	"concierge/internal/app"
	"concierge/internal/cache"
	"concierge/internal/config"
	"concierge/internal/logger"
	"concierge/internal/metrics"
	"concierge/internal/model"
	"concierge/internal/platform/database"
	rabbitmqClient "concierge/internal/platform/rabbitmq"
	redisClient "concierge/internal/platform/redis"
	"concierge/internal/repository"
	"concierge/internal/worker"
)

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	DB           *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	AnswerWorker *worker.AnswerEventWorker

	Answers      *app.AnswerService
	Descriptions *app.DescriptionService
	Ingest       *app.IngestService
	AnswerRepo   *repository.AnswerRepository
	PageStats    *repository.PageStatRepository

	StartedAt time.Time
}

// Options select the optional parts of the process.
type Options struct {
	// StartWorkers starts the answer event consumer when rabbitmq is enabled.
	StartWorkers bool
}

func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return NewWithConfig(ctx, cfg, opts)
}

func NewWithConfig(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Service: cfg.App.Name})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	a := &App{
		Config:    cfg,
		Log:       log,
		Registry:  registry,
		Metrics:   m,
		StartedAt: time.Now(),
	}

	gormLevel := gormlogger.Warn
	if cfg.Log.Level == "debug" {
		gormLevel = gormlogger.Info
	}
	db, err := database.New(ctx, cfg.Database.Driver, cfg.DatabaseDSN(), gormLevel)
	if err != nil {
		return nil, err
	}
	a.DB = db
	matchFuncs := map[string]string{
		model.CorpusDefault:     cfg.Retrieval.MatchFunction,
		model.CorpusKickstartDS: cfg.Retrieval.KickstartDSMatchFunction,
		model.CorpusExternal:    cfg.Retrieval.ExternalMatchFunction,
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, matchFuncs); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	if cfg.Redis.Enabled {
		a.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	if cfg.RabbitMQ.Enabled {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	sections, err := repository.NewSectionRepository(db, matchFuncs)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.AnswerRepo = repository.NewAnswerRepository(db)
	a.PageStats = repository.NewPageStatRepository(db)
	descriptions := repository.NewDescriptionRepository(db)

	llm := ai.NewOpenAIClient(ai.OpenAIConfig{
		BaseURL:         cfg.LLM.BaseURL,
		APIKey:          cfg.LLM.APIKey,
		Mode:            cfg.LLM.Mode,
		Model:           cfg.LLM.Model,
		ModerationModel: cfg.LLM.ModerationModel,
		EmbeddingModel:  cfg.Embedding.Model,
	})
	tokenizer := ai.NewTiktokenCounter(cfg.Retrieval.TokenizerEncoding)

	var embedder app.Embedder = llm
	namespace := "openai:" + cfg.Embedding.Model
	if cfg.Embedding.Provider == "service" {
		embedder = ai.NewEmbeddingServiceClient(cfg.Embedding.URL, &http.Client{Timeout: seconds(cfg.Timeouts.EmbeddingSeconds)})
		namespace = "service:" + cfg.Embedding.URL
	}
	questionEmbedder := embedder
	if a.Redis != nil {
		ttl := seconds(cfg.Redis.EmbeddingTTLSeconds)
		questionEmbedder = app.NewCachedEmbedder(embedder, cache.NewEmbeddingCache(a.Redis, namespace, ttl), logger.Component(log, "embedding_cache"), m)
	}

	finalizerOpts := []app.FinalizerOption{app.WithAtomicPersistence(cfg.Persistence.Atomic)}
	if a.MQConn != nil {
		finalizerOpts = append(finalizerOpts, app.WithEventPublisher(rabbitmqClient.NewAnswerEventPublisher(a.MQConn, cfg.RabbitMQ.AnswerEventQueue)))
	}
	finalizer := app.NewFinalizer(a.AnswerRepo, logger.Component(log, "finalizer"), finalizerOpts...)

	timeouts := app.Timeouts{
		Moderation:  seconds(cfg.Timeouts.ModerationSeconds),
		Embedding:   seconds(cfg.Timeouts.EmbeddingSeconds),
		Search:      seconds(cfg.Timeouts.SearchSeconds),
		Completion:  seconds(cfg.Timeouts.CompletionSeconds),
		Persistence: seconds(cfg.Timeouts.PersistenceSeconds),
	}
	retrieval := app.RetrievalSettings{
		Threshold:        cfg.Retrieval.SimilarityThreshold,
		MatchCount:       cfg.Retrieval.MatchCount,
		MaxContextTokens: cfg.Retrieval.MaxContextTokens,
	}
	completion := app.CompletionSettings{MaxTokens: cfg.LLM.MaxTokens, Temperature: cfg.LLM.Temperature}

	a.Answers = app.NewAnswerService(llm, questionEmbedder, sections, llm, tokenizer, finalizer, app.AnswerServiceConfig{
		Prompt:               promptTemplate(cfg.Prompt),
		Retrieval:            retrieval,
		Completion:           completion,
		Timeouts:             timeouts,
		FinalizeOnDisconnect: cfg.Relay.FinalizeOnDisconnect,
	}, logger.Component(log, "answer"), m)

	a.Descriptions = app.NewDescriptionService(llm, questionEmbedder, sections, llm, tokenizer, descriptions, app.DescriptionServiceConfig{
		Prompt:         promptTemplate(cfg.DescriptionPrompt),
		EmbeddingInput: cfg.DescriptionPrompt.EmbeddingInput,
		Retrieval:      retrieval,
		Completion:     completion,
		Timeouts:       timeouts,
	}, logger.Component(log, "description"), m)

	a.Ingest = app.NewIngestService(sections, embedder, tokenizer, logger.Component(log, "ingest"))

	if opts.StartWorkers && a.MQConn != nil {
		a.AnswerWorker = worker.NewAnswerEventWorker(a.MQConn, a.PageStats, cfg.RabbitMQ.AnswerEventQueue, logger.Component(log, "answer_worker"), m)
		if err := a.AnswerWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start answer worker failed: %w", err)
		}
	}

	return a, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.AnswerWorker != nil {
		a.AnswerWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

func promptTemplate(p config.PromptConfig) app.PromptTemplate {
	return app.PromptTemplate{
		Instruction:   p.Instruction,
		ContextLabel:  p.ContextLabel,
		QuestionLabel: p.QuestionLabel,
		Closing:       p.Closing,
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
