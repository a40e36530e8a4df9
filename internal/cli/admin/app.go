package admin

import (
	"context"
	"fmt"

	"github.com/descubra-ms/guata/internal/api/handlers"
	"github.com/descubra-ms/guata/internal/cache"
	"github.com/descubra-ms/guata/internal/config"
	"github.com/descubra-ms/guata/internal/database"
	"github.com/descubra-ms/guata/internal/gemini"
	"github.com/descubra-ms/guata/internal/httpx"
	"github.com/descubra-ms/guata/internal/jobs"
	"github.com/descubra-ms/guata/internal/knowledge"
	"github.com/descubra-ms/guata/internal/openai"
	"github.com/descubra-ms/guata/internal/rag"
	"github.com/descubra-ms/guata/internal/realtime"
	"github.com/descubra-ms/guata/internal/repository"
	"github.com/descubra-ms/guata/internal/service"
	"github.com/descubra-ms/guata/internal/storage"
	"github.com/descubra-ms/guata/internal/websearch"
	"go.uber.org/zap"
)

// App holds the wired pipeline shared by serve and the one-shot commands.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Index      *knowledge.Index
	Classifier *realtime.Classifier
	Resolver   *service.Resolver

	// Turns and Recorder are nil without a database.
	Turns    *repository.ConversationRepository
	Recorder *jobs.TurnRecorder

	closers []func()
}

// BuildOptions selects the optional parts of the wiring.
type BuildOptions struct {
	// Store connects the conversation store when a database is configured.
	Store bool
	// Migrate applies migrations before the store is used.
	Migrate bool
}

// BuildApp wires every pipeline component from cfg.
func BuildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts BuildOptions) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	index, err := loadKnowledge(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Index = index
	app.Classifier = realtime.NewClassifier(nil)

	generator, err := newGenerator(ctx, cfg, logger, app)
	if err != nil {
		app.Close()
		return nil, err
	}

	ragHTTP := httpx.New(httpx.Options{
		Timeout: cfg.RAGTimeout,
		Headers: httpx.BearerHeaders(cfg.RAGAPIKey),
	})
	searchHTTP := httpx.New(httpx.Options{
		Timeout: cfg.SearchTimeout,
		Headers: httpx.BearerHeaders(cfg.RAGAPIKey),
	})

	deps := service.ResolverDeps{
		Cache:      cache.NewResponseCache(cfg.CacheSize),
		Knowledge:  index,
		Classifier: app.Classifier,
		RAG: rag.NewClient(ragHTTP, rag.Config{
			URL:       cfg.RAGURL,
			StateCode: cfg.StateCode,
		}, logger),
		Search: websearch.NewProxy(searchHTTP, websearch.Config{
			URL:       cfg.EffectiveSearchURL(),
			StateCode: cfg.StateCode,
		}, logger),
		Synthesizer: service.NewSynthesizer(generator, cfg.LLMTimeout, logger),
	}

	if opts.Store && cfg.HasDatabase() {
		if err := app.connectStore(ctx, opts.Migrate); err != nil {
			app.Close()
			return nil, err
		}
		deps.Recorder = app.Recorder
	}

	app.Resolver = service.NewResolver(deps,
		service.WithResolveTimeout(cfg.ResolveTimeout),
		service.WithLogger(logger),
	)
	return app, nil
}

// TurnLister returns the conversation store, or an untyped nil without a
// database so the session handler answers 503.
func (a *App) TurnLister() handlers.TurnLister {
	if a.Turns == nil {
		return nil
	}
	return a.Turns
}

// Close releases the generator and database resources.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) connectStore(ctx context.Context, migrate bool) error {
	cfg := a.Config
	if migrate {
		if err := database.Migrate(cfg.DatabaseURL, database.DefaultMigrationsSource, a.Logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	a.Logger.Info("connected to database")

	a.Turns = repository.NewConversationRepository(pool)
	a.Recorder = jobs.NewTurnRecorder(a.Turns, cfg.RecordQueueSize, a.Logger)
	return nil
}

// loadKnowledge prefers the S3 object, then the local file, then the
// embedded default. A failing S3 fetch falls back to the embedded default.
func loadKnowledge(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*knowledge.Index, error) {
	src := knowledge.Source{File: cfg.KnowledgeFile}

	if cfg.KnowledgeS3Key != "" && cfg.HasS3() {
		store, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		src.ObjectKey = cfg.KnowledgeS3Key
		src.Store = store

		index, err := knowledge.Load(ctx, src)
		if err == nil {
			logger.Info("knowledge loaded from object storage",
				zap.String("bucket", cfg.S3Bucket),
				zap.String("key", cfg.KnowledgeS3Key),
				zap.Int("entries", index.Len()))
			return index, nil
		}
		logger.Warn("knowledge object unavailable, using embedded default", zap.Error(err))
		return knowledge.Load(ctx, knowledge.Source{})
	}

	index, err := knowledge.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge: %w", err)
	}
	logger.Info("knowledge loaded", zap.String("file", cfg.KnowledgeFile), zap.Int("entries", index.Len()))
	return index, nil
}

func newS3Client(ctx context.Context, cfg *config.Config) (*storage.S3Client, error) {
	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return client, nil
}

// newGenerator returns nil when the selected provider has no credentials;
// the synthesizer then always uses the deterministic fallback.
func newGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger, app *App) (service.Generator, error) {
	if !cfg.HasGenerator() {
		logger.Warn("no generation backend configured, answers will use the fallback", zap.String("provider", cfg.LLMProvider))
		return nil, nil
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		logger.Info("generation backend", zap.String("provider", cfg.LLMProvider), zap.String("model", cfg.OpenAIModel))
		return openai.NewClientWithConfig(openai.Config{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.LLMTemperature,
		}), nil
	default:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.LLMTemperature,
		})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		logger.Info("generation backend", zap.String("provider", cfg.LLMProvider), zap.String("model", cfg.GeminiModel))
		return client, nil
	}
}
