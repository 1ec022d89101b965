package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"exception-server/services/assistant-api/internal/config"
	"exception-server/services/assistant-api/internal/domain/assistant"
	"exception-server/services/assistant-api/internal/domain/compose"
	"exception-server/services/assistant-api/internal/domain/evidence"
	"exception-server/services/assistant-api/internal/domain/intent"
	"exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/domain/playbook"
	"exception-server/services/assistant-api/internal/domain/safety"
	"exception-server/services/assistant-api/internal/domain/similarcase"
	"exception-server/services/assistant-api/internal/infrastructure/database"
	"exception-server/services/assistant-api/internal/infrastructure/logger"
	"exception-server/services/assistant-api/internal/infrastructure/observability"
	casefilerepo "exception-server/services/assistant-api/internal/infrastructure/repository/casefile"
	knowledgerepo "exception-server/services/assistant-api/internal/infrastructure/repository/knowledge"
	playbookrepo "exception-server/services/assistant-api/internal/infrastructure/repository/playbook"
	sessionrepo "exception-server/services/assistant-api/internal/infrastructure/repository/session"
	"exception-server/services/assistant-api/internal/infrastructure/vectorstore"
	"exception-server/services/assistant-api/internal/interfaces/httpserver"
	"exception-server/services/assistant-api/internal/interfaces/httpserver/handlers"
)

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	sessionStore := sessionrepo.NewRepository(db)
	caseRepository := casefilerepo.NewRepository(db)
	playbookCatalog := playbookrepo.NewRepository(db)
	documentStore := knowledgerepo.NewRepository(db)

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize embedder")
	}

	index, loader, err := buildIndex(ctx, cfg, embedder, documentStore, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize vector index")
	}

	retriever := evidence.NewRetriever(embedder, index, evidence.Config{
		DefaultTopK: cfg.RetrievalTopK,
		Timeout:     cfg.RetrievalTimeout,
	}, log)
	finder := similarcase.NewFinder(retriever, caseRepository, log)
	recommender := playbook.NewRecommender(playbookCatalog, retriever, playbook.DefaultWeights(), log)
	composer := compose.NewComposer(log)
	evaluator := safety.NewEvaluator(log)

	assistantService := assistant.NewService(
		sessionStore,
		intent.NewClassifier(),
		retriever,
		finder,
		recommender,
		composer,
		evaluator,
		staticPolicies{terms: cfg.SafetyBlockedTerms},
		caseRepository,
		assistant.Config{
			TopK:       cfg.RetrievalTopK,
			SessionTTL: cfg.SessionTTL,
		},
		log,
	)

	handlerProvider := handlers.NewProvider(
		assistantService,
		sessionStore,
		documentStore,
		loader,
		cfg.SessionTTL,
		cfg.SessionTurnsLimit,
		log,
	)

	ready := func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}

	server := httpserver.New(cfg, log, handlerProvider, ready)
	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server exited")
	}
}

// staticPolicies applies the same blocked-term policy to every tenant.
type staticPolicies struct {
	terms []string
}

func (p staticPolicies) PolicyFor(_ context.Context, _ string) *safety.Policy {
	if len(p.terms) == 0 {
		return nil
	}
	return &safety.Policy{BlockedTerms: p.terms}
}

func buildEmbedder(cfg *config.Config) (knowledge.Embedder, error) {
	var inner knowledge.Embedder
	if cfg.EmbeddingAPIKey != "" {
		inner = vectorstore.NewOpenAIEmbedder(cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.EmbeddingTimeout)
	} else {
		inner = vectorstore.NewLocalEmbedder()
	}
	return vectorstore.NewCachedEmbedder(inner, cfg.EmbeddingCacheLen)
}

// buildIndex prefers the remote vector index when configured and otherwise
// rebuilds the in-memory store from the document table. With a remote index
// the documents are ingested out of band, so the indexer is a no-op.
func buildIndex(ctx context.Context, cfg *config.Config, embedder knowledge.Embedder, documents *knowledgerepo.Repository, log zerolog.Logger) (knowledge.DocumentIndex, handlers.DocumentIndexer, error) {
	if remote := vectorstore.NewRemoteIndex(cfg.VectorIndexURL, cfg.VectorIndexTimeout); remote != nil {
		log.Info().Str("url", cfg.VectorIndexURL).Msg("using remote vector index")
		return remote, noopIndexer{}, nil
	}

	store := vectorstore.NewMemoryStore()
	loader := vectorstore.NewLoader(store, embedder, documents, log)
	if err := loader.Reload(ctx); err != nil {
		return nil, nil, fmt.Errorf("rebuild vector index: %w", err)
	}
	return store, loader, nil
}

// noopIndexer stands in when a remote index ingests documents out of band.
type noopIndexer struct{}

func (noopIndexer) Index(_ context.Context, _ knowledge.Document) error { return nil }

func loadEnvFiles() {
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Overload(file)
		}
	}
}
