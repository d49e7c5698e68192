package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wegiclabs/contentpipe/db"
	"github.com/wegiclabs/contentpipe/internal/agent"
	"github.com/wegiclabs/contentpipe/internal/config"
	"github.com/wegiclabs/contentpipe/internal/knowledge"
	"github.com/wegiclabs/contentpipe/internal/retrieve"
)

// app holds the wired components a command needs. Commands call the
// setup helpers for only the subsystems they use: crawl needs neither
// the database nor the model.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	pool     *pgxpool.Pool
	genkit   *genkit.Genkit
	embedder *knowledge.Embedder
	index    *knowledge.Index
}

// newApp loads configuration and builds the logger.
func newApp() (*app, error) {
	logger := newLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// connectDB opens the connection pool, runs migrations, and builds the
// vector index.
func (a *app) connectDB(ctx context.Context) error {
	if err := db.Migrate(a.cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := knowledge.NewPool(ctx, a.cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	a.pool = pool
	a.index = knowledge.NewIndex(knowledge.NewPGQuerier(pool), a.logger)
	return nil
}

// initAI initializes Genkit with the Google AI plugin and builds the
// embedder. GEMINI_API_KEY must be set; the plugin reads it directly.
func (a *app) initAI(ctx context.Context) error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set (export GEMINI_API_KEY=your-api-key)")
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	a.genkit = g
	a.embedder = knowledge.NewEmbedder(
		googlegenai.GoogleAIEmbedder(g, a.cfg.EmbedderModel),
		knowledge.DefaultEmbedTimeout,
		a.logger,
	)
	return nil
}

// newRetriever builds a retriever over the configured index. Requires
// connectDB and initAI.
func (a *app) newRetriever() (*retrieve.Retriever, error) {
	return retrieve.New(a.embedder, a.index, a.cfg.IndexName, a.logger)
}

// newGenerator builds the content generator with the knowledge search
// tool attached. Requires connectDB and initAI.
func (a *app) newGenerator() (*agent.Generator, error) {
	retriever, err := a.newRetriever()
	if err != nil {
		return nil, err
	}
	tool := retrieve.RegisterTool(a.genkit, retriever)

	return agent.New(a.genkit, agent.Config{
		ModelName: a.cfg.FullModelName(),
	}, []ai.Tool{tool}, a.logger)
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
