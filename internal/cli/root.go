package cli

import (
	"context"

	"github.com/spf13/cobra"

	"finrag/internal/chromemdb"
	"finrag/internal/config"
	"finrag/internal/db"
	"finrag/internal/embedding"
	"finrag/internal/llmservice"
	"finrag/internal/rag"
	"finrag/internal/session"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "finrag",
	Short:         "Chat with an annual report using retrieval-augmented generation",
	Long:          "finrag indexes a financial report (10-K / annual report) and answers questions about it, grounded in the document and cited by page.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "./configs/config.yaml", "path to the yaml config file")
	rootCmd.AddCommand(chatCmd, ingestCmd, askCmd, resetCmd, configCmd)
}

// buildSession wires the configured store, embedder and chat backend
// into a session. Fails fast on a missing credential.
func buildSession(ctx context.Context) (*session.Session, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := embedding.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	llm, err := llmservice.New(&cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	return session.New(cfg, store, embedder, llm), cfg, nil
}

func newStore(ctx context.Context, cfg *config.Config) (rag.Store, error) {
	switch cfg.Store.Backend {
	case "pgvector":
		bunDB, err := db.Connect(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return db.NewStore(ctx, bunDB, cfg.Database.VectorSize)
	default:
		return chromemdb.NewStore(cfg.Store.Path, cfg.Store.Collection, cfg.Store.InMemory)
	}
}
