package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"finrag/internal/config"
	"finrag/internal/embedding"
	"finrag/internal/llmservice"
	"finrag/internal/models"
)

// Store is the vector index contract both backends satisfy. One index
// is live at a time; Add and Reset never run concurrently with Search.
type Store interface {
	Add(ctx context.Context, chunks []models.ChunkEmbedding) error
	Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// ChatModel is the slice of the LLM client the pipeline needs.
type ChatModel interface {
	Generate(ctx context.Context, messages []llms.MessageContent) (string, error)
	Stream(ctx context.Context, messages []llms.MessageContent) *llmservice.Stream
}

// Answer carries everything a consumer needs to render one reply.
type Answer struct {
	Question  string // the standalone (possibly reformulated) question
	Stream    *llmservice.Stream
	Chunks    []models.ScoredChunk // full retrieved list, per-chunk order
	Citations []models.Citation    // deduplicated answer-level list
}

// RAG wires retrieval and generation over one live index.
type RAG struct {
	store    Store
	embedder embedding.Embedder
	llm      ChatModel
	cfg      *config.RAGConfig
}

func New(store Store, embedder embedding.Embedder, llm ChatModel, cfg *config.RAGConfig) *RAG {
	return &RAG{store: store, embedder: embedder, llm: llm, cfg: cfg}
}

// Reformulate rewrites a follow-up question into a standalone one using
// the chat history. With no history there is nothing to resolve, so the
// question passes through without a backend call. The model may echo
// the input verbatim; that is a valid outcome. A backend failure also
// degrades to the original question: the failure mode is "no
// reformulation", never "wrong answer".
func (r *RAG) Reformulate(ctx context.Context, history []models.ChatTurn, question string) string {
	if len(history) == 0 {
		return question
	}
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, models.ContextualizePrompt))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	standalone, err := r.llm.Generate(ctx, messages)
	if err != nil {
		log.Warn().Err(err).Msg("reformulation failed, using the question as asked")
		return question
	}
	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return question
	}
	return standalone
}

// Retrieve embeds the query and searches the index. In mmr mode a
// larger candidate pool of fetch_k is re-ranked for diversity.
func (r *RAG) Retrieve(ctx context.Context, query string) ([]models.ScoredChunk, error) {
	vec, err := embedding.EmbedQuery(ctx, r.embedder, query)
	if err != nil {
		return nil, err
	}
	if r.cfg.SearchMode != "mmr" {
		results, err := r.store.Search(ctx, vec, r.cfg.TopK)
		if err != nil {
			return nil, models.RetrievalError(err)
		}
		return results, nil
	}
	candidates, err := r.store.Search(ctx, vec, r.cfg.FetchK)
	if err != nil {
		return nil, models.RetrievalError(err)
	}
	return MMR(candidates, r.cfg.TopK, r.cfg.Lambda), nil
}

// Ask runs the full question cycle: reformulate against the history,
// retrieve with the standalone query, then stream a grounded answer.
// The generation prompt sees the original question plus the history;
// only retrieval uses the reformulation.
func (r *RAG) Ask(ctx context.Context, history []models.ChatTurn, question string) (*Answer, error) {
	standalone := r.Reformulate(ctx, history, question)
	if standalone != question {
		log.Debug().Str("standalone", standalone).Msg("reformulated question")
	}

	chunks, err := r.Retrieve(ctx, standalone)
	if err != nil {
		return nil, err
	}

	system := fmt.Sprintf(models.AnalystSystemPrompt, FormatContext(chunks))
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	return &Answer{
		Question:  standalone,
		Stream:    r.llm.Stream(ctx, messages),
		Chunks:    chunks,
		Citations: Citations(chunks, true),
	}, nil
}

// FormatContext renders retrieved chunks for the generation prompt,
// one "[Page N]" block per chunk.
func FormatContext(chunks []models.ScoredChunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		page := "?"
		if c.PageNumber > 0 {
			page = strconv.Itoa(c.PageNumber)
		}
		blocks[i] = fmt.Sprintf("[Page %s]\n%s", page, c.Content)
	}
	return strings.Join(blocks, models.ContextSeparator)
}

// Citations maps retrieved chunks to user-facing citations. With dedupe
// set, chunks from the same source page collapse into one entry; the
// full per-chunk list needs dedupe off.
func Citations(chunks []models.ScoredChunk, dedupe bool) []models.Citation {
	seen := make(map[string]bool, len(chunks))
	var out []models.Citation
	for _, c := range chunks {
		if dedupe {
			key := c.SourceID + "#" + strconv.Itoa(c.PageNumber)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		page := models.UnknownPage
		if c.PageNumber > 0 {
			page = strconv.Itoa(c.PageNumber)
		}
		out = append(out, models.Citation{
			Index:   len(out) + 1,
			Page:    page,
			Excerpt: excerpt(c.Content, models.ExcerptRunes),
		})
	}
	return out
}

func excerpt(text string, maxRunes int) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) <= maxRunes {
		return string(r)
	}
	return string(r[:maxRunes])
}

func historyMessages(history []models.ChatTurn) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(history))
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(role, turn.Content))
	}
	return out
}
