package index

import (
	"context"
	"fmt"

	"github.com/nlpforge/raglab/internal/chunker"
	"github.com/nlpforge/raglab/internal/embedding"
	"github.com/nlpforge/raglab/internal/llm"
	"github.com/nlpforge/raglab/internal/logging"
)

// Source is one retrieved chunk backing a query response.
type Source struct {
	Text  string
	Score float64
}

// Response is the result of one query: a synthesized answer (empty when
// answer synthesis is disabled) plus the retrieved sources in rank order.
type Response struct {
	Answer  string
	Sources []Source
}

// AvgSimilarity is the arithmetic mean of source scores, 0.0 when no
// sources were returned.
func (r *Response) AvgSimilarity() float64 {
	if len(r.Sources) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range r.Sources {
		sum += s.Score
	}
	return sum / float64(len(r.Sources))
}

// QueryEngine embeds a question, retrieves top-k chunks, and optionally
// synthesizes an answer with an LLM.
type QueryEngine struct {
	index      VectorIndex
	embedder   embedding.Embedder
	llm        *llm.Client // nil disables answer synthesis
	topK       int
	replaceKey string // metadata key substituted for retrieved text
	log        *logging.Logger
}

// NewQueryEngine creates a query engine. llmClient may be nil: queries
// then return retrieval results with an empty answer.
func NewQueryEngine(idx VectorIndex, embedder embedding.Embedder, llmClient *llm.Client, topK int, log *logging.Logger) *QueryEngine {
	if log == nil {
		log = logging.NewLogger("query")
	}
	return &QueryEngine{
		index:    idx,
		embedder: embedder,
		llm:      llmClient,
		topK:     topK,
		log:      log,
	}
}

// WithMetadataReplacement makes retrieval substitute the given metadata
// key for the matched text when present. Used with sentence-window
// nodes: the single sentence is matched, the window is returned.
func (e *QueryEngine) WithMetadataReplacement(key string) *QueryEngine {
	e.replaceKey = key
	return e
}

// Query runs one retrieval round for the question.
func (e *QueryEngine) Query(ctx context.Context, question string) (*Response, error) {
	vector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := e.index.Search(ctx, vector, e.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	sources := make([]Source, 0, len(hits))
	contexts := make([]string, 0, len(hits))
	for _, hit := range hits {
		text := hit.Text
		if e.replaceKey != "" {
			if window, ok := hit.Metadata[e.replaceKey].(string); ok && window != "" {
				text = window
			}
		}
		sources = append(sources, Source{Text: text, Score: hit.Score})
		contexts = append(contexts, text)
	}

	answer := ""
	if e.llm != nil {
		answer, err = e.llm.Answer(ctx, question, contexts)
		if err != nil {
			// Retrieval already succeeded; a failed synthesis call is
			// logged and the response carries sources only.
			e.log.Warn("answer synthesis failed", "error", err)
			answer = ""
		}
	} else {
		e.log.Debug("answer synthesis disabled, returning sources only")
	}

	return &Response{Answer: answer, Sources: sources}, nil
}

// IndexNodes embeds chunk nodes in order and inserts them into idx.
func IndexNodes(ctx context.Context, idx VectorIndex, embedder embedding.Embedder, nodes []chunker.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	texts := make([]string, len(nodes))
	for i, node := range nodes {
		texts[i] = node.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %d chunks: %w", len(nodes), err)
	}

	entries := make([]Entry, len(nodes))
	for i, node := range nodes {
		entries[i] = Entry{
			ID:       node.ID,
			Text:     node.Text,
			Vector:   vectors[i],
			Metadata: node.Metadata,
		}
	}

	return idx.Insert(ctx, entries)
}
