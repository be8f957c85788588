package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/observability"
	"HeatwaveScanner/internal/ports"
)

const contextSeparator = "\n\n****\n\n"

// QueryDeps wires retrieval and generation into the question flow.
type QueryDeps struct {
	Embedder ports.Embedder
	Index    ports.VectorIndex
	Chat     ports.ChatModel
	TopK     int
	MinScore float64
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Clock    clockwork.Clock
}

// Query answers questions about archived discussions via retrieval
// augmented generation, keeping an in-memory history of past answers.
type Query struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	chat     ports.ChatModel
	topK     int
	minScore float64
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	mu      sync.Mutex
	history strings.Builder
}

// Answer carries the generated response together with its sources.
type Answer struct {
	Text      string
	Sources   []domain.ScoredChunk
	Prompt    string
	NoContext bool
}

// NewQuery constructs the question use case.
func NewQuery(deps QueryDeps) *Query {
	topK := deps.TopK
	if topK <= 0 {
		topK = 3
	}
	minScore := deps.MinScore
	if minScore <= 0 {
		minScore = 0.7
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Query{
		embedder: deps.Embedder,
		index:    deps.Index,
		chat:     deps.Chat,
		topK:     topK,
		minScore: minScore,
		logger:   logger,
		metrics:  deps.Metrics,
		clock:    clock,
	}
}

// Ask embeds the question, retrieves the most relevant chunks, and asks
// the chat model. Questions with no chunk above the relevance cutoff skip
// the model entirely.
func (q *Query) Ask(ctx context.Context, question string) (Answer, error) {
	if q.metrics != nil {
		q.metrics.Queries.Inc()
	}

	retrievalStart := time.Now()
	embedding, err := q.embedder.Embed(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("embed question: %w", err)
	}

	scored, err := q.index.Search(ctx, embedding, q.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("search index: %w", err)
	}
	if q.metrics != nil {
		q.metrics.RetrievalDuration.Observe(time.Since(retrievalStart).Seconds())
	}

	relevant := scored[:0:0]
	for _, sc := range scored {
		if sc.Score >= q.minScore {
			relevant = append(relevant, sc)
		}
	}
	q.logger.Debug("retrieved chunks", "total", len(scored), "relevant", len(relevant))

	if len(relevant) == 0 {
		if q.metrics != nil {
			q.metrics.QueriesNoContext.Inc()
		}
		return Answer{NoContext: true}, nil
	}

	contexts := make([]string, len(relevant))
	for i, sc := range relevant {
		contexts[i] = sc.Chunk.Content
	}

	q.mu.Lock()
	prompt := renderPrompt(strings.Join(contexts, contextSeparator), question, q.history.String())
	q.mu.Unlock()

	response, err := q.chat.Generate(ctx, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	q.mu.Lock()
	q.history.WriteString(renderHistoryEntry(question, response, q.clock.Now()))
	q.mu.Unlock()

	return Answer{Text: response, Sources: relevant, Prompt: prompt}, nil
}

// renderPrompt combines retrieved context, cached history, and the question.
func renderPrompt(ragContext, question, history string) string {
	parts := []string{
		"You are a knowledgeable assistant.",
		"Use the following context and previous cached chat history to answer the question.",
		"----",
		"Context:",
		ragContext,
		"----",
		"Cached Chat History: " + history,
		"(If the chat history is empty, just ignore it)",
		"----",
		"Answer the question: " + question,
	}
	return strings.Join(parts, "\n\n") + "\n\n"
}

// renderHistoryEntry caches a query/answer pair with its timestamp.
func renderHistoryEntry(question, answer string, at time.Time) string {
	parts := []string{
		"The following is a previous user query and your answer at the following time: " + at.Format("2006-01-02 15:04:05") + ".",
		"User's previous query:",
		question,
		"Your previous answer:",
		answer,
	}
	return strings.Join(parts, "\n\n") + "\n\n"
}
