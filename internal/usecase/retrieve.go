package usecase

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// ContextSeparator joins retrieved chunks in the generator prompt.
const ContextSeparator = "\n\n---\n\n"

var tracer = otel.Tracer("ragchat/usecase")

// RetrieveUseCase turns a retrieval request into the context handed to the
// answer generator.
type RetrieveUseCase struct {
	retriever   port.Retriever
	defaultTopK int
	metrics     port.Metrics
}

// NewRetrieveUseCase creates a new retrieve use case. A request without a
// positive topK uses defaultTopK.
func NewRetrieveUseCase(retriever port.Retriever, defaultTopK int, metrics port.Metrics) *RetrieveUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &RetrieveUseCase{
		retriever:   retriever,
		defaultTopK: defaultTopK,
		metrics:     metrics,
	}
}

// Retrieve selects the relevant chunks and joins them into a single context
// string. It never fails.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, req domain.RetrievalRequest) domain.RetrievalResult {
	_, span := tracer.Start(ctx, "retrieve")
	defer span.End()

	topK := req.TopK
	if topK <= 0 {
		topK = u.defaultTopK
	}

	start := time.Now()
	chunks := u.retriever.Retrieve(req.Query, req.Documents, topK)
	u.metrics.ObserveRetrieval(time.Since(start), len(req.Documents), len(chunks))

	span.SetAttributes(
		attribute.Int("documents", len(req.Documents)),
		attribute.Int("top_k", topK),
		attribute.Int("chunks", len(chunks)),
	)

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}

	if chunks == nil {
		chunks = []domain.ScoredChunk{}
	}

	return domain.RetrievalResult{
		FormattedContext: strings.Join(texts, ContextSeparator),
		UsedContext:      len(chunks) > 0,
		Chunks:           chunks,
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveRetrieval(time.Duration, int, int) {}

func (nopMetrics) ObserveGeneration(string, string, time.Duration) {}
