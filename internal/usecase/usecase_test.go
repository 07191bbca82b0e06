package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/adapter/llm"
	"ragchat/internal/adapter/llm/mock"
	"ragchat/internal/adapter/retriever"
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

const testKey = "test-api-key-123"

type recordingMetrics struct {
	mu          sync.Mutex
	retrievals  int
	generations []string
}

func (m *recordingMetrics) ObserveRetrieval(time.Duration, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrievals++
}

func (m *recordingMetrics) ObserveGeneration(_ string, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations = append(m.generations, outcome)
}

func newRetrieveUseCase(metrics port.Metrics) *RetrieveUseCase {
	return NewRetrieveUseCase(retriever.NewKeywordRetriever(analyzer.NewTokenizer()), retriever.DefaultTopK, metrics)
}

func factoryFor(g port.Generator) port.GeneratorFactory {
	return func(string) (port.Generator, error) {
		return g, nil
	}
}

func sampleDocs() []domain.Document {
	return []domain.Document{
		{Name: "go.md", Content: "Go is an open source programming language that makes it simple to build secure, scalable systems."},
		{Name: "bread.md", Content: "Sourdough bread needs a starter, flour, water and salt, plus a lot of patience on the weekend."},
	}
}

func TestRetrieveUseCaseJoinsChunks(t *testing.T) {
	metrics := &recordingMetrics{}
	u := newRetrieveUseCase(metrics)

	result := u.Retrieve(context.Background(), domain.RetrievalRequest{
		Query:     "programming language",
		Documents: sampleDocs(),
	})

	if !result.UsedContext {
		t.Fatal("expected context to be used")
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(result.Chunks))
	}
	if !strings.HasPrefix(result.FormattedContext, "[From: go.md]\n") {
		t.Errorf("expected go.md first, got %q", result.FormattedContext)
	}
	if strings.Count(result.FormattedContext, ContextSeparator) != 1 {
		t.Errorf("expected chunks to be joined by the separator, got %q", result.FormattedContext)
	}
	if metrics.retrievals != 1 {
		t.Errorf("expected one retrieval observation, got %d", metrics.retrievals)
	}
}

func TestRetrieveUseCaseNoDocuments(t *testing.T) {
	u := newRetrieveUseCase(nil)

	result := u.Retrieve(context.Background(), domain.RetrievalRequest{Query: "anything"})
	if result.UsedContext {
		t.Error("expected no context without documents")
	}
	if result.FormattedContext != "" {
		t.Errorf("expected empty context, got %q", result.FormattedContext)
	}
	if result.Chunks == nil {
		t.Error("expected a non-nil chunk slice")
	}
}

func TestRetrieveUseCaseTopK(t *testing.T) {
	u := newRetrieveUseCase(nil)

	result := u.Retrieve(context.Background(), domain.RetrievalRequest{
		Query:     "go",
		Documents: sampleDocs(),
		TopK:      1,
	})
	if len(result.Chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(result.Chunks))
	}
}

func TestRetrieveUseCaseDefaultTopK(t *testing.T) {
	u := NewRetrieveUseCase(retriever.NewKeywordRetriever(analyzer.NewTokenizer()), 1, nil)

	for _, k := range []int{0, -2} {
		result := u.Retrieve(context.Background(), domain.RetrievalRequest{
			Query:     "go",
			Documents: sampleDocs(),
			TopK:      k,
		})
		if len(result.Chunks) != 1 {
			t.Errorf("topK=%d: expected the default of 1 chunk, got %d", k, len(result.Chunks))
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	withContext := domain.RetrievalResult{
		FormattedContext: "[From: a]\nchunk",
		UsedContext:      true,
	}

	cases := []struct {
		name          string
		result        domain.RetrievalResult
		documentsSent bool
		want          string
	}{
		{
			name:          "context",
			result:        withContext,
			documentsSent: true,
			want: "SYS\n\nUse the following context from the uploaded documents to answer the user's question:" +
				"\nRelevant context from documents:\n\n[From: a]\nchunk\n\nUser question: Q?",
		},
		{
			name:          "documents_without_matches",
			documentsSent: true,
			want:          "SYS\n\nNote: No highly relevant content was found in the uploaded documents for this query.\n\nUser question: Q?",
		},
		{
			name: "no_documents",
			want: "SYS\n\nUser question: Q?",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildPrompt("SYS", tc.result, tc.documentsSent, "Q?"); got != tc.want {
				t.Errorf("BuildPrompt =\n%q\nwant\n%q", got, tc.want)
			}
		})
	}
}

func TestChatMissingAPIKey(t *testing.T) {
	u := NewChatUseCase(newRetrieveUseCase(nil), factoryFor(mock.NewGenerator()))

	_, err := u.Chat(context.Background(), domain.ChatRequest{Message: "hi"})

	var chatErr *ChatError
	if !errors.As(err, &chatErr) {
		t.Fatalf("expected ChatError, got %v", err)
	}
	if chatErr.Kind != KindMissingAPIKey || chatErr.Status != http.StatusBadRequest || chatErr.Message != MsgMissingAPIKey {
		t.Errorf("unexpected error %+v", chatErr)
	}
}

func TestChatMalformedAPIKey(t *testing.T) {
	u := NewChatUseCase(newRetrieveUseCase(nil), factoryFor(mock.NewGenerator()))

	for _, key := range []string{"short", "   abc   ", "         "} {
		_, err := u.Chat(context.Background(), domain.ChatRequest{Message: "hi", APIKey: key})

		var chatErr *ChatError
		if !errors.As(err, &chatErr) || chatErr.Kind != KindMalformedAPIKey {
			t.Errorf("key %q: expected malformed key error, got %v", key, err)
			continue
		}
		if chatErr.Message != MsgMalformedAPIKey {
			t.Errorf("unexpected message %q", chatErr.Message)
		}
	}
}

func TestChatFallbackAPIKey(t *testing.T) {
	var gotKey string
	factory := func(apiKey string) (port.Generator, error) {
		gotKey = apiKey
		return mock.NewGenerator(), nil
	}

	u := NewChatUseCase(newRetrieveUseCase(nil), factory, WithFallbackAPIKey("server-side-key-000"))

	if _, err := u.Chat(context.Background(), domain.ChatRequest{Message: "hi"}); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if gotKey != "server-side-key-000" {
		t.Errorf("expected fallback key, got %q", gotKey)
	}

	if _, err := u.Chat(context.Background(), domain.ChatRequest{Message: "hi", APIKey: "  caller-key-1234  "}); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if gotKey != "caller-key-1234" {
		t.Errorf("expected trimmed caller key to win, got %q", gotKey)
	}
}

func TestChatWithDocuments(t *testing.T) {
	gen := mock.NewGenerator()
	metrics := &recordingMetrics{}
	u := NewChatUseCase(newRetrieveUseCase(metrics), factoryFor(gen), WithMetrics(metrics))

	rsp, err := u.Chat(context.Background(), domain.ChatRequest{
		Message:   "What is Go?",
		Documents: sampleDocs(),
		APIKey:    testKey,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if rsp.Context != domain.ContextUsed {
		t.Errorf("expected %q, got %q", domain.ContextUsed, rsp.Context)
	}
	if rsp.DocumentsUsed != 2 {
		t.Errorf("expected documentsUsed 2, got %d", rsp.DocumentsUsed)
	}
	if !strings.Contains(rsp.Response, "What is Go?") {
		t.Errorf("unexpected response %q", rsp.Response)
	}

	prompts := gen.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(prompts))
	}
	if !strings.HasPrefix(prompts[0], SystemInstructions) {
		t.Error("expected prompt to start with the system instructions")
	}
	if !strings.Contains(prompts[0], "[From: go.md]") {
		t.Error("expected prompt to contain the retrieved chunk")
	}
	if !strings.HasSuffix(prompts[0], "\n\nUser question: What is Go?") {
		t.Error("expected prompt to end with the question")
	}
	if len(metrics.generations) != 1 || metrics.generations[0] != "ok" {
		t.Errorf("unexpected generation outcomes %v", metrics.generations)
	}
}

func TestChatDocumentsWithoutRelevantChunks(t *testing.T) {
	gen := mock.NewGenerator()
	u := NewChatUseCase(newRetrieveUseCase(nil), factoryFor(gen))

	rsp, err := u.Chat(context.Background(), domain.ChatRequest{
		Message:   "What is Go?",
		Documents: []domain.Document{{Name: "tiny.txt", Content: "tiny"}},
		APIKey:    testKey,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if rsp.Context != domain.ContextNotUsed {
		t.Errorf("expected %q, got %q", domain.ContextNotUsed, rsp.Context)
	}
	if rsp.DocumentsUsed != 1 {
		t.Errorf("expected documentsUsed 1, got %d", rsp.DocumentsUsed)
	}
	if !strings.Contains(gen.Prompts()[0], "No highly relevant content was found") {
		t.Error("expected the no-context note in the prompt")
	}
}

func TestChatWithoutDocuments(t *testing.T) {
	gen := mock.NewGenerator()
	u := NewChatUseCase(newRetrieveUseCase(nil), factoryFor(gen))

	rsp, err := u.Chat(context.Background(), domain.ChatRequest{Message: "Hello", APIKey: testKey})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if rsp.Context != domain.ContextNotUsed || rsp.DocumentsUsed != 0 {
		t.Errorf("unexpected response %+v", rsp)
	}
	if strings.Contains(gen.Prompts()[0], "Note:") {
		t.Error("expected no note when no documents were sent")
	}
}

func TestChatEmptyAnswerFallsBack(t *testing.T) {
	metrics := &recordingMetrics{}
	u := NewChatUseCase(newRetrieveUseCase(nil), factoryFor(&mock.Generator{Err: llm.ErrEmptyResponse}), WithMetrics(metrics))

	rsp, err := u.Chat(context.Background(), domain.ChatRequest{Message: "Hello", APIKey: testKey})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if rsp.Response != MsgFallbackAnswer {
		t.Errorf("expected fallback answer, got %q", rsp.Response)
	}
	if len(metrics.generations) != 1 || metrics.generations[0] != KindUpstreamMalformed {
		t.Errorf("unexpected generation outcomes %v", metrics.generations)
	}
}

func TestChatUpstreamErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"bad_request", llm.NewStatusError("gemini", 400, "API key not valid"), 400,
			"API Error: API key not valid. Please check your API key and try again."},
		{"forbidden", llm.NewStatusError("gemini", 403, "denied"), 403, MsgInvalidAPIKey},
		{"rate_limited", llm.NewStatusError("gemini", 429, "quota"), 429, MsgRateLimited},
		{"server_error", llm.NewStatusError("gemini", 503, "overloaded"), 503, "overloaded"},
		{"server_error_without_message", llm.NewStatusError("gemini", 500, ""), 500, MsgUpstreamFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := NewChatUseCase(newRetrieveUseCase(nil), factoryFor(&mock.Generator{Err: tc.err}))

			_, err := u.Chat(context.Background(), domain.ChatRequest{Message: "hi", APIKey: testKey})

			var chatErr *ChatError
			if !errors.As(err, &chatErr) {
				t.Fatalf("expected ChatError, got %v", err)
			}
			if chatErr.Kind != KindUpstreamHTTP {
				t.Errorf("expected kind %s, got %s", KindUpstreamHTTP, chatErr.Kind)
			}
			if chatErr.Status != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, chatErr.Status)
			}
			if chatErr.Message != tc.wantMsg {
				t.Errorf("expected message %q, got %q", tc.wantMsg, chatErr.Message)
			}
		})
	}
}

func TestChatInternalErrors(t *testing.T) {
	boom := errors.New("connection reset")
	u := NewChatUseCase(newRetrieveUseCase(nil), factoryFor(&mock.Generator{Err: boom}))

	_, err := u.Chat(context.Background(), domain.ChatRequest{Message: "hi", APIKey: testKey})

	var chatErr *ChatError
	if !errors.As(err, &chatErr) {
		t.Fatalf("expected ChatError, got %v", err)
	}
	if chatErr.Status != http.StatusInternalServerError || chatErr.Details != DetailsInternal {
		t.Errorf("unexpected error %+v", chatErr)
	}
	if !errors.Is(err, boom) {
		t.Error("expected the cause to be preserved")
	}

	factoryErr := func(string) (port.Generator, error) { return nil, errors.New("unknown provider") }
	u = NewChatUseCase(newRetrieveUseCase(nil), factoryErr)
	if _, err := u.Chat(context.Background(), domain.ChatRequest{Message: "hi", APIKey: testKey}); !errors.As(err, &chatErr) || chatErr.Kind != KindInternal {
		t.Errorf("expected internal error for factory failure, got %v", err)
	}
}

type blockingGenerator struct{}

func (blockingGenerator) ModelName() string { return "blocking" }

func (blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestChatTimeout(t *testing.T) {
	u := NewChatUseCase(newRetrieveUseCase(nil), factoryFor(blockingGenerator{}), WithTimeout(20*time.Millisecond))

	_, err := u.Chat(context.Background(), domain.ChatRequest{Message: "hi", APIKey: testKey})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	var chatErr *ChatError
	if !errors.As(err, &chatErr) || chatErr.Status != http.StatusGatewayTimeout {
		t.Errorf("expected 504 ChatError, got %v", err)
	}
}
