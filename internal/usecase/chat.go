package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/adapter/llm"
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// MinAPIKeyLength is the shortest trimmed key accepted before calling the
// model provider.
const MinAPIKeyLength = 10

// ChatUseCase answers a question about caller-supplied documents.
type ChatUseCase struct {
	retrieve     *RetrieveUseCase
	generators   port.GeneratorFactory
	fallbackKey  string
	instructions string
	timeout      time.Duration
	logger       zerolog.Logger
	metrics      port.Metrics
	tokenizer    *analyzer.Tokenizer
}

type ChatOption func(*ChatUseCase)

// WithFallbackAPIKey sets the key used when a request carries none.
func WithFallbackAPIKey(key string) ChatOption {
	return func(u *ChatUseCase) {
		u.fallbackKey = key
	}
}

func WithInstructions(instructions string) ChatOption {
	return func(u *ChatUseCase) {
		u.instructions = instructions
	}
}

// WithTimeout bounds each generator call.
func WithTimeout(d time.Duration) ChatOption {
	return func(u *ChatUseCase) {
		u.timeout = d
	}
}

func WithLogger(logger zerolog.Logger) ChatOption {
	return func(u *ChatUseCase) {
		u.logger = logger
	}
}

func WithMetrics(m port.Metrics) ChatOption {
	return func(u *ChatUseCase) {
		if m != nil {
			u.metrics = m
		}
	}
}

func NewChatUseCase(retrieve *RetrieveUseCase, generators port.GeneratorFactory, opts ...ChatOption) *ChatUseCase {
	u := &ChatUseCase{
		retrieve:     retrieve,
		generators:   generators,
		instructions: SystemInstructions,
		logger:       zerolog.Nop(),
		metrics:      nopMetrics{},
		tokenizer:    analyzer.NewTokenizer(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Chat retrieves context for the message, asks the model and returns its
// answer. Failures are always *ChatError.
func (u *ChatUseCase) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = u.fallbackKey
	}

	u.logger.Info().
		Int("query_length", utf8.RuneCountInString(req.Message)).
		Int("documents", len(req.Documents)).
		Bool("has_api_key", apiKey != "").
		Msg("processing chat request")

	if apiKey == "" {
		u.logger.Warn().Msg("no api key provided")
		return domain.ChatResponse{}, &ChatError{
			Kind:    KindMissingAPIKey,
			Status:  http.StatusBadRequest,
			Message: MsgMissingAPIKey,
		}
	}

	apiKey = strings.TrimSpace(apiKey)
	if utf8.RuneCountInString(apiKey) < MinAPIKeyLength {
		u.logger.Warn().Msg("invalid api key format")
		return domain.ChatResponse{}, &ChatError{
			Kind:    KindMalformedAPIKey,
			Status:  http.StatusBadRequest,
			Message: MsgMalformedAPIKey,
		}
	}

	documentsSent := len(req.Documents) > 0

	var result domain.RetrievalResult
	if documentsSent {
		result = u.retrieve.Retrieve(ctx, domain.RetrievalRequest{
			Query:     req.Message,
			Documents: req.Documents,
			TopK:      req.TopK,
		})
	}

	prompt := BuildPrompt(u.instructions, result, documentsSent, req.Message)

	generator, err := u.generators(apiKey)
	if err != nil {
		return domain.ChatResponse{}, InternalError(err)
	}

	u.logger.Debug().
		Int("prompt_length", utf8.RuneCountInString(prompt)).
		Int("prompt_tokens", u.tokenizer.CountTokens(prompt)).
		Str("model", generator.ModelName()).
		Msg("calling generator")

	answer, err := u.generate(ctx, generator, prompt)
	if err != nil {
		return domain.ChatResponse{}, u.classify(err)
	}

	contextNote := domain.ContextNotUsed
	if result.UsedContext {
		contextNote = domain.ContextUsed
	}

	return domain.ChatResponse{
		Response:      answer,
		Context:       contextNote,
		DocumentsUsed: len(req.Documents),
	}, nil
}

// generate calls the model. An empty answer is replaced by the fallback
// message and is not an error.
func (u *ChatUseCase) generate(ctx context.Context, generator port.Generator, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "generate")
	defer span.End()
	span.SetAttributes(attribute.String("model", generator.ModelName()))

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := generator.Generate(ctx, prompt)
	outcome := "ok"

	switch {
	case errors.Is(err, llm.ErrEmptyResponse):
		outcome = KindUpstreamMalformed
		u.logger.Warn().Msg("generator returned no content")
		answer, err = MsgFallbackAnswer, nil
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		outcome = llm.Kind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case strings.TrimSpace(answer) == "":
		outcome = KindUpstreamMalformed
		answer = MsgFallbackAnswer
	}

	u.metrics.ObserveGeneration(generator.ModelName(), outcome, time.Since(start))
	return answer, err
}

func (u *ChatUseCase) classify(err error) *ChatError {
	if errors.Is(err, context.DeadlineExceeded) {
		u.logger.Error().Err(err).Msg("generator timed out")
		return &ChatError{
			Kind:    KindUpstreamHTTP,
			Status:  http.StatusGatewayTimeout,
			Message: MsgUpstreamFailed,
			Err:     err,
		}
	}

	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		u.logger.Error().
			Str("provider", statusErr.Provider).
			Int("status", statusErr.StatusCode).
			Str("error", statusErr.Message).
			Msg("generator request failed")

		status := statusErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return &ChatError{
			Kind:    KindUpstreamHTTP,
			Status:  status,
			Message: upstreamMessage(statusErr.StatusCode, statusErr.Message),
			Err:     err,
		}
	}

	u.logger.Error().Err(err).Msg("chat request failed")
	return InternalError(err)
}
