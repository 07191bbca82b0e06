package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"ragchat/config"
	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/adapter/chunker"
	"ragchat/internal/adapter/fs"
	"ragchat/internal/adapter/llm"
	"ragchat/internal/adapter/llm/provider"
	"ragchat/internal/adapter/retriever"
	"ragchat/internal/domain"
	"ragchat/internal/port"
	"ragchat/internal/usecase"
)

func newRetrieveUseCase(cfg *config.Config, metrics port.Metrics) *usecase.RetrieveUseCase {
	r := retriever.NewKeywordRetriever(
		analyzer.NewTokenizer(),
		retriever.WithChunker(chunker.NewTextChunker(cfg.Chunk.Size, cfg.Chunk.Overlap)),
		retriever.WithMinChunkLength(cfg.Retrieve.MinChunkLength),
		retriever.WithFilterBeforeTruncate(cfg.Retrieve.FilterBeforeTruncate),
	)
	return usecase.NewRetrieveUseCase(r, cfg.Retrieve.TopK, metrics)
}

func generatorOptions(g config.GeneratorConfig) []llm.Option {
	return []llm.Option{
		llm.WithModel(g.Model),
		llm.WithBaseURL(g.BaseURL),
		llm.WithTemperature(g.Temperature),
		llm.WithTopK(g.TopK),
		llm.WithTopP(g.TopP),
		llm.WithMaxOutputTokens(g.MaxOutputTokens),
	}
}

func newChatUseCase(ctx context.Context, cfg *config.Config, retrieve *usecase.RetrieveUseCase, metrics port.Metrics) *usecase.ChatUseCase {
	factory := provider.Factory(ctx, cfg.Generator.Provider, generatorOptions(cfg.Generator)...)

	return usecase.NewChatUseCase(retrieve, factory,
		usecase.WithFallbackAPIKey(cfg.Generator.APIKey()),
		usecase.WithTimeout(cfg.Generator.Timeout),
		usecase.WithLogger(logger),
		usecase.WithMetrics(metrics),
	)
}

// loadDocuments reads the files matched by patterns, or every document under
// the root directory when no pattern is given.
func loadDocuments(cfg *config.Config, root string, patterns []string, progress io.Writer) ([]domain.Document, error) {
	walker := fs.NewWalker(cfg.Documents.Includes, cfg.Documents.Excludes)

	var files []port.FileInfo
	var err error
	if len(patterns) > 0 {
		files, err = walker.Glob(patterns)
	} else {
		files, err = walker.Walk(root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}

	opts := []fs.LoaderOption{fs.WithMaxFileBytes(cfg.Documents.MaxFileBytes)}
	if progress != nil && len(files) > 1 {
		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("Loading documents"),
			progressbar.OptionClearOnFinish(),
		)
		opts = append(opts, fs.WithProgress(func(string) {
			_ = bar.Add(1)
		}))
	}

	var loader port.DocumentLoader = fs.NewLoader(opts...)
	docs, err := loader.Load(files)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	return docs, nil
}

func progressWriter(quiet bool) io.Writer {
	if quiet {
		return nil
	}
	return os.Stderr
}
