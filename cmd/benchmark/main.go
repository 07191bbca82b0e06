package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"ragchat/config"
	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/adapter/chunker"
	"ragchat/internal/adapter/fs"
	"ragchat/internal/adapter/retriever"
	"ragchat/internal/domain"
	"ragchat/internal/usecase"
)

var vocabulary = strings.Fields(`retrieval augmented generation splits documents into overlapping chunks
and ranks them by keyword overlap before asking a hosted model for an answer. distributed systems
need careful observability while sourdough bread needs patience. portfolio notes describe projects
built with go services kubernetes and small command line tools.`)

func main() {
	dir := flag.String("dir", "", "load real documents from this directory instead of generating them")
	numDocs := flag.Int("docs", 20, "number of synthetic documents")
	docSize := flag.Int("size", 50000, "characters per synthetic document")
	query := flag.String("q", "distributed systems", "query to time")
	topK := flag.Int("k", 3, "number of results")
	runs := flag.Int("runs", 20, "timed runs")
	seed := flag.Int64("seed", 1, "random seed for synthetic documents")
	flag.Parse()

	if *runs < 1 {
		*runs = 1
	}

	docs, err := loadCorpus(*dir, *numDocs, *docSize, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading documents: %v\n", err)
		os.Exit(1)
	}

	totalChars, totalChunks := 0, 0
	c := chunker.NewDefaultTextChunker()
	for _, d := range docs {
		totalChars += len(d.Content)
		totalChunks += len(c.Split(d.Content))
	}

	retrieve := usecase.NewRetrieveUseCase(retriever.NewKeywordRetriever(analyzer.NewTokenizer()), retriever.DefaultTopK, nil)
	req := domain.RetrievalRequest{Query: *query, Documents: docs, TopK: *topK}

	fmt.Println("KEYWORD RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents:  %d\n", len(docs))
	fmt.Printf("Characters: %d\n", totalChars)
	fmt.Printf("Chunks:     %d\n", totalChunks)
	fmt.Printf("Query:      %q (top %d)\n", *query, *topK)
	fmt.Println(strings.Repeat("-", 70))

	var result domain.RetrievalResult
	durations := make([]time.Duration, 0, *runs)
	for i := 0; i < *runs; i++ {
		start := time.Now()
		result = retrieve.Retrieve(context.Background(), req)
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	fmt.Printf("Runs:   %d\n", len(durations))
	fmt.Printf("Min:    %s\n", durations[0])
	fmt.Printf("Median: %s\n", durations[len(durations)/2])
	fmt.Printf("Max:    %s\n", durations[len(durations)-1])
	fmt.Printf("Mean:   %s\n", total/time.Duration(len(durations)))
	fmt.Println()

	fmt.Printf("Top %d matches:\n\n", len(result.Chunks))
	for i, r := range result.Chunks {
		preview := strings.ReplaceAll(r.Text, "\n", " ")
		if len(preview) > 120 {
			preview = preview[:120] + "..."
		}
		fmt.Printf("%d. [%.3f] %s\n   %s\n\n", i+1, r.Score, r.Source, preview)
	}
}

func loadCorpus(dir string, numDocs, docSize int, seed int64) ([]domain.Document, error) {
	if dir != "" {
		cfg, err := config.LoadFromDir(dir)
		if err != nil {
			return nil, err
		}
		files, err := fs.NewWalker(cfg.Documents.Includes, cfg.Documents.Excludes).Walk(dir)
		if err != nil {
			return nil, err
		}
		return fs.NewLoader(fs.WithMaxFileBytes(cfg.Documents.MaxFileBytes)).Load(files)
	}

	rng := rand.New(rand.NewSource(seed))
	docs := make([]domain.Document, 0, numDocs)
	for i := 0; i < numDocs; i++ {
		docs = append(docs, domain.Document{
			Name:    fmt.Sprintf("synthetic-%03d.txt", i),
			Content: synthesize(rng, docSize),
		})
	}
	return docs, nil
}

func synthesize(rng *rand.Rand, size int) string {
	var b strings.Builder
	b.Grow(size + 32)
	words := 0
	for b.Len() < size {
		b.WriteString(vocabulary[rng.Intn(len(vocabulary))])
		words++
		switch {
		case words%60 == 0:
			b.WriteString(".\n")
		case words%12 == 0:
			b.WriteString(". ")
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}
