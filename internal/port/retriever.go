package port

import "ragchat/internal/domain"

// Retriever selects the chunks of a document set most relevant to a query.
type Retriever interface {
	// Retrieve returns at most topK chunks, highest score first.
	Retrieve(query string, docs []domain.Document, topK int) []domain.ScoredChunk
}
