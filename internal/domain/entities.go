package domain

// Document is a caller-supplied text file. Names are not unique.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Chunk is a contiguous piece of a document's content.
type Chunk struct {
	DocName string
	DocPos  int // position of the source document in the request
	Index   int // position of the chunk within its document
	Text    string
}

type ScoredChunk struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// RetrievalRequest is the payload the chat service hands to the retriever.
type RetrievalRequest struct {
	Query     string     `json:"query"`
	Documents []Document `json:"documents"`
	TopK      int        `json:"topK,omitempty"`
}

// RetrievalResult is what the answer generator receives.
type RetrievalResult struct {
	FormattedContext string        `json:"formattedContext"`
	UsedContext      bool          `json:"usedContext"`
	Chunks           []ScoredChunk `json:"chunks"`
}

// ChatRequest is the body of the chat endpoint.
type ChatRequest struct {
	Message   string     `json:"message"`
	Documents []Document `json:"documents"`
	APIKey    string     `json:"apiKey"`
	TopK      int        `json:"topK,omitempty"`
}

type ChatResponse struct {
	Response      string `json:"response"`
	Context       string `json:"context"`
	DocumentsUsed int    `json:"documentsUsed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const (
	ContextUsed    = "Used document context"
	ContextNotUsed = "No document context used"
)
