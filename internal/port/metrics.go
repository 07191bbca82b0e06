package port

import "time"

// Metrics receives measurements from the chat flow.
type Metrics interface {
	ObserveRetrieval(d time.Duration, documents, chunks int)
	ObserveGeneration(model, outcome string, d time.Duration)
}
