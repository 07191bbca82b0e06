//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/adapter/chunker"
	"ragchat/internal/adapter/retriever"
	"ragchat/internal/domain"
	"ragchat/internal/usecase"
)

var retrieve *usecase.RetrieveUseCase

func init() {
	r := retriever.NewKeywordRetriever(analyzer.NewTokenizer())
	retrieve = usecase.NewRetrieveUseCase(r, retriever.DefaultTopK, nil)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("ragChunk", js.FuncOf(chunkText))
	js.Global().Set("ragRetrieve", js.FuncOf(retrieveContext))
	js.Global().Set("ragPrompt", js.FuncOf(buildPrompt))

	<-c
}

func chunkText(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: ragChunk(text, [chunkSize], [overlap])")
	}

	size, overlap := chunker.DefaultChunkSize, chunker.DefaultOverlap
	if len(args) > 1 {
		size = args[1].Int()
	}
	if len(args) > 2 {
		overlap = args[2].Int()
	}

	chunks := chunker.NewTextChunker(size, overlap).Split(args[0].String())
	return makeResult(map[string]interface{}{
		"chunks": chunks,
		"count":  len(chunks),
	})
}

func retrieveContext(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: ragRetrieve(query, documentsJSON, [topK])")
	}

	req, err := parseRequest(args)
	if err != nil {
		return makeError("invalid documents: " + err.Error())
	}

	result := retrieve.Retrieve(context.Background(), req)
	out, _ := json.Marshal(result)
	return string(out)
}

func buildPrompt(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: ragPrompt(question, documentsJSON, [topK])")
	}

	req, err := parseRequest(args)
	if err != nil {
		return makeError("invalid documents: " + err.Error())
	}

	var result domain.RetrievalResult
	if len(req.Documents) > 0 {
		result = retrieve.Retrieve(context.Background(), req)
	}

	return makeResult(map[string]interface{}{
		"prompt":      usecase.BuildPrompt(usecase.SystemInstructions, result, len(req.Documents) > 0, req.Query),
		"usedContext": result.UsedContext,
	})
}

func parseRequest(args []js.Value) (domain.RetrievalRequest, error) {
	req := domain.RetrievalRequest{Query: args[0].String()}
	if err := json.Unmarshal([]byte(args[1].String()), &req.Documents); err != nil {
		return req, err
	}
	if len(args) > 2 {
		req.TopK = args[2].Int()
	}
	return req, nil
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
