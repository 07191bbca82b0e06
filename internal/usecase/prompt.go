package usecase

import (
	"strings"

	"ragchat/internal/domain"
)

// SystemInstructions frame every prompt sent to the model.
const SystemInstructions = `You are an AI assistant that helps answer questions based on provided documents. You should be helpful, accurate, and cite information from the documents when relevant.

Instructions:
- Answer questions based on the provided context from documents
- If the context doesn't contain relevant information, say so clearly
- Be concise but thorough in your responses
- When referencing information, mention which document it came from when possible
- If no documents are provided, you can still provide general helpful responses`

const (
	contextIntro   = "\n\nUse the following context from the uploaded documents to answer the user's question:"
	contextHeading = "\nRelevant context from documents:\n\n"
	noContextNote  = "\n\nNote: No highly relevant content was found in the uploaded documents for this query."
	questionPrefix = "\n\nUser question: "
)

// BuildPrompt assembles the text sent to the model. The no-context note is
// only added when the caller sent documents and none of them matched.
func BuildPrompt(instructions string, result domain.RetrievalResult, documentsSent bool, question string) string {
	var b strings.Builder
	b.WriteString(instructions)

	switch {
	case result.UsedContext:
		b.WriteString(contextIntro)
		b.WriteString(contextHeading)
		b.WriteString(result.FormattedContext)
	case documentsSent:
		b.WriteString(noContextNote)
	}

	b.WriteString(questionPrefix)
	b.WriteString(question)
	return b.String()
}
