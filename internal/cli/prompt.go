package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/domain"
	"ragchat/internal/usecase"
)

var (
	promptText string
	promptDocs []string
	promptTopK int
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the prompt that would be sent to the model",
	Long: `Assemble the full model prompt (instructions, retrieved context and
question) without calling any provider. Useful for pasting into a chat UI.

Examples:
  ragchat prompt -q "What did I build?" --docs 'notes/*.md'`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptText, "query", "q", "", "question (required)")
	promptCmd.Flags().StringSliceVar(&promptDocs, "docs", nil, "document files or glob patterns (default: documents under --dir)")
	promptCmd.Flags().IntVarP(&promptTopK, "top-k", "k", 0, "number of context chunks (default from config)")
	promptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	docs, err := loadDocuments(cfg, GetRootDir(), promptDocs, nil)
	if err != nil {
		return err
	}

	var result domain.RetrievalResult
	if len(docs) > 0 {
		result = newRetrieveUseCase(cfg, nil).Retrieve(cmd.Context(), domain.RetrievalRequest{
			Query:     promptText,
			Documents: docs,
			TopK:      promptTopK,
		})
	}

	prompt := usecase.BuildPrompt(usecase.SystemInstructions, result, len(docs) > 0, promptText)
	fmt.Fprintln(cmd.OutOrStdout(), prompt)
	fmt.Fprintf(cmd.ErrOrStderr(), "\n(~%d tokens, %d context chunk(s))\n", analyzer.NewTokenizer().CountTokens(prompt), len(result.Chunks))
	return nil
}
