package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ragchat/internal/domain"
	"ragchat/internal/usecase"
)

var (
	askText   string
	askDocs   []string
	askAPIKey string
	askTopK   int
	askJSON   bool
	askQuiet  bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask the model a question about your documents",
	Long: `Retrieve the most relevant chunks and send them with the question to the
configured model provider. The API key comes from --api-key or from the
provider's environment variable (GEMINI_API_KEY by default).

Examples:
  ragchat ask -q "What projects used Kubernetes?" --docs 'notes/**/*.md'
  ragchat ask -q "Summarise my resume" --docs resume.pdf --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question (required)")
	askCmd.Flags().StringSliceVar(&askDocs, "docs", nil, "document files or glob patterns (default: documents under --dir)")
	askCmd.Flags().StringVar(&askAPIKey, "api-key", "", "model provider API key")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of context chunks (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askQuiet, "quiet", false, "hide the progress bar")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	docs, err := loadDocuments(cfg, GetRootDir(), askDocs, progressWriter(askQuiet || askJSON))
	if err != nil {
		return err
	}

	chat := newChatUseCase(ctx, cfg, newRetrieveUseCase(cfg, nil), nil)

	rsp, err := chat.Chat(ctx, domain.ChatRequest{
		Message:   askText,
		Documents: docs,
		APIKey:    askAPIKey,
		TopK:      askTopK,
	})
	if err != nil {
		var chatErr *usecase.ChatError
		if errors.As(err, &chatErr) {
			return fmt.Errorf("%s (status %d)", chatErr.Message, chatErr.Status)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if askJSON {
		output, err := json.MarshalIndent(rsp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintln(out, rsp.Response)
	fmt.Fprintf(out, "\n(%s, %d document(s))\n", rsp.Context, rsp.DocumentsUsed)
	return nil
}
