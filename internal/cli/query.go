package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragchat/internal/domain"
)

var (
	queryText  string
	queryDocs  []string
	queryTopK  int
	queryJSON  bool
	queryQuiet bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Show the context retrieved for a question",
	Long: `Chunk the documents, rank the chunks by keyword overlap and print the top K.
No model is called.

Examples:
  ragchat query -q "distributed systems"
  ragchat query -q "sourdough" --docs 'notes/**/*.md' --top-k 5 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().StringSliceVar(&queryDocs, "docs", nil, "document files or glob patterns (default: documents under --dir)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryQuiet, "quiet", false, "hide the progress bar")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	docs, err := loadDocuments(cfg, GetRootDir(), queryDocs, progressWriter(queryQuiet || queryJSON))
	if err != nil {
		return err
	}

	result := newRetrieveUseCase(cfg, nil).Retrieve(cmd.Context(), domain.RetrievalRequest{
		Query:     queryText,
		Documents: docs,
		TopK:      queryTopK,
	})

	out := cmd.OutOrStdout()
	if queryJSON {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	if !result.UsedContext {
		fmt.Fprintf(out, "No relevant content found in %d document(s).\n", len(docs))
		return nil
	}

	fmt.Fprintf(out, "Found %d results for: %s\n\n", len(result.Chunks), queryText)
	for i, c := range result.Chunks {
		fmt.Fprintf(out, "[%d] %s (score: %.2f)\n", i+1, c.Source, c.Score)
		fmt.Fprintln(out, indent(c.Text, "    "))
		fmt.Fprintln(out)
	}
	return nil
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
