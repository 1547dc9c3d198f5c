package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ragchat/internal/domain"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Show the passages retrieved for a question",
	Long: `Run only the retrieval step and print the passages that would be given to
the model as context, with their source and similarity score.

Examples:
  ragchat query -q "fever treatment"
  ragchat query -q "insulin dosage" --top-k 5 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp(GetConfig(), GetRootDir(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	passages, err := a.retrieve.Query(cmd.Context(), queryText, queryTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		if passages == nil {
			passages = []domain.Passage{}
		}
		output, _ := json.MarshalIndent(passages, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(passages) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(passages), queryText)
	for i, p := range passages {
		fmt.Printf("--- [%d] %s (score: %.2f) ---\n", i+1, p.Source, p.Score)
		fmt.Println(preview(p.Text, 500))
		fmt.Println()
	}

	return nil
}

// preview cuts text to at most n runes.
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
