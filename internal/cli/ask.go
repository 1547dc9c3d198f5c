package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askQuestion string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a single question",
	Long: `Retrieve context for the question, ask the model and print the answer
with its source references.

Examples:
  ragchat ask -q "What are the symptoms of diabetes?"
  ragchat ask -q "How is fever treated?" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("question")
}

type askOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(GetConfig(), GetRootDir(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.chat.Ask(cmd.Context(), askQuestion)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if askJSON {
		sources := answer.Sources
		if sources == nil {
			sources = []string{}
		}
		data, _ := json.MarshalIndent(askOutput{Answer: answer.Text, Sources: sources}, "", "  ")
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintln(out, "\nSource References:")
		for _, src := range answer.Sources {
			fmt.Fprintf(out, "  • %s\n", src)
		}
	}
	return nil
}
