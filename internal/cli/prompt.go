package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragchat/internal/usecase"
)

var (
	promptQuestion  string
	promptNoContext bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the prompt that would be sent to the model",
	Long: `Retrieve context for the question and print the composed prompt without
calling the model. Useful for checking a custom prompt template.

Examples:
  ragchat prompt -q "How is malaria spread?"
  ragchat prompt -q "test" --no-context`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuestion, "question", "q", "", "question (required)")
	promptCmd.Flags().BoolVar(&promptNoContext, "no-context", false, "skip retrieval and render an empty context")
	promptCmd.MarkFlagRequired("question")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	a, err := newApp(GetConfig(), GetRootDir(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	var context []string
	if !promptNoContext {
		passages, err := a.retrieve.Query(cmd.Context(), promptQuestion, 0)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		context = usecase.PassageTexts(passages)
	}

	prompt, err := a.composer.Build(context, promptQuestion)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	return nil
}
