package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ragchat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Long: `Open an interactive terminal chat. It runs the same pipeline as the web
chat for a single session. Press Ctrl+C to quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// log lines would tear the alternate screen; errors show in the status bar
	a, err := newApp(cfg, GetRootDir(), zerolog.Nop())
	if err != nil {
		return err
	}
	defer a.Close()

	sess := a.chat.Sessions().New()
	model := tui.New(a.chat, sess.ID, cfg.UI.Title, cfg.UI.Greeting)

	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
