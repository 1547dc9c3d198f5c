package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"ragchat/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web chat",
	Long: `Start the single-page web chat. The vector index is opened on the first
question and kept open until the server stops.

Examples:
  ragchat serve
  ragchat serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := GetLogger()

	a, err := newApp(cfg, GetRootDir(), log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := web.NewServer(a.chat, web.Options{
		Title:      cfg.UI.Title,
		Greeting:   cfg.UI.Greeting,
		Info:       cfg.UI.Info,
		ModelName:  filepath.Base(a.model),
		IndexName:  filepath.Base(cfg.Index.Path),
		SessionTTL: cfg.Server.SessionTTL,
	}, log)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, addr)
}
