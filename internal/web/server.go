// Package web serves the chat page and its JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"ragchat/internal/session"
	"ragchat/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

const cookieName = "ragchat_session"

// Options are the static texts and settings of the page.
type Options struct {
	Title      string
	Greeting   string
	Info       string
	ModelName  string
	IndexName  string
	SessionTTL time.Duration
}

type Server struct {
	router *chi.Mux
	chat   *usecase.ChatService
	page   *template.Template
	opts   Options
	log    zerolog.Logger
}

func NewServer(chat *usecase.ChatService, opts Options, log zerolog.Logger) (*Server, error) {
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(log))
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		chat:   chat,
		page:   page,
		opts:   opts,
		log:    log,
	}

	router.Get("/health", s.health)
	router.Get("/", s.index)
	router.Post("/chat", s.submitForm)
	router.Post("/reset", s.resetForm)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/messages", s.listMessages)
		r.Delete("/messages", s.deleteMessages)
		r.Post("/chat", s.chatJSON)
	})

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, sweeping idle sessions in the
// background.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.chat.Sessions().RunSweeper(ctx, s.opts.SessionTTL, time.Minute, func(n int) {
		s.log.Debug().Int("sessions", n).Msg("expired sessions dropped")
	})

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("web server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sessionFor returns the caller's session, starting one and setting the
// cookie when the request carries no live session.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(cookieName); err == nil {
		id = c.Value
	}

	sess, created := s.chat.Sessions().GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
