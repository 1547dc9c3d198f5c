package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"ragchat/internal/domain"
	"ragchat/internal/usecase"
)

type pageData struct {
	Options
	Turns []domain.Turn
	Error string
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	data := pageData{
		Options: s.opts,
		Turns:   sess.Turns(),
		Error:   sess.LastError(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("failed to render page")
	}
}

// submitForm runs a turn from the page form. Whatever happens, the browser
// is sent back to the page, which shows the answer or the error.
func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	_, err := s.chat.Submit(r.Context(), sess.ID, r.FormValue("message"))
	if errors.Is(err, usecase.ErrBusy) {
		s.log.Debug().Str("session", sess.ID).Msg("submit while busy ignored")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) resetForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if err := s.chat.Reset(sess.ID); err != nil {
		s.log.Debug().Err(err).Str("session", sess.ID).Msg("reset refused")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type messagesResponse struct {
	Turns []domain.Turn `json:"turns"`
	Error string        `json:"error,omitempty"`
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	writeJSON(w, http.StatusOK, messagesResponse{
		Turns: sess.Turns(),
		Error: sess.LastError(),
	})
}

func (s *Server) deleteMessages(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if err := s.chat.Reset(sess.ID); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

func (s *Server) chatJSON(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	turn, err := s.chat.Submit(r.Context(), sess.ID, req.Message)
	switch {
	case errors.Is(err, usecase.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, usecase.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	sources := turn.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, chatResponse{Answer: turn.Content, Sources: sources})
}
