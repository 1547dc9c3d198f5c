package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ragchat/internal/domain"
	"ragchat/internal/port"
	"ragchat/internal/session"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrBusy            = errors.New("a previous message is still being answered")
	ErrSessionNotFound = errors.New("session not found")
)

// PassageRetriever is the retrieval step of a turn.
type PassageRetriever interface {
	Query(ctx context.Context, text string, k int) ([]domain.Passage, error)
}

// Answer is the outcome of the retrieve, compose, generate pipeline.
type Answer struct {
	Text     string
	Passages []domain.Passage
	Sources  []string
}

// ChatService runs conversation turns for the sessions of a registry.
type ChatService struct {
	retriever PassageRetriever
	composer  *Composer
	llm       port.LLM
	sessions  *session.Registry
	topK      int
	log       zerolog.Logger
}

func NewChatService(
	retriever PassageRetriever,
	composer *Composer,
	llm port.LLM,
	sessions *session.Registry,
	topK int,
	log zerolog.Logger,
) *ChatService {
	return &ChatService{
		retriever: retriever,
		composer:  composer,
		llm:       llm,
		sessions:  sessions,
		topK:      topK,
		log:       log,
	}
}

func (c *ChatService) Sessions() *session.Registry {
	return c.sessions
}

// Ask runs the pipeline for a single question without touching any session.
func (c *ChatService) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyMessage
	}

	passages, err := c.retriever.Query(ctx, question, c.topK)
	if err != nil {
		return nil, err
	}

	prompt, err := c.composer.Build(PassageTexts(passages), question)
	if err != nil {
		return nil, err
	}

	text, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Answer{
		Text:     text,
		Passages: passages,
		Sources:  domain.Sources(passages),
	}, nil
}

// Submit runs one turn for the session. Blank input and a session that is
// still answering are rejected without touching the log. Otherwise the user
// turn is appended, and the assistant turn only if the whole pipeline
// succeeds; on failure the error is kept as the session's last error.
func (c *ChatService) Submit(ctx context.Context, sessionID, text string) (domain.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Turn{}, ErrEmptyMessage
	}

	s, ok := c.sessions.Get(sessionID)
	if !ok {
		return domain.Turn{}, ErrSessionNotFound
	}
	if !s.Begin() {
		return domain.Turn{}, ErrBusy
	}
	defer s.End()

	s.Append(domain.Turn{Role: domain.RoleUser, Content: text})

	answer, err := c.Ask(ctx, text)
	if err != nil {
		s.SetError(err.Error())
		c.log.Warn().Err(err).Str("session", s.ID).Msg("turn failed")
		return domain.Turn{}, err
	}

	turn := domain.Turn{
		Role:    domain.RoleAssistant,
		Content: answer.Text,
		Sources: answer.Sources,
	}
	s.Append(turn)

	c.log.Debug().
		Str("session", s.ID).
		Int("passages", len(answer.Passages)).
		Msg("turn answered")
	return turn, nil
}

// Reset clears the session's conversation log.
func (c *ChatService) Reset(sessionID string) error {
	s, ok := c.sessions.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	if s.State() == session.Processing {
		return ErrBusy
	}
	s.Reset()
	return nil
}

// Turns returns the session's log and last error.
func (c *ChatService) Turns(sessionID string) ([]domain.Turn, string, error) {
	s, ok := c.sessions.Get(sessionID)
	if !ok {
		return nil, "", ErrSessionNotFound
	}
	return s.Turns(), s.LastError(), nil
}
