package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
	"ragchat/internal/session"
	"ragchat/internal/usecase"
)

type fakeRetriever struct{}

func (fakeRetriever) Query(_ context.Context, _ string, _ int) ([]domain.Passage, error) {
	return []domain.Passage{
		{Text: "Paracetamol reduces fever.", Source: "data/fever.txt"},
		{Text: "Adults: 500mg.", Source: "data/dosage.txt"},
	}, nil
}

type fakeLLM struct {
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	return "Take paracetamol <b>with water</b>.", nil
}

func (f *fakeLLM) ModelName() string { return "fake" }

func newTestServer(t *testing.T, llm *fakeLLM) *Server {
	t.Helper()
	composer, err := usecase.NewComposer("")
	require.NoError(t, err)
	chat := usecase.NewChatService(fakeRetriever{}, composer, llm, session.NewRegistry(), 3, zerolog.Nop())

	srv, err := NewServer(chat, Options{
		Title:     "AI Chat Assistant",
		Greeting:  "Hello! I'm your AI assistant. How can I help you today?",
		Info:      "Ask me anything!",
		ModelName: "Mistral-7B-Instruct-v0.3",
		IndexName: "db_bolt",
	}, zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			assert.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func postForm(message string) *http.Request {
	form := url.Values{"message": {message}}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestIndexPage_Greeting(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	sessionCookie(t, w)

	page := w.Body.String()
	assert.Contains(t, page, "How can I help you today?")
	assert.Contains(t, page, "Powered by Mistral-7B-Instruct-v0.3 &amp; db_bolt")
	assert.NotContains(t, page, "Source References")
}

func TestFormSubmit_RendersAnswerAndSources(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	first := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	cookie := sessionCookie(t, first)

	w := serve(srv, postForm("How do I treat a fever?"), cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	page := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil), cookie).Body.String()
	assert.Contains(t, page, "How do I treat a fever?")
	assert.Contains(t, page, "Take paracetamol &lt;b&gt;with water&lt;/b&gt;.")
	assert.Contains(t, page, "Source References")
	assert.Contains(t, page, "data/fever.txt")
	assert.Contains(t, page, "data/dosage.txt")
}

func TestFormSubmit_ShowsError(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{err: errors.New("inference endpoint returned 401")})

	w := serve(srv, postForm("hello"), nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	cookie := sessionCookie(t, w)

	page := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil), cookie).Body.String()
	assert.Contains(t, page, "Error: ")
	assert.Contains(t, page, "inference endpoint returned 401")

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil), cookie)
	var resp messagesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Turns, 1)
	assert.Equal(t, domain.RoleUser, resp.Turns[0].Role)
	assert.Contains(t, resp.Error, "401")
}

func TestAPIChat(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	w := serve(srv, postJSON(`{"message":"fever?"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	var resp chatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Take paracetamol <b>with water</b>.", resp.Answer)
	assert.Equal(t, []string{"data/fever.txt", "data/dosage.txt"}, resp.Sources)

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil), cookie)
	var msgs messagesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&msgs))
	assert.Len(t, msgs.Turns, 2)

	w = serve(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/messages", nil), cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil), cookie)
	msgs = messagesResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&msgs))
	assert.Empty(t, msgs.Turns)
}

func TestAPIChat_ErrorStatuses(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{err: errors.New("model overloaded")})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{"message":`, http.StatusBadRequest},
		{"empty message", `{"message":"   "}`, http.StatusBadRequest},
		{"pipeline failure", `{"message":"hi"}`, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(srv, postJSON(tt.body), nil)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAPIChat_BusySession(t *testing.T) {
	llm := &fakeLLM{started: make(chan struct{}), release: make(chan struct{})}
	srv := newTestServer(t, llm)

	first := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	cookie := sessionCookie(t, first)

	done := make(chan int, 1)
	go func() {
		done <- serve(srv, postJSON(`{"message":"first"}`), cookie).Code
	}()
	<-llm.started

	w := serve(srv, postJSON(`{"message":"second"}`), cookie)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(llm.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	a := sessionCookie(t, serve(srv, postJSON(`{"message":"secret question"}`), nil))
	b := sessionCookie(t, serve(srv, httptest.NewRequest(http.MethodGet, "/", nil), nil))
	require.NotEqual(t, a.Value, b.Value)

	page := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil), b).Body.String()
	assert.NotContains(t, page, "secret question")

	page = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil), a).Body.String()
	assert.Contains(t, page, "secret question")
}

func TestResetForm(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	cookie := sessionCookie(t, serve(srv, postForm("hello"), nil))
	w := serve(srv, httptest.NewRequest(http.MethodPost, "/reset", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	page := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil), cookie).Body.String()
	assert.NotContains(t, page, `class="message user"`)
	assert.Contains(t, page, "How can I help you today?")
}
