package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrag/internal/ai"
	"finrag/internal/app"
	"finrag/internal/bootstrap"
	"finrag/internal/config"
	"finrag/internal/memory"
	"finrag/internal/model"
	httptransport "finrag/internal/transport/http"
)

type stubEmbedder struct {
	calls int
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	return []float32{1, 0}, nil
}

type stubRetriever struct {
	docs []model.Document
	err  error
}

func (s *stubRetriever) Retrieve(_ context.Context, _ []float32) ([]model.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}

type stubCompleter struct {
	answer string
	err    error
}

func (s *stubCompleter) Complete(_ context.Context, _ ai.ChatConfig, _ []ai.ChatMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type testServer struct {
	router   http.Handler
	embedder *stubEmbedder
}

func newTestServer(t *testing.T, retriever *stubRetriever, completer *stubCompleter) *testServer {
	t.Helper()

	embedder := &stubEmbedder{}
	svc := app.NewAnswerService(embedder, retriever, memory.NewStore(), completer, ai.ChatConfig{}, nil, 3)

	cfg := &config.Config{}
	cfg.App.Name = "finrag"
	cfg.App.Env = "test"
	cfg.App.GinMode = "test"
	cfg.App.FrontendDir = "web"
	cfg.CORS.AllowOrigins = []string{"*"}

	application := &bootstrap.App{
		Config:        cfg,
		AnswerService: svc,
		StartedAt:     time.Now(),
	}
	return &testServer{
		router:   httptransport.NewRouter(application),
		embedder: embedder,
	}
}

func (ts *testServer) postAsk(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func mockRetriever() *stubRetriever {
	return &stubRetriever{docs: []model.Document{
		{ID: "d1", Content: "The filing deadline is April 15."},
	}}
}

func TestAskReturnsAnswerAndGeneratedSessionID(t *testing.T) {
	ts := newTestServer(t, mockRetriever(), &stubCompleter{answer: "April 15"})

	rec := ts.postAsk(t, `{"question": "What is the filing deadline?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Answer    string `json:"answer"`
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "April 15", resp.Answer)
	assert.NotEmpty(t, resp.SessionID)
}

func TestAskEchoesProvidedSessionID(t *testing.T) {
	ts := newTestServer(t, mockRetriever(), &stubCompleter{answer: "April 15"})

	rec := ts.postAsk(t, `{"question": "What is the filing deadline?", "session_id": "my-session"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_id":"my-session"`)
}

func TestAskRejectsMissingQuestionBeforePipeline(t *testing.T) {
	ts := newTestServer(t, mockRetriever(), &stubCompleter{answer: "April 15"})

	for _, body := range []string{`{}`, `{"question": ""}`, `{"question": "   "}`} {
		rec := ts.postAsk(t, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Equal(t, 0, ts.embedder.calls)
}

func TestAskRejectsMalformedJSON(t *testing.T) {
	ts := newTestServer(t, mockRetriever(), &stubCompleter{answer: "x"})

	rec := ts.postAsk(t, `{"question": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskMapsPipelineFailures(t *testing.T) {
	t.Run("retrieval", func(t *testing.T) {
		ts := newTestServer(t, &stubRetriever{err: errors.New("index down")}, &stubCompleter{answer: "x"})

		rec := ts.postAsk(t, `{"question": "anything"}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "retrieving context failed")
		assert.NotContains(t, rec.Body.String(), "index down")
	})

	t.Run("completion", func(t *testing.T) {
		ts := newTestServer(t, mockRetriever(), &stubCompleter{err: errors.New("llm down")})

		rec := ts.postAsk(t, `{"question": "anything"}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "generating the answer failed")
	})
}

func TestAboutPayload(t *testing.T) {
	ts := newTestServer(t, mockRetriever(), &stubCompleter{answer: "x"})

	req := httptest.NewRequest(http.MethodGet, "/api/about", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Hello": "This is the backend for the RAG system."}`, rec.Body.String())
}

func TestHealthzWithoutOptionalDependencies(t *testing.T) {
	ts := newTestServer(t, mockRetriever(), &stubCompleter{answer: "x"})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"app":"finrag"`)
}

func TestAskCORSHeaders(t *testing.T) {
	ts := newTestServer(t, mockRetriever(), &stubCompleter{answer: "April 15"})

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"question": "q"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://frontend.example.com")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
