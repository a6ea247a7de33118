package handlers_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cryptoai-assistant/web-ui/internal/chat"
	"github.com/cryptoai-assistant/web-ui/internal/handlers"
	"github.com/cryptoai-assistant/web-ui/internal/models"
	"github.com/cryptoai-assistant/web-ui/internal/services"
)

type mockAssistant struct {
	result services.ChatResult
	err    error
}

type mockExplorer struct {
	sources  []models.Source
	analysis services.AnalysisResult
	err      error
}

type mockPrefStore struct {
	prefs services.Preferences
}

const greeting = "Hello! Ask me about crypto."

func newMain(t *testing.T, assistant chat.Assistant, explorer handlers.Explorer) handlers.Main {
	t.Helper()

	session := chat.NewSession(assistant, greeting, []string{"What's BTC doing?"}, slog.Default())
	m, err := handlers.NewMain(session, explorer, &mockPrefStore{prefs: services.DefaultPreferences()}, slog.Default())
	if err != nil {
		t.Fatalf("NewMain() error = %v", err)
	}
	return m
}

func TestNewMain(t *testing.T) {
	m := newMain(t, &mockAssistant{}, &mockExplorer{})

	if err := m.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestHandleHome(t *testing.T) {
	m := newMain(t, &mockAssistant{}, &mockExplorer{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	m.HandleHome(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("HandleHome() status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, greeting) {
		t.Errorf("HandleHome() body should contain the greeting, got %q", body)
	}
	if !strings.Contains(body, "What&#39;s BTC doing?") {
		t.Errorf("HandleHome() body should offer the quick question, got %q", body)
	}
}

func TestHandleChat(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		message    string
		assistant  *mockAssistant
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Invalid method",
			method:     http.MethodGet,
			assistant:  &mockAssistant{},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "Empty message",
			method:     http.MethodPost,
			assistant:  &mockAssistant{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Successful exchange",
			method:     http.MethodPost,
			message:    "how is BTC",
			assistant:  &mockAssistant{result: services.ChatResult{Response: "BTC is up."}},
			wantStatus: http.StatusOK,
			wantBody:   "BTC is up.",
		},
		{
			name:       "Backend failure shows error turn",
			method:     http.MethodPost,
			message:    "how is BTC",
			assistant:  &mockAssistant{err: &services.ServerError{StatusCode: 502}},
			wantStatus: http.StatusOK,
			wantBody:   "Error occurred.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMain(t, tt.assistant, &mockExplorer{})

			form := strings.NewReader("message=" + tt.message)
			req := httptest.NewRequest(tt.method, "/chats", form)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()

			m.HandleChat(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleChat() status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("HandleChat() body = %q, want to contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHandleClear(t *testing.T) {
	assistant := &mockAssistant{result: services.ChatResult{Response: "answer"}}
	m := newMain(t, assistant, &mockExplorer{})

	send := httptest.NewRequest(http.MethodPost, "/chats", strings.NewReader("message=hello"))
	send.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	m.HandleChat(httptest.NewRecorder(), send)

	req := httptest.NewRequest(http.MethodPost, "/chats/clear", nil)
	w := httptest.NewRecorder()

	m.HandleClear(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("HandleClear() status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "answer") {
		t.Errorf("HandleClear() body still contains the old exchange: %q", body)
	}
	if !strings.Contains(body, greeting) {
		t.Errorf("HandleClear() body should contain a fresh greeting, got %q", body)
	}
}

func TestHandleToggleSources(t *testing.T) {
	assistant := &mockAssistant{result: services.ChatResult{
		Response: "BTC is up.",
		Sources:  []models.Source{{Collection: "news", RelevanceScore: 0.9, Excerpt: "BTC rallies"}},
	}}
	m := newMain(t, assistant, &mockExplorer{})

	send := httptest.NewRequest(http.MethodPost, "/chats", strings.NewReader("message=hello"))
	send.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	m.HandleChat(httptest.NewRecorder(), send)

	req := httptest.NewRequest(http.MethodPost, "/chats/sources", strings.NewReader("index=2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	m.HandleToggleSources(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("HandleToggleSources() status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "BTC rallies") {
		t.Errorf("HandleToggleSources() body should reveal the source excerpt, got %q", w.Body.String())
	}
}

func TestHandleSearch(t *testing.T) {
	explorer := &mockExplorer{sources: []models.Source{
		{Collection: "kline", RelevanceScore: 0.8, Excerpt: "OHLC data"},
	}}
	m := newMain(t, &mockAssistant{}, explorer)

	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Missing query",
			url:        "/search",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Ranked results",
			url:        "/search?query=btc",
			wantStatus: http.StatusOK,
			wantBody:   "OHLC data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			m.HandleSearch(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleSearch() status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("HandleSearch() body = %q, want to contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHandleAnalyze(t *testing.T) {
	explorer := &mockExplorer{analysis: services.AnalysisResult{Analysis: "**Uptrend** confirmed."}}
	m := newMain(t, &mockAssistant{}, explorer)

	form := strings.NewReader("kind=trend&ticker=btcusdt")
	req := httptest.NewRequest(http.MethodPost, "/analyze", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	m.HandleAnalyze(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HandleAnalyze() status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<strong>Uptrend</strong>") {
		t.Errorf("HandleAnalyze() body should render markdown, got %q", body)
	}
	if !strings.Contains(body, "BTCUSDT") {
		t.Errorf("HandleAnalyze() body should contain the upper-cased ticker, got %q", body)
	}
}

func (m *mockAssistant) SendMessage(context.Context, string, int, float64) (services.ChatResult, error) {
	return m.result, m.err
}

func (m *mockAssistant) ClearHistory(context.Context) error {
	return nil
}

func (m *mockExplorer) SearchKnowledgeBase(context.Context, string, []string, int) ([]models.Source, error) {
	return m.sources, m.err
}

func (m *mockExplorer) AnalyzePriceTrend(context.Context, string, string) (services.AnalysisResult, error) {
	return m.analysis, m.err
}

func (m *mockExplorer) AnalyzeSentiment(context.Context, string, int) (services.AnalysisResult, error) {
	return m.analysis, m.err
}

func (m *mockPrefStore) Preferences() (services.Preferences, error) {
	return m.prefs, nil
}

func (m *mockPrefStore) SavePreferences(prefs services.Preferences) error {
	m.prefs = prefs
	return nil
}
