package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	webui "github.com/cryptoai-assistant/web-ui"
	"github.com/cryptoai-assistant/web-ui/internal/chat"
	"github.com/cryptoai-assistant/web-ui/internal/models"
	"github.com/cryptoai-assistant/web-ui/internal/services"
	"github.com/tmaxmax/go-sse"
)

// Explorer is the slice of the backend client used outside the chat flow: direct knowledge-base
// search and the one-shot analysis endpoints.
type Explorer interface {
	SearchKnowledgeBase(ctx context.Context, query string, collections []string, topK int) ([]models.Source, error)
	AnalyzePriceTrend(ctx context.Context, ticker, timeframe string) (services.AnalysisResult, error)
	AnalyzeSentiment(ctx context.Context, ticker string, days int) (services.AnalysisResult, error)
}

// PrefStore persists the user-tunable request knobs between restarts.
type PrefStore interface {
	Preferences() (services.Preferences, error)
	SavePreferences(prefs services.Preferences) error
}

// Main handles the core functionality of the chat application, managing server-sent events,
// HTML templates, and the interactions between the session controller and the backend client.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	session  *chat.Session
	explorer Explorer
	prefs    PrefStore

	logger *slog.Logger
}

const errLoggerKey = "err"

const sessionSSETopic = "session"

var messagesSSEType = sse.Type("messages")

// NewMain creates a new Main instance wired to the given session controller, backend explorer,
// and preference store. It parses the embedded HTML templates and configures the SSE server to
// subscribe every client to the session topic.
func NewMain(session *chat.Session, explorer Explorer, prefs PrefStore, logger *slog.Logger) (Main, error) {
	tmpl, err := template.ParseFS(
		webui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	return Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      []string{sse.DefaultTopic, sessionSSETopic},
				}, true
			},
		},
		templates: tmpl,
		session:   session,
		explorer:  explorer,
		prefs:     prefs,
		logger:    logger.With(slog.String("module", "handlers")),
	}, nil
}

// HandleSSE serves the server-sent events stream used to push refreshed transcripts to every
// connected client.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the SSE server. It broadcasts a close message to all connected
// clients and waits up to 5 seconds for connections to terminate.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("closeSession")}
	// The SSE spec requires a data field even on a close event.
	e.AppendData("bye")

	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

// publishTranscript renders the current transcript and pushes it to all subscribers of the
// session topic. Failures are logged; a dropped push only delays a client until its next
// full page load.
func (m Main) publishTranscript() {
	body, err := m.renderChatbox()
	if err != nil {
		m.logger.Error("Failed to render transcript for SSE", slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: messagesSSEType}
	msg.AppendData(body)

	if err := m.sseSrv.Publish(&msg, sessionSSETopic); err != nil {
		m.logger.Error("Failed to publish transcript", slog.String(errLoggerKey, err.Error()))
	}
}
