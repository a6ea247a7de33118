package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cryptoai-assistant/web-ui/internal/chat"
	"github.com/cryptoai-assistant/web-ui/internal/models"
)

type message struct {
	ID        string
	Role      string
	Content   template.HTML
	Timestamp time.Time
	Err       bool

	Index       int
	Sources     []models.Source
	ShowSources bool
}

type homePageData struct {
	Messages       []message
	InFlight       bool
	PendingInput   string
	QuickQuestions []string
}

// HandleHome renders the single chat page: the transcript so far, the pending input buffer, and
// the first-turn quick questions.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data, err := m.homeData()
	if err != nil {
		m.logger.Error("Failed to build home page data", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m Main) homeData() (homePageData, error) {
	snap := m.session.Snapshot()

	msgs, err := viewMessages(snap)
	if err != nil {
		return homePageData{}, err
	}

	return homePageData{
		Messages:       msgs,
		InFlight:       snap.InFlight,
		PendingInput:   snap.PendingInput,
		QuickQuestions: m.session.QuickQuestions(),
	}, nil
}

func viewMessages(snap chat.Snapshot) ([]message, error) {
	msgs := make([]message, len(snap.Messages))
	for i, msg := range snap.Messages {
		content, err := models.RenderContent(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to render message %s: %w", msg.ID, err)
		}
		msgs[i] = message{
			ID:          msg.ID,
			Role:        string(msg.Role),
			Content:     content,
			Timestamp:   msg.Timestamp,
			Err:         msg.Err,
			Index:       i,
			Sources:     msg.Sources,
			ShowSources: snap.SourceVisibility[i],
		}
	}
	return msgs, nil
}

func (m Main) renderChatbox() (string, error) {
	data, err := m.homeData()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "chatbox", data); err != nil {
		return "", fmt.Errorf("failed to execute chatbox template: %w", err)
	}
	return sb.String(), nil
}
