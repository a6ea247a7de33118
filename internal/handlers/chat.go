package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cryptoai-assistant/web-ui/internal/chat"
)

// HandleChat processes a user message through HTTP POST requests. It expects a "message" form
// field, drives the session controller synchronously (the backend answers with one complete
// response per request), and responds with the refreshed chatbox partial. The same partial is
// published over SSE so every connected client converges on the new transcript.
//
// A send issued while another is still in flight is a no-op: nothing is appended and no backend
// request is made.
func (m Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg := r.FormValue("message")
	if msg == "" {
		m.logger.Error("Message is required")
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	prefs, err := m.prefs.Preferences()
	if err != nil {
		m.logger.Error("Failed to load preferences", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	err = m.session.Send(r.Context(), msg, prefs.TopK, prefs.Temperature)
	if errors.Is(err, chat.ErrBusy) {
		// Single-flight guard tripped; the transcript is unchanged.
		m.writeChatbox(w)
		return
	}
	// A backend failure is already part of the transcript as an error turn, so the response
	// below renders it; no separate error response is needed.

	m.publishTranscript()
	m.writeChatbox(w)
}

// HandleClear resets the conversation. On success the transcript shrinks back to a fresh
// greeting; on failure the visible state is left exactly as it was and the error is only
// logged, never shown as a chat message.
func (m Main) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := m.session.Clear(r.Context()); err != nil {
		m.logger.Error("Failed to clear history", slog.String(errLoggerKey, err.Error()))
		m.writeChatbox(w)
		return
	}

	m.publishTranscript()
	m.writeChatbox(w)
}

// HandleToggleSources flips the visibility of the evidence attached to one message. It expects
// an "index" form field holding the message position in the transcript.
func (m Main) HandleToggleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		m.logger.Error("Invalid message index", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "Invalid message index", http.StatusBadRequest)
		return
	}

	m.session.ToggleSources(index)
	m.writeChatbox(w)
}

// HandleQuickQuestion pre-fills the input buffer with one of the canned first-turn prompts. It
// does not append to the transcript or contact the backend.
func (m Main) HandleQuickQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m.session.SelectQuickQuestion(r.FormValue("question"))
	m.writeChatbox(w)
}

func (m Main) writeChatbox(w http.ResponseWriter) {
	body, err := m.renderChatbox()
	if err != nil {
		m.logger.Error("Failed to render chatbox", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := w.Write([]byte(body)); err != nil {
		m.logger.Error("Failed to write response", slog.String(errLoggerKey, err.Error()))
	}
}
