package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cryptoai-assistant/web-ui/internal/models"
	"github.com/cryptoai-assistant/web-ui/internal/services"
	"github.com/google/uuid"
)

// Assistant is the slice of the backend client the session depends on. It accepts a chat
// message or a clear request and never touches session state itself.
type Assistant interface {
	SendMessage(ctx context.Context, text string, topK int, temperature float64) (services.ChatResult, error)
	ClearHistory(ctx context.Context) error
}

// ErrBusy is returned by Send while a previous send is still outstanding. The caller treats it
// as a no-op: no message is appended and no request is issued.
var ErrBusy = errors.New("a message is already in flight")

// Session owns the state of one conversation: the append-only transcript, the single-flight
// guard, and the per-message source-visibility toggles. All state is mutated only through the
// intent methods, and every mutation happens under the session mutex.
type Session struct {
	assistant Assistant

	greeting       string
	quickQuestions []string

	logger *slog.Logger

	mu               sync.Mutex
	messages         []models.Message
	inFlight         bool
	sourceVisibility map[int]bool
	pendingInput     string

	// generation is bumped on every successful Clear. A Send completion whose captured
	// generation no longer matches resolved against a transcript that no longer exists,
	// and is discarded instead of un-clearing the fresh log.
	generation uint64
}

// Snapshot is a read-only copy of the session state handed to the display layer.
type Snapshot struct {
	Messages         []models.Message
	InFlight         bool
	SourceVisibility map[int]bool
	PendingInput     string
}

// NewSession creates a session seeded with the greeting message. The assistant and logger must
// be non-nil; quickQuestions may be empty.
func NewSession(assistant Assistant, greeting string, quickQuestions []string, logger *slog.Logger) *Session {
	s := &Session{
		assistant:        assistant,
		greeting:         greeting,
		quickQuestions:   quickQuestions,
		logger:           logger.With(slog.String("module", "chat")),
		sourceVisibility: make(map[int]bool),
	}
	s.messages = []models.Message{s.greetingMessage()}
	return s
}

func (s *Session) greetingMessage() models.Message {
	return models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   s.greeting,
		Timestamp: time.Now(),
	}
}

// Send appends the user's turn, issues the backend request, and appends the assistant's answer
// when it resolves. Blank text does nothing; a send while another is outstanding does nothing
// and returns ErrBusy. The user turn is never rolled back: a failed exchange is visible as a
// trailing error turn, keeping the transcript an accurate record of what was attempted.
func (s *Session) Send(ctx context.Context, text string, topK int, temperature float64) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	s.inFlight = true
	gen := s.generation
	s.messages = append(s.messages, models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	s.pendingInput = ""
	s.mu.Unlock()

	res, err := s.assistant.SendMessage(ctx, text, topK, temperature)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if gen != s.generation {
		// The transcript was cleared while this send was outstanding; its result belongs
		// to a conversation that no longer exists.
		s.logger.Info("Discarding stale send completion", slog.Uint64("generation", gen))
		return nil
	}

	if err != nil {
		s.logger.Error("Send failed", slog.String("err", err.Error()))
		s.messages = append(s.messages, models.Message{
			ID:        uuid.New().String(),
			Role:      models.RoleAssistant,
			Content:   "Error occurred.",
			Timestamp: time.Now(),
			Err:       true,
		})
		return err
	}

	s.messages = append(s.messages, models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   res.Response,
		Timestamp: time.Now(),
		Sources:   res.Sources,
	})
	return nil
}

// Clear asks the backend to drop its history, and on success resets the transcript to a fresh
// greeting and empties the source-visibility toggles. On failure the visible state is left
// untouched; the error is logged and returned, never surfaced as a chat message.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.assistant.ClearHistory(ctx); err != nil {
		s.logger.Error("Clear failed, transcript left unchanged", slog.String("err", err.Error()))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []models.Message{s.greetingMessage()}
	s.sourceVisibility = make(map[int]bool)
	s.pendingInput = ""
	s.generation++
	return nil
}

// ToggleSources flips the visibility of the sources attached to the message at index. It is a
// pure local toggle: no backend interaction, and a no-op when the index is out of range or the
// message carries no sources.
func (s *Session) ToggleSources(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.messages) {
		return
	}
	if len(s.messages[index].Sources) == 0 {
		return
	}
	s.sourceVisibility[index] = !s.sourceVisibility[index]
}

// SelectQuickQuestion pre-fills the pending input buffer with a canned prompt. It is a
// first-turn affordance: once the conversation has moved past the greeting it does nothing.
func (s *Session) SelectQuickQuestion(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) != 1 {
		return
	}
	s.pendingInput = text
}

// QuickQuestions returns the canned first-turn prompts, or nil once the conversation has
// started.
func (s *Session) QuickQuestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) != 1 {
		return nil
	}
	return s.quickQuestions
}

// Snapshot returns a deep copy of the session state for rendering. Mutating the returned value
// has no effect on the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]models.Message, len(s.messages))
	copy(messages, s.messages)

	visibility := make(map[int]bool, len(s.sourceVisibility))
	for i, v := range s.sourceVisibility {
		visibility[i] = v
	}

	return Snapshot{
		Messages:         messages,
		InFlight:         s.inFlight,
		SourceVisibility: visibility,
		PendingInput:     s.pendingInput,
	}
}
